// Package model defines the domain types used across the application.
package model

import "time"

// Placeholder values used when a source omits a required field.
const (
	DefaultTitle = "No Title"
	DefaultType  = "Unknown"
)

// Notification is one normalized notification from any source.
// Values are treated as immutable after construction.
type Notification struct {
	ID         string
	Title      string
	Source     string
	Type       string
	Timestamp  time.Time
	Repository string
	URL        string
	Reason     string
	// RawData keeps the source's original payload for diagnostics.
	// Core logic never inspects it.
	RawData map[string]any
}

// Key identifies a notification. IDs are only unique within a source,
// so identity is always the (Source, ID) pair.
type Key struct {
	Source string
	ID     string
}

// Key returns the dedup key for the notification.
func (n Notification) Key() Key {
	return Key{Source: n.Source, ID: n.ID}
}
