// Package provider defines the contract implemented by every
// notification source.
package provider

import (
	"context"
	"errors"

	"notify_printer/internal/model"
)

// ErrNotConfigured is returned by Fetch when a provider is missing its
// required credentials. Callers skip the provider rather than failing.
var ErrNotConfigured = errors.New("provider not configured")

// Provider is a single external notification source.
//
// Implementations own their transport and parsing. A failed fetch is
// reported as an error, never a panic; one malformed item inside an
// otherwise valid response is skipped, not fatal to the batch.
type Provider interface {
	// Name is the stable source identifier, used as the dedup namespace.
	Name() string

	// IsConfigured reports whether the provider has everything it needs
	// to fetch. It must be a pure check with no I/O.
	IsConfigured() bool

	// Fetch retrieves the current notifications from the source.
	Fetch(ctx context.Context) ([]model.Notification, error)
}
