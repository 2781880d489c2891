// Package storage defines the seen-set interface and its implementations.
package storage

import (
	"context"

	"notify_printer/internal/model"
)

// SeenStore records which notifications have already been delivered.
// Membership is monotonic: keys are added, never removed.
type SeenStore interface {
	IsSeen(ctx context.Context, key model.Key) (bool, error)
	MarkSeen(ctx context.Context, key model.Key) error
	Close() error
}
