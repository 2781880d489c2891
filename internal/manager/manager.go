// Package manager implements the notification aggregation and
// deduplication engine.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"notify_printer/internal/model"
	"notify_printer/internal/provider"
	"notify_printer/internal/storage"
)

const defaultFetchTimeout = 30 * time.Second

// Manager owns the provider registry and the seen store. It aggregates
// notifications across providers and computes the new-item delta.
//
// The registry preserves insertion order and permits duplicate
// providers. The seen store is mutated only by GetNew and MarkSeen;
// providers never touch it.
type Manager struct {
	providers    []provider.Provider
	seen         storage.SeenStore
	log          *slog.Logger
	fetchTimeout time.Duration
}

// New creates a Manager with an empty provider registry.
func New(seen storage.SeenStore, log *slog.Logger) *Manager {
	return &Manager{
		seen:         seen,
		log:          log,
		fetchTimeout: defaultFetchTimeout,
	}
}

// SetFetchTimeout overrides the default 30-second per-provider fetch timeout.
func (m *Manager) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		m.fetchTimeout = d
	}
}

// AddProvider appends a provider to the registry. No validation is
// performed; a misconfigured provider is simply skipped at poll time.
func (m *Manager) AddProvider(p provider.Provider) {
	m.providers = append(m.providers, p)
}

// GetAll fetches from every configured provider and concatenates the
// results in registration order, preserving each provider's internal
// order. Unconfigured or failing providers are skipped with a logged
// diagnostic; GetAll never fails. The seen store is not consulted.
func (m *Manager) GetAll(ctx context.Context) []model.Notification {
	var all []model.Notification
	for _, p := range m.providers {
		batch, ok := m.fetch(ctx, p)
		if !ok {
			continue
		}
		all = append(all, batch...)
	}
	return all
}

// GetNew fetches like GetAll, then filters out every notification whose
// (source, id) is already in the seen store. Surviving notifications
// are marked seen and returned in fetch order. If the same id appears
// twice in one cycle, the first occurrence wins and is reported.
//
// A notification stays marked seen even if the caller subsequently
// fails to deliver it; undelivered items are not re-queued.
func (m *Manager) GetNew(ctx context.Context) []model.Notification {
	var fresh []model.Notification
	for _, p := range m.providers {
		batch, ok := m.fetch(ctx, p)
		if !ok {
			continue
		}
		for _, n := range batch {
			key := n.Key()
			seen, err := m.seen.IsSeen(ctx, key)
			if err != nil {
				// Bias toward re-delivery over silent loss.
				m.log.Error("check seen", "source", key.Source, "id", key.ID, "error", err)
				seen = false
			}
			if seen {
				continue
			}
			fresh = append(fresh, n)
			if err := m.seen.MarkSeen(ctx, key); err != nil {
				m.log.Error("mark seen", "source", key.Source, "id", key.ID, "error", err)
			}
		}
	}
	return fresh
}

// MarkSeen records the given notifications without delivering them.
// Used to prime the seen store at startup so pre-existing notifications
// are not reported as new.
func (m *Manager) MarkSeen(ctx context.Context, notifications []model.Notification) {
	for _, n := range notifications {
		key := n.Key()
		if err := m.seen.MarkSeen(ctx, key); err != nil {
			m.log.Error("mark seen", "source", key.Source, "id", key.ID, "error", err)
		}
	}
}

// fetch runs one provider with a bounded timeout. The second return
// value is false when the provider contributed nothing this cycle.
func (m *Manager) fetch(ctx context.Context, p provider.Provider) ([]model.Notification, bool) {
	if !p.IsConfigured() {
		m.log.Debug("provider not configured, skipping", "source", p.Name())
		return nil, false
	}

	fctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	batch, err := p.Fetch(fctx)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			m.log.Debug("provider not configured, skipping", "source", p.Name())
		} else {
			m.log.Error("fetch notifications", "source", p.Name(), "error", err)
		}
		return nil, false
	}
	return batch, true
}
