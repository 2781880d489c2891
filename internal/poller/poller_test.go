package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"notify_printer/internal/filter"
	"notify_printer/internal/manager"
	"notify_printer/internal/model"
	"notify_printer/internal/storage"
)

type stubProvider struct {
	name    string
	batches [][]model.Notification
	calls   int
}

func (p *stubProvider) Name() string       { return p.name }
func (p *stubProvider) IsConfigured() bool { return true }

func (p *stubProvider) Fetch(_ context.Context) ([]model.Notification, error) {
	defer func() { p.calls++ }()
	i := p.calls
	if i >= len(p.batches) {
		i = len(p.batches) - 1
	}
	return p.batches[i], nil
}

type recordingSink struct {
	mu      sync.Mutex
	batches [][]model.Notification
	err     error
}

func (r *recordingSink) Deliver(_ context.Context, batch []model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]model.Notification, len(batch))
	copy(cp, batch)
	r.batches = append(r.batches, cp)
	return r.err
}

func (r *recordingSink) delivered() [][]model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]model.Notification, len(r.batches))
	copy(out, r.batches)
	return out
}

func notif(id, title string) model.Notification {
	return model.Notification{
		ID:        id,
		Title:     title,
		Source:    "GH",
		Type:      "Comment",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(providers ...*stubProvider) *manager.Manager {
	m := manager.New(storage.NewMemory(), testLogger())
	for _, p := range providers {
		m.AddProvider(p)
	}
	return m
}

func idsOf(batch []model.Notification) []string {
	var out []string
	for _, n := range batch {
		out = append(out, n.ID)
	}
	return out
}

func TestCycleDeliversDelta(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{
		{notif("1", "one"), notif("2", "two")},
	}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())

	pl.cycle(context.Background())

	got := out.delivered()
	if len(got) != 1 {
		t.Fatalf("expected one delivery, got %d", len(got))
	}
	if diff := cmp.Diff([]string{"1", "2"}, idsOf(got[0])); diff != "" {
		t.Errorf("delivered ids mismatch (-want +got):\n%s", diff)
	}
}

func TestCycleSkipsDeliveryWhenNoNew(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{
		{notif("1", "one")},
	}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())
	ctx := context.Background()

	pl.cycle(ctx)
	pl.cycle(ctx)

	if got := out.delivered(); len(got) != 1 {
		t.Errorf("expected exactly one delivery, got %d", len(got))
	}
}

func TestDeliveryFailureDoesNotRequeue(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{
		{notif("1", "one")},
	}}
	out := &recordingSink{err: errors.New("printer offline")}
	pl := New(newTestManager(p), out, testLogger())
	ctx := context.Background()

	pl.cycle(ctx)
	out.err = nil
	pl.cycle(ctx)

	// The failed notification stays seen and is not delivered again.
	if got := out.delivered(); len(got) != 1 {
		t.Errorf("expected one delivery attempt total, got %d", len(got))
	}
}

func TestRulesFilterDelta(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{
		{notif("1", "Release v2.4"), notif("2", "Bump deps")},
	}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())
	pl.SetRules([]filter.Rule{
		{Kind: filter.Exclude, Scope: filter.ScopeTitle, Value: "bump"},
	})

	pl.cycle(context.Background())

	got := out.delivered()
	if len(got) != 1 {
		t.Fatalf("expected one delivery, got %d", len(got))
	}
	if diff := cmp.Diff([]string{"1"}, idsOf(got[0])); diff != "" {
		t.Errorf("filtered delivery mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPrimesSeenStore(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{
		{notif("1", "pre-existing")},
		{notif("1", "pre-existing"), notif("2", "new")},
	}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())
	pl.SetTickInterval(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	pl.Run(ctx)

	for _, batch := range out.delivered() {
		for _, n := range batch {
			if n.ID == "1" {
				t.Fatal("pre-existing notification delivered despite priming")
			}
		}
	}
}

func TestRunWithoutPrimeDeliversExisting(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{
		{notif("1", "pre-existing")},
	}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())
	pl.SetPrimeOnStart(false)
	pl.SetTickInterval(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	pl.Run(ctx)

	got := out.delivered()
	if len(got) == 0 {
		t.Fatal("expected the first cycle to deliver existing notifications")
	}
	if diff := cmp.Diff([]string{"1"}, idsOf(got[0])); diff != "" {
		t.Errorf("first delivery mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{nil}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())
	pl.SetTickInterval(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		pl.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestRunOnceBypassesSeenStore(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{
		{notif("1", "one")},
	}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())
	ctx := context.Background()

	if err := pl.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if err := pl.RunOnce(ctx); err != nil {
		t.Fatalf("run once again: %v", err)
	}

	got := out.delivered()
	if len(got) != 2 {
		t.Fatalf("expected two deliveries, got %d", len(got))
	}
	for i, batch := range got {
		if diff := cmp.Diff([]string{"1"}, idsOf(batch)); diff != "" {
			t.Errorf("delivery %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestRunOnceDeliversEmpty(t *testing.T) {
	p := &stubProvider{name: "GH", batches: [][]model.Notification{nil}}
	out := &recordingSink{}
	pl := New(newTestManager(p), out, testLogger())

	if err := pl.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once with empty result: %v", err)
	}
}
