package feed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"notify_printer/internal/provider"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/sample.xml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch(t *testing.T) {
	xml := loadFixture(t)

	tests := []struct {
		name      string
		transport *mockTransport
		wantCount int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: xml, statusCode: 200},
			wantCount: 3,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "invalid xml",
			transport: &mockTransport{body: "not xml at all", statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("Releases", "https://releases.example.com/rss", tt.transport, testLogger())
			got, err := p.Fetch(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantCount, len(got)); diff != "" {
				t.Errorf("item count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchNormalization(t *testing.T) {
	transport := &mockTransport{body: loadFixture(t), statusCode: 200}
	p := New("Releases", "https://releases.example.com/rss", transport, testLogger())

	got, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}

	first := got[0]
	if diff := cmp.Diff("release-240", first.ID); diff != "" {
		t.Errorf("id mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Widgets 2.4.0 Released", first.Title); diff != "" {
		t.Errorf("title mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Releases", first.Source); diff != "" {
		t.Errorf("source mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("Release Notes", first.Repository); diff != "" {
		t.Errorf("repository mismatch (-want +got):\n%s", diff)
	}
	wantTime := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(wantTime) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, wantTime)
	}

	// Entry without a guid gets a hash-based id.
	last := got[2]
	if !strings.HasPrefix(last.ID, "sha256:") {
		t.Errorf("expected sha256 fallback id, got %q", last.ID)
	}
}

func TestItemGUID(t *testing.T) {
	tests := []struct {
		name     string
		item     *gofeed.Item
		wantGUID string
		hasHash  bool
	}{
		{
			name:     "with guid",
			item:     &gofeed.Item{GUID: "abc-123"},
			wantGUID: "abc-123",
		},
		{
			name:    "without guid generates hash",
			item:    &gofeed.Item{Title: "Post Without GUID", Link: "https://example.com/post-1"},
			hasHash: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemGUID(tt.item)
			if tt.hasHash {
				if !strings.HasPrefix(got, "sha256:") {
					t.Errorf("expected sha256 prefix, got %q", got)
				}
				return
			}
			if diff := cmp.Diff(tt.wantGUID, got); diff != "" {
				t.Errorf("GUID mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "url present", url: "https://example.com/rss", want: true},
		{name: "empty url", url: "", want: false},
		{name: "blank url", url: "  ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("Feed", tt.url, &mockTransport{}, testLogger())
			if got := p.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetchNotConfigured(t *testing.T) {
	p := New("Feed", "", &mockTransport{}, testLogger())
	_, err := p.Fetch(context.Background())
	if !errors.Is(err, provider.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
