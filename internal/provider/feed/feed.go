// Package feed implements a notification provider backed by an RSS or
// Atom feed.
package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"notify_printer/internal/model"
	"notify_printer/internal/provider"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider polls a single feed URL and exposes its entries as
// notifications.
type Provider struct {
	name   string
	url    string
	client HTTPClient
	log    *slog.Logger
}

var _ provider.Provider = (*Provider)(nil)

// New creates a feed provider for the given URL. The name becomes the
// notification source and dedup namespace, so two providers watching
// different feeds should carry different names.
func New(name, url string, client HTTPClient, log *slog.Logger) *Provider {
	return &Provider{
		name:   name,
		url:    url,
		client: client,
		log:    log,
	}
}

// Name returns the source identifier.
func (p *Provider) Name() string { return p.name }

// IsConfigured reports whether a feed URL is present.
func (p *Provider) IsConfigured() bool {
	return strings.TrimSpace(p.url) != ""
}

// Fetch downloads and parses the feed.
func (p *Provider) Fetch(ctx context.Context) ([]model.Notification, error) {
	if !p.IsConfigured() {
		return nil, provider.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "notify-printer/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	p.log.Debug("fetched feed", "source", p.name, "items", len(parsed.Items))

	notifications := make([]model.Notification, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		notifications = append(notifications, p.convert(parsed, item))
	}
	return notifications, nil
}

func (p *Provider) convert(parsed *gofeed.Feed, item *gofeed.Item) model.Notification {
	title := item.Title
	if title == "" {
		title = model.DefaultTitle
	}

	timestamp := time.Now().UTC()
	if item.PublishedParsed != nil {
		timestamp = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		timestamp = *item.UpdatedParsed
	}

	return model.Notification{
		ID:         ItemGUID(item),
		Title:      title,
		Source:     p.name,
		Type:       "Feed Item",
		Timestamp:  timestamp,
		Repository: parsed.Title,
		URL:        item.Link,
	}
}

// ItemGUID returns the GUID for a feed item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}
