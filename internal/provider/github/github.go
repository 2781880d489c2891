// Package github implements the notification provider for the GitHub
// notifications API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"notify_printer/internal/model"
	"notify_printer/internal/provider"
)

const (
	apiURL    = "https://api.github.com/notifications"
	userAgent = "notify-printer/1.0"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider fetches notifications for the authenticated GitHub user.
type Provider struct {
	token  string
	client HTTPClient
	log    *slog.Logger
}

var _ provider.Provider = (*Provider)(nil)

// New creates a GitHub provider authenticating with the given token.
func New(token string, client HTTPClient, log *slog.Logger) *Provider {
	return &Provider{
		token:  token,
		client: client,
		log:    log,
	}
}

// Name returns the source identifier.
func (p *Provider) Name() string { return "GitHub" }

// IsConfigured reports whether an API token is present.
func (p *Provider) IsConfigured() bool {
	return strings.TrimSpace(p.token) != ""
}

// Fetch downloads the user's current notifications.
func (p *Provider) Fetch(ctx context.Context) ([]model.Notification, error) {
	if !p.IsConfigured() {
		return nil, provider.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+p.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

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

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	notifications := make([]model.Notification, 0, len(raw))
	for _, item := range raw {
		n, err := p.convert(item)
		if err != nil {
			p.log.Warn("skipping malformed notification", "source", p.Name(), "error", err)
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// convert normalizes one raw API item. A missing id makes the item
// malformed; every other field has a placeholder fallback.
func (p *Provider) convert(raw map[string]any) (model.Notification, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return model.Notification{}, fmt.Errorf("missing id")
	}

	subject, _ := raw["subject"].(map[string]any)
	title, _ := subject["title"].(string)
	if title == "" {
		title = model.DefaultTitle
	}
	url, _ := subject["url"].(string)

	repo, _ := raw["repository"].(map[string]any)
	repoName, _ := repo["full_name"].(string)
	if repoName == "" {
		repoName = "Unknown Repo"
	}

	reason, _ := raw["reason"].(string)
	if reason == "" {
		reason = "unknown"
	}

	timestamp := time.Now().UTC()
	if updatedAt, ok := raw["updated_at"].(string); ok && updatedAt != "" {
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			timestamp = t
		}
	}

	return model.Notification{
		ID:         id,
		Title:      title,
		Source:     p.Name(),
		Type:       notificationType(reason),
		Timestamp:  timestamp,
		Repository: repoName,
		URL:        url,
		Reason:     reason,
		RawData:    raw,
	}, nil
}

var reasonTypes = map[string]string{
	"assign":           "Assignment",
	"author":           "Author",
	"comment":          "Comment",
	"invitation":       "Invitation",
	"manual":           "Manual",
	"mention":          "Mention",
	"review_requested": "Review Request",
	"security_alert":   "Security Alert",
	"state_change":     "State Change",
	"subscribed":       "Subscription",
	"team_mention":     "Team Mention",
}

func notificationType(reason string) string {
	if t, ok := reasonTypes[strings.ToLower(reason)]; ok {
		return t
	}
	return titleCase(reason)
}

func titleCase(s string) string {
	if s == "" {
		return model.DefaultType
	}
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
