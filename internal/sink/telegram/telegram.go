// Package telegram implements a sink that forwards notifications to a
// Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethvargo/go-retry"

	"notify_printer/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sink sends each notification as a message to one chat.
type Sink struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
	// pause between messages, ~20 msg/sec Telegram limit
	pause time.Duration
}

// New creates a Telegram sink with the given bot token and chat.
func New(token string, chatID int64, log *slog.Logger) (*Sink, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Sink{
		api:    api,
		chatID: chatID,
		log:    log,
		pause:  50 * time.Millisecond,
	}, nil
}

// Deliver sends the batch, one message per notification. A transient
// send failure is retried with capped exponential backoff before the
// whole delivery is reported as failed.
func (s *Sink) Deliver(ctx context.Context, notifications []model.Notification) error {
	for i, n := range notifications {
		msg := tgbotapi.NewMessage(s.chatID, FormatNotification(n))
		msg.DisableWebPagePreview = true

		backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		err := retry.Do(ctx, backoff, func(_ context.Context) error {
			if _, err := s.api.Send(msg); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("send message %d/%d: %w", i+1, len(notifications), err)
		}

		if i < len(notifications)-1 {
			time.Sleep(s.pause)
		}
	}
	return nil
}

// FormatNotification formats a notification as a Telegram message.
func FormatNotification(n model.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n\n", n.Source, n.Type)
	b.WriteString(n.Title)
	if n.Repository != "" {
		b.WriteString("\n\n")
		b.WriteString(n.Repository)
	}
	if n.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(n.URL)
	}
	return b.String()
}
