// Package notifier pushes operational events (new deposits, withdrawal
// requests, loan applications) to the admin Telegram channel. Delivery is
// best effort: failures are logged and never surfaced to the caller, so a
// Telegram outage can not fail a money movement.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Fidiestro/sanse-backend/internal/config"
	"github.com/Fidiestro/sanse-backend/internal/logger"
)

// Notifier delivers short operational messages to the admin channel.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NewFromConfig returns a Telegram notifier when credentials are configured,
// otherwise a no-op.
func NewFromConfig(cfg *config.Config) Notifier {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		logger.Get().Info("Telegram notifications disabled (no credentials)")
		return Noop{}
	}
	return &Telegram{
		token:  cfg.TelegramBotToken,
		chatID: cfg.TelegramChatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Noop discards all messages.
type Noop struct{}

func (Noop) Notify(context.Context, string) {}

// Telegram posts messages to a chat via the Bot API.
type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

// Notify sends one message. Errors are logged, never returned.
func (t *Telegram) Notify(ctx context.Context, message string) {
	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    message,
	})
	if err != nil {
		logger.Get().Warnw("telegram marshal failed", "error", err)
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Get().Warnw("telegram request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		logger.Get().Warnw("telegram send failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Get().Warnw("telegram send rejected", "status", resp.StatusCode)
	}
}
