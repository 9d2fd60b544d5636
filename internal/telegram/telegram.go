// Package telegram posts report summaries to a Telegram chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/retry"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	// MaxMessageLength keeps messages under Telegram's 4096 character limit.
	MaxMessageLength = 4000
)

type Options struct {
	// BaseURL overrides the Bot API endpoint.
	BaseURL string
	Client  *http.Client
	Retry   retry.RetryConfig
	Logger  *slog.Logger
}

type Notifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	retry   retry.RetryConfig
	log     *slog.Logger
}

func New(token, chatID string, opts Options) *Notifier {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Notifier{
		token:   token,
		chatID:  chatID,
		baseURL: opts.BaseURL,
		client:  opts.Client,
		retry:   opts.Retry,
		log:     opts.Logger.With("component", "telegram"),
	}
}

// SendMessage posts text as plain text, truncated to MaxMessageLength runes,
// with link previews disabled.
func (n *Notifier) SendMessage(ctx context.Context, text string) error {
	text = Truncate(text, MaxMessageLength)
	attempt := 0
	err := retry.WithRetry(ctx, n.retry, func() error {
		attempt++
		err := n.sendOnce(ctx, text)
		if err != nil {
			n.log.Warn("send failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return err
	}
	n.log.Info("message sent", "attempt", attempt, "length", utf8.RuneCountInString(text))
	return nil
}

func (n *Notifier) sendOnce(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)

	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("error make JSON: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.log.Debug("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("telegram API error: status %d", resp.StatusCode)
		// 4xx other than rate limiting will not get better on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}
	return nil
}

// Truncate cuts s to at most max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
