// Package telegram delivers alert events through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier implements ports.Notifier.
type Notifier struct {
	botToken   string
	chatID     string
	apiBase    string
	maxRetries int
	backoff    time.Duration
	client     *http.Client
	logger     ports.Logger
}

// Config holds the bot credentials and retry policy.
type Config struct {
	BotToken   string
	ChatID     string
	APIBase    string
	MaxRetries int           // Additional attempts after the first; defaults to 2
	Backoff    time.Duration // First retry delay, doubled each attempt; defaults to 1s
	Logger     ports.Logger
}

// New creates a notifier. Token and chat id are required.
func New(cfg Config) (*Notifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat id are required: %w", ports.ErrConfigurationError)
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = ports.NopLogger{}
	}
	return &Notifier{
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     cfg.Logger,
	}, nil
}

// Notify formats evt and sends it with retries.
func (n *Notifier) Notify(ctx context.Context, evt *domain.AlertEvent) error {
	if evt == nil {
		return nil
	}
	return n.SendWithRetry(ctx, FormatAlert(evt))
}

// Send sends a message to the configured chat.
func (n *Notifier) Send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	payload := map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w: %w", ports.ErrNotificationFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API error: %w: status %d, body: %s", ports.ErrNotificationFailed, resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (n *Notifier) SendWithRetry(ctx context.Context, text string) error {
	var lastErr error
	for i := 0; i <= n.maxRetries; i++ {
		err := n.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == n.maxRetries {
			break
		}
		wait := n.backoff << uint(i)
		n.logger.Warn(ctx, "Telegram send failed, retrying", map[string]interface{}{
			"attempt": i + 1, "of": n.maxRetries + 1, "retryIn": wait.String(), "error": err.Error(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", n.maxRetries+1, lastErr)
}

// FormatAlert renders an alert as Telegram HTML.
func FormatAlert(evt *domain.AlertEvent) string {
	icon := "🟢"
	if evt.Tier == domain.TierStrongSell {
		icon = "🔴"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> | %s (%s)\n\n", icon, html.EscapeString(string(evt.Tier)), html.EscapeString(evt.Ticker), evt.Mode)
	fmt.Fprintf(&b, "Price: %s\n", strconv.FormatFloat(evt.Price, 'f', -1, 64))
	fmt.Fprintf(&b, "Buy %.1f | Sell %.1f | Risk %.0f\n", evt.BuyScore, evt.SellScore, evt.RiskScore)
	if evt.Action != "" {
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(evt.Action))
	}
	fmt.Fprintf(&b, "\n<i>%s</i>", evt.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	return b.String()
}
