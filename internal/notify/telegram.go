package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Bot API allows roughly 30 messages per second across chats.
const telegramMessagesPerSecond = 25

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewTelegram creates a Bot API sender. baseURL is normally
// https://api.telegram.org.
func NewTelegram(baseURL, token string, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   strings.TrimRight(baseURL, "/") + "/bot" + token + "/sendMessage",
		limiter:    rate.NewLimiter(rate.Limit(telegramMessagesPerSecond), 1),
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send delivers message to the chat ownerID.
func (t *Telegram) Send(ctx context.Context, ownerID int64, message string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: ownerID, Text: message, DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token; keep it out of logs.
		return fmt.Errorf("telegram sendMessage: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var br botResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return fmt.Errorf("telegram sendMessage returned %d", resp.StatusCode)
	}
	if !br.OK {
		return fmt.Errorf("telegram sendMessage %d: %s", br.ErrorCode, br.Description)
	}

	t.logger.Debug("Telegram message sent", "chat_id", ownerID)
	return nil
}
