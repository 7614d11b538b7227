package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/transport"

	"go.uber.org/zap"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramNotifier handles Telegram notifications
type TelegramNotifier struct {
	config  config.TelegramConfig
	client  *transport.Client
	baseURL string
}

// TelegramMessage represents a message to be sent via Telegram
type TelegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// TelegramResponse represents Telegram API response
type TelegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// NewTelegramNotifier creates a new Telegram notifier. client should carry
// the configured http_proxy, if any.
func NewTelegramNotifier(cfg config.TelegramConfig, client *transport.Client) *TelegramNotifier {
	return &TelegramNotifier{
		config:  cfg,
		client:  client,
		baseURL: telegramAPIURL,
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Configured() bool { return t.config.Configured() }

// Send sends a message via the bot's sendMessage method
func (t *TelegramNotifier) Send(ctx context.Context, message string, _ SendOptions) error {
	if !t.Configured() {
		return nil
	}

	jsonData, err := json.Marshal(TelegramMessage{
		ChatID: t.config.ChatID,
		Text:   message,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshalMessage, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.config.BotToken)

	logger.Debug("Sending Telegram message",
		zap.String("chat_id", t.config.ChatID),
		zap.Bool("proxied", t.config.HTTPProxy != ""))

	resp, err := t.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		// the endpoint embeds the bot token
		return fmt.Errorf("telegram: %w: %s", ErrSendRequest, strings.ReplaceAll(err.Error(), t.config.BotToken, "<token>"))
	}

	body, err := checkResponse(t.Name(), resp)
	if err != nil {
		return err
	}

	var telegramResp TelegramResponse
	if json.Unmarshal(body, &telegramResp) == nil && !telegramResp.OK {
		return fmt.Errorf("telegram API error: %s (code: %d)", telegramResp.Description, telegramResp.ErrorCode)
	}
	return nil
}
