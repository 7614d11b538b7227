// Package notifier delivers operator messages to DingTalk, Bark and Telegram.
//
// Delivery is best-effort: every channel gets at most one dispatch per
// message, failures are logged and reported per channel, and a channel with
// missing credentials silently does nothing.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/transport"

	"go.uber.org/zap"
)

// DefaultMessageType is the DingTalk msgtype used when none is given.
const DefaultMessageType = "text"

var (
	// ErrMarshalMessage indicates message serialization failed
	ErrMarshalMessage = errors.New("failed to serialize message")

	// ErrSendRequest indicates HTTP request sending failed
	ErrSendRequest = errors.New("failed to send HTTP request")

	// ErrChannelPanic indicates a channel panicked while sending
	ErrChannelPanic = errors.New("notification channel panicked")
)

// StatusError is returned when a channel answers with a non-2xx status.
type StatusError struct {
	Channel    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Channel, e.StatusCode, e.Body)
}

// SendOptions carries channel-specific options for one message.
type SendOptions struct {
	MessageType string
}

// SendOption mutates SendOptions.
type SendOption func(*SendOptions)

// WithMessageType overrides the DingTalk msgtype.
func WithMessageType(msgType string) SendOption {
	return func(o *SendOptions) {
		o.MessageType = msgType
	}
}

// Channel is one notification target.
type Channel interface {
	// Name identifies the channel in logs and results.
	Name() string

	// Configured reports whether the required credentials are present.
	Configured() bool

	// Send delivers message. An unconfigured channel returns nil without I/O.
	Send(ctx context.Context, message string, opts SendOptions) error
}

// NewChannels builds the configured channels in dispatch order:
// DingTalk, Bark, Telegram. The Telegram client gets its own transport so
// its proxy does not leak into the other channels.
func NewChannels(cfg config.NotificationConfig, opts transport.Options) ([]Channel, error) {
	// a retried push may be delivered twice
	opts.MaxRetries = 0

	shared, err := transport.New(opts)
	if err != nil {
		return nil, err
	}

	tgOpts := opts
	tgOpts.Proxy = cfg.Telegram.HTTPProxy
	tgClient, err := transport.New(tgOpts)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	return []Channel{
		NewDingTalkNotifier(cfg.DingTalk, shared),
		NewBarkNotifier(cfg.Bark, shared),
		NewTelegramNotifier(cfg.Telegram, tgClient),
	}, nil
}

// TimeTitle prefixes message with the wall-clock time, e.g. "[14:03:12] msg".
func TimeTitle(now time.Time, message string) string {
	return fmt.Sprintf("[%s] %s", now.Format("15:04:05"), message)
}

// checkResponse logs the response status and turns non-2xx answers into a
// StatusError. The body is consumed and closed.
func checkResponse(channel string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	logger.Info(channel+" message status", zap.String("channel", channel), zap.Int("status_code", resp.StatusCode))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", channel, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, &StatusError{
			Channel:    channel,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
