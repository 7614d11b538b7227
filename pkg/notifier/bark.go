package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/transport"
)

// BarkNotifier pushes to a Bark device URL such as https://api.day.app/<key>.
type BarkNotifier struct {
	config config.BarkConfig
	client *transport.Client
}

// NewBarkNotifier creates a Bark notifier
func NewBarkNotifier(cfg config.BarkConfig, client *transport.Client) *BarkNotifier {
	return &BarkNotifier{config: cfg, client: client}
}

func (b *BarkNotifier) Name() string { return "bark" }

func (b *BarkNotifier) Configured() bool { return b.config.Configured() }

// Send pushes message as the path segment after the device URL.
func (b *BarkNotifier) Send(ctx context.Context, message string, _ SendOptions) error {
	if !b.Configured() {
		return nil
	}

	requestURL := b.pushURL(message)
	resp, err := b.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	})
	if err != nil {
		return fmt.Errorf("bark: %w: %v", ErrSendRequest, err)
	}

	_, err = checkResponse(b.Name(), resp)
	return err
}

func (b *BarkNotifier) pushURL(message string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(b.config.URL, "/"))
	sb.WriteByte('/')
	sb.WriteString(escapeSegment(message))

	query := url.Values{}
	keys := make([]string, 0, len(b.config.QueryParameters))
	for k := range b.config.QueryParameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := b.config.QueryParameters[k]; v != "" {
			query.Set(k, string(v))
		}
	}
	if len(query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(query.Encode())
	}
	return sb.String()
}

// escapeSegment percent-encodes everything except unreserved characters,
// slashes included.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
