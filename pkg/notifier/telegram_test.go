package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotBody TelegramMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{BotToken: "123:abc", ChatID: "42"}, newTestClient(t))
	n.baseURL = srv.URL

	require.NoError(t, n.Send(context.Background(), "hello", SendOptions{}))
	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, TelegramMessage{ChatID: "42", Text: "hello"}, gotBody)
}

func TestTelegramAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{BotToken: "t", ChatID: "c"}, newTestClient(t))
	n.baseURL = srv.URL

	err := n.Send(context.Background(), "hello", SendOptions{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestTelegramUsesProxy(t *testing.T) {
	var proxiedHost string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxiedHost = r.Host
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer proxy.Close()

	client, err := transport.New(transport.Options{Timeout: 2 * time.Second, Proxy: proxy.URL})
	require.NoError(t, err)

	n := NewTelegramNotifier(config.TelegramConfig{BotToken: "t", ChatID: "c", HTTPProxy: proxy.URL}, client)
	n.baseURL = "http://api.telegram.test"

	require.NoError(t, n.Send(context.Background(), "via proxy", SendOptions{}))
	assert.Equal(t, "api.telegram.test", proxiedHost)
}

func TestTelegramRedactsTokenOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{BotToken: "secret-token", ChatID: "c"}, newTestClient(t))
	n.baseURL = url

	err := n.Send(context.Background(), "hello", SendOptions{})
	require.ErrorIs(t, err, ErrSendRequest)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestTelegramUnconfiguredIsSilent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{BotToken: "t"}, newTestClient(t))
	n.baseURL = srv.URL
	assert.NoError(t, n.Send(context.Background(), "hello", SendOptions{}))
	assert.Zero(t, atomic.LoadInt32(&calls))
}
