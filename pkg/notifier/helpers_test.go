package notifier

import (
	"testing"
	"time"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/transport"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *transport.Client {
	t.Helper()
	c, err := transport.New(transport.Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func testOptions() transport.Options {
	return transport.Options{Timeout: time.Second}
}

func configWithAll() config.NotificationConfig {
	cfg := config.NewNotificationConfig()
	cfg.DingTalk = config.DingTalkConfig{AccessToken: "tok", SecretKey: "sec"}
	cfg.Telegram = config.TelegramConfig{BotToken: "t", ChatID: "c", HTTPProxy: "http://127.0.0.1:7890"}
	cfg.Bark.URL = "https://api.day.app/key"
	return cfg
}
