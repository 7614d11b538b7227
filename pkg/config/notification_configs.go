package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// NotificationConfig holds the credentials of every notification channel.
// A channel whose required fields are empty stays silent.
type NotificationConfig struct {
	DingTalk DingTalkConfig `json:"dingtalk" yaml:"dingtalk"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Bark     BarkConfig     `json:"bark" yaml:"bark"`
}

// DingTalkConfig 钉钉机器人配置
type DingTalkConfig struct {
	AccessToken string `json:"access_token" yaml:"access_token"`
	SecretKey   string `json:"secret_key" yaml:"secret_key"`
}

// TelegramConfig represents Telegram bot configuration
type TelegramConfig struct {
	BotToken  string `json:"bot_token" yaml:"bot_token"`
	ChatID    string `json:"chat_id" yaml:"chat_id"`
	HTTPProxy string `json:"http_proxy" yaml:"http_proxy"`
}

// BarkConfig Bark推送配置
type BarkConfig struct {
	URL string `json:"url" yaml:"url"`
	// QueryParameters are appended to every push unchanged; empty values are dropped.
	QueryParameters map[string]QueryValue `json:"query_parameters" yaml:"query_parameters"`
}

// QueryValue is a Bark query parameter. Strings, numbers and booleans are
// kept as their literal text; null decodes to the empty string.
type QueryValue string

func (v QueryValue) MarshalJSON() ([]byte, error) {
	if v == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(v))
}

func (v *QueryValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = QueryValue(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = QueryValue(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: query parameter must be a string, number, boolean or null", ErrInvalidValue)
		}
		*v = QueryValue(n)
	}
	return nil
}

func (v QueryValue) MarshalYAML() (interface{}, error) {
	if v == "" {
		return nil, nil
	}
	return string(v), nil
}

func (v *QueryValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: query parameter must be a scalar (line %d)", ErrInvalidValue, node.Line)
	}
	if node.Tag == "!!null" {
		*v = ""
		return nil
	}
	*v = QueryValue(node.Value)
	return nil
}

// BarkQueryKeys are the optional push parameters the configure wizard writes.
var BarkQueryKeys = []string{"url", "isArchive", "group", "icon", "automaticallyCopy", "copy"}

// NewNotificationConfig returns a notification config with every channel unset.
func NewNotificationConfig() NotificationConfig {
	params := make(map[string]QueryValue, len(BarkQueryKeys))
	for _, key := range BarkQueryKeys {
		params[key] = ""
	}
	return NotificationConfig{
		Bark: BarkConfig{QueryParameters: params},
	}
}

// Configured reports whether both DingTalk credentials are set.
func (c DingTalkConfig) Configured() bool {
	return c.AccessToken != "" && c.SecretKey != ""
}

// Configured reports whether the bot token and chat id are set.
func (c TelegramConfig) Configured() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// Configured reports whether a Bark device URL is set.
func (c BarkConfig) Configured() bool {
	return c.URL != ""
}
