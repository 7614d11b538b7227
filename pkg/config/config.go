package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where `configure` writes and `start` reads by default.
const DefaultConfigPath = "apple_store_monitor_configs.json"

// DefaultPickupTodayQuote is the pickup quote apple.com.cn returns for stock
// that can be collected today.
const DefaultPickupTodayQuote = "今天可取货"

// MonitorConfig is the persisted configuration store.
type MonitorConfig struct {
	SelectedProducts ProductSelection   `json:"selected_products" yaml:"selected_products"`
	SelectedArea     string             `json:"selected_area" yaml:"selected_area"`
	ExcludeStores    []string           `json:"exclude_stores" yaml:"exclude_stores"`
	Notification     NotificationConfig `json:"notification_configs" yaml:"notification_configs"`
	ScanInterval     int                `json:"scan_interval" yaml:"scan_interval"` // seconds
	AlertException   bool               `json:"alert_exception" yaml:"alert_exception"`
	PickupTodayQuote string             `json:"pickup_today_quote,omitempty" yaml:"pickup_today_quote,omitempty"`
	HTTP             HTTPConfig         `json:"http" yaml:"http"`
	App              AppConfig          `json:"app" yaml:"app"`
}

// HTTPConfig bounds every outbound call.
type HTTPConfig struct {
	Timeout    int `json:"timeout" yaml:"timeout"`         // seconds
	RetryDelay int `json:"retry_delay" yaml:"retry_delay"` // seconds
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AppConfig represents application configuration settings
type AppConfig struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file"`
	Development bool   `json:"development" yaml:"development"`
}

// NewMonitorConfig returns a configuration populated with defaults.
func NewMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		SelectedProducts: ProductSelection{},
		ExcludeStores:    []string{},
		Notification:     NewNotificationConfig(),
		ScanInterval:     30,
		AlertException:   false,
		PickupTodayQuote: DefaultPickupTodayQuote,
		HTTP: HTTPConfig{
			Timeout:    15,
			RetryDelay: 2,
			MaxRetries: 1,
		},
		App: AppConfig{
			LogLevel:    "info",
			Development: true,
		},
	}
}

// TimeoutDuration returns the per-request timeout.
func (h HTTPConfig) TimeoutDuration() time.Duration {
	return time.Duration(h.Timeout) * time.Second
}

// RetryDelayDuration returns the pause before the single retry.
func (h HTTPConfig) RetryDelayDuration() time.Duration {
	return time.Duration(h.RetryDelay) * time.Second
}

// Product is the classification label and display title of one part.
// It is stored as a two-element array, e.g. ["iPhone 13 Pro", "iPhone 13 Pro 256GB 远峰蓝色"].
type Product struct {
	Classification string
	Title          string
}

// ProductSelection maps a part number to its product description.
type ProductSelection map[string]Product

// PartNumbers returns the selected part numbers in a stable order.
func (s ProductSelection) PartNumbers() []string {
	parts := make([]string, 0, len(s))
	for part := range s {
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return parts
}

func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Classification, p.Title})
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("product must be a [classification, title] pair: %w", err)
	}
	return p.fromPair(pair)
}

func (p Product) MarshalYAML() (interface{}, error) {
	return []string{p.Classification, p.Title}, nil
}

func (p *Product) UnmarshalYAML(value *yaml.Node) error {
	var pair []string
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("product must be a [classification, title] pair: %w", err)
	}
	return p.fromPair(pair)
}

func (p *Product) fromPair(pair []string) error {
	if len(pair) != 2 {
		return fmt.Errorf("%w: product pair has %d elements", ErrInvalidValue, len(pair))
	}
	p.Classification, p.Title = pair[0], pair[1]
	return nil
}
