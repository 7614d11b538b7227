package config

import (
	"fmt"
	"net/url"
)

// Validate checks that the configuration can drive a monitor run.
func (c *MonitorConfig) Validate() error {
	if len(c.SelectedProducts) == 0 {
		return fmt.Errorf("%w: selected_products", ErrMissingRequired)
	}
	for part, p := range c.SelectedProducts {
		if part == "" {
			return fmt.Errorf("%w: empty part number in selected_products", ErrInvalidValue)
		}
		if p.Title == "" {
			return fmt.Errorf("%w: title of %s", ErrMissingRequired, part)
		}
	}

	if c.SelectedArea == "" {
		return fmt.Errorf("%w: selected_area", ErrMissingRequired)
	}

	if c.ScanInterval < 1 {
		return fmt.Errorf("%w: scan_interval must be at least 1 second", ErrInvalidValue)
	}

	if c.PickupTodayQuote == "" {
		c.PickupTodayQuote = DefaultPickupTodayQuote
	}

	if err := c.HTTP.validate(); err != nil {
		return err
	}

	return c.Notification.validate()
}

func (h *HTTPConfig) validate() error {
	if h.Timeout <= 0 {
		return fmt.Errorf("%w: http.timeout must be positive", ErrInvalidValue)
	}
	if h.RetryDelay < 0 {
		h.RetryDelay = 0
	}
	if h.MaxRetries < 0 || h.MaxRetries > 1 {
		return fmt.Errorf("%w: http.max_retries must be 0 or 1", ErrInvalidValue)
	}
	return nil
}

func (n *NotificationConfig) validate() error {
	if n.Telegram.HTTPProxy != "" {
		if _, err := url.Parse(n.Telegram.HTTPProxy); err != nil {
			return fmt.Errorf("%w: telegram.http_proxy: %v", ErrInvalidValue, err)
		}
	}
	if n.Bark.URL != "" {
		u, err := url.Parse(n.Bark.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: bark.url must be an absolute URL", ErrInvalidValue)
		}
	}
	return nil
}
