package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig 从指定路径加载配置文件
// A missing file is an error: the monitor cannot run without a configuration.
func LoadConfig(configPath string) (*MonitorConfig, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
	}

	cfg := NewMonitorConfig()
	switch ext := strings.ToLower(filepath.Ext(configPath)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: JSON parsing failed: %v", ErrInvalidFormat, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: YAML parsing failed: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}

	mergeEnvVars(cfg)
	return cfg, nil
}

// SaveConfig 保存配置到指定路径
func SaveConfig(cfg *MonitorConfig, configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(configPath)); ext {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("config serialization failed: %w", err)
	}

	// credentials live in this file
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// mergeEnvVars 将环境变量合并到配置中
func mergeEnvVars(cfg *MonitorConfig) {
	if interval := getEnvInt("PICKUPWATCH_SCAN_INTERVAL", 0); interval > 0 {
		cfg.ScanInterval = interval
	}
	if v := os.Getenv("PICKUPWATCH_ALERT_EXCEPTION"); v != "" {
		cfg.AlertException = getEnvBool("PICKUPWATCH_ALERT_EXCEPTION", cfg.AlertException)
	}

	envMappings := map[string]*string{
		"LOG_LEVEL":             &cfg.App.LogLevel,
		"LOG_FILE":              &cfg.App.LogFile,
		"DINGTALK_ACCESS_TOKEN": &cfg.Notification.DingTalk.AccessToken,
		"DINGTALK_SECRET_KEY":   &cfg.Notification.DingTalk.SecretKey,
		"TELEGRAM_BOT_TOKEN":    &cfg.Notification.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":      &cfg.Notification.Telegram.ChatID,
		"TELEGRAM_HTTP_PROXY":   &cfg.Notification.Telegram.HTTPProxy,
		"BARK_URL":              &cfg.Notification.Bark.URL,
	}
	for envKey, field := range envMappings {
		if value := os.Getenv(envKey); value != "" {
			*field = value
		}
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
