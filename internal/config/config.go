// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL        string `json:"base_url"`
	DataDir        string `json:"data_dir"`
	LogLevel       string `json:"log_level"`
	DefaultAPIKey  string `json:"default_api_key,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Watch          struct {
		Refresh    string `json:"refresh"`
		DebounceMS int    `json:"debounce_ms"`
	} `json:"watch"`
	Telegram struct {
		Token  string `json:"token"`
		ChatID int64  `json:"chat_id"`
	} `json:"telegram"`
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Debounce returns the search input settle interval. Values below the
// 250ms floor are clamped to it.
func (c *Config) Debounce() time.Duration {
	d := time.Duration(c.Watch.DebounceMS) * time.Millisecond
	if d < 250*time.Millisecond {
		return 250 * time.Millisecond
	}
	return d
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		BaseURL: "http://localhost:8000",
		DataDir: filepath.Join(os.Getenv("HOME"), ".tickctl"),
	}
	cfg.LogLevel = "info"
	cfg.TimeoutSeconds = 30
	cfg.Watch.Refresh = "@every 30s"
	cfg.Watch.DebounceMS = 250

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// A .env in the working directory supplies local development values.
	_ = godotenv.Load()

	// Override from env (highest precedence)
	if v := os.Getenv("TICKCTL_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TICKCTL_API_KEY"); v != "" {
		cfg.DefaultAPIKey = v
	}
	if v := os.Getenv("TICKCTL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}

	return cfg, nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	return writeFile(path, cfg)
}

func writeFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
