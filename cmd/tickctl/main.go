package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/tickctl/internal/api"
	"github.com/user/tickctl/internal/cache"
	"github.com/user/tickctl/internal/config"
	"github.com/user/tickctl/internal/notify"
	"github.com/user/tickctl/internal/session"
	"github.com/user/tickctl/internal/tickets"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "tickctl",
	Short:        "Terminal client for the ticket-desk API",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath,
		"config",
		filepath.Join(os.Getenv("HOME"), ".tickctl", "config.json"),
		"config file path")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// env is the shared object graph behind every data-access command.
type env struct {
	cfg     *config.Config
	store   *session.Store
	client  *api.Client
	cache   *cache.Cache
	service *tickets.Service
}

func newEnv() (*env, error) {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store := session.NewStore(cfg.DataDir, cfg.DefaultAPIKey)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	client := api.New(cfg.BaseURL, store, api.WithTimeout(cfg.Timeout()))
	c := cache.New()

	notifiers := notify.NewRegistry()
	notifiers.Register(notify.NewLog())
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			slog.Warn("telegram notifier disabled", "error", err)
		} else {
			notifiers.Register(tg)
		}
	}

	return &env{
		cfg:     cfg,
		store:   store,
		client:  client,
		cache:   c,
		service: tickets.NewService(client, c, notifiers),
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
