package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"spendwise/internal/bus"
	"spendwise/internal/channel"
	"spendwise/internal/config"
	"spendwise/internal/dialog"
	"spendwise/internal/dispatch"
	"spendwise/internal/domain"
	"spendwise/internal/gateway"
	"spendwise/internal/metrics"
	"spendwise/internal/session"
	"spendwise/internal/store"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// .env is optional; explicit environment always wins.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "spendwise",
		Short:   "SpendWise: conversational financial tracking agent",
		Long:    "SpendWise turns chat messages into tracked expenses, budgets, and savings goals.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.spendwise/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "data_dir", cfg.General.DataDir)
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			go app.runner.Run(ctx)

			cliCh := channel.NewCLI(channel.CLIConfig{Logger: logger})
			return cliCh.Start(ctx, app.bus)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run all enabled channels until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			go app.runner.Run(ctx)

			if cfg.Metrics.Enabled {
				go serveMetrics(ctx, cfg.Metrics.Listen)
			}

			channels := enabledChannels(cfg)
			if len(channels) == 0 {
				return fmt.Errorf("no channels enabled; enable telegram, cli, or nats in %s", resolveConfigPath())
			}

			errCh := make(chan error, len(channels))
			for _, ch := range channels {
				go func(ch domain.Channel) {
					logger.Info("starting channel", "name", ch.Name())
					if err := ch.Start(ctx, app.bus); err != nil {
						errCh <- fmt.Errorf("channel %s: %w", ch.Name(), err)
					}
				}(ch)
			}

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				return nil
			case err := <-errCh:
				return err
			}
		},
	}
}

// app bundles the wired core so commands share one construction path.
type app struct {
	bus      *bus.InMemoryBus
	runner   *dialog.Runner
	finance  *store.SQLiteStore
	sessions domain.SessionStore
}

func (a *app) close() {
	a.bus.Close()
	if err := a.sessions.Close(); err != nil {
		logger.Warn("session store close failed", "err", err)
	}
	if err := a.finance.Close(); err != nil {
		logger.Warn("finance store close failed", "err", err)
	}
}

func buildApp(cfg *config.Config) (*app, error) {
	messageBus := bus.New(100, logger)

	finance, err := store.NewSQLiteStore(cfg.Storage.DBPath, cfg.Storage.CategoriesFile, logger)
	if err != nil {
		return nil, fmt.Errorf("open finance store: %w", err)
	}

	sessions, err := buildSessionStore(cfg)
	if err != nil {
		finance.Close()
		return nil, err
	}

	gw := gateway.NewOpenAI(gateway.OpenAIConfig{
		APIKey:      cfg.Gateway.APIKey,
		APIBase:     cfg.Gateway.APIBase,
		Model:       cfg.Gateway.Model,
		Temperature: cfg.Gateway.Temperature,
		Store:       finance,
		Logger:      logger,
	})

	dispatcher := dispatch.New(gw, finance, logger)
	engine := dialog.NewEngine(dispatcher, gw, logger)

	runner := dialog.NewRunner(dialog.RunnerConfig{
		Engine:       engine,
		Bus:          messageBus,
		Sessions:     sessions,
		Store:        finance,
		Logger:       logger,
		Concurrency:  cfg.General.MaxConcurrentSessions,
		HistoryLimit: cfg.General.HistoryLimit,
	})

	return &app{
		bus:      messageBus,
		runner:   runner,
		finance:  finance,
		sessions: sessions,
	}, nil
}

func buildSessionStore(cfg *config.Config) (domain.SessionStore, error) {
	switch cfg.Session.Backend {
	case "redis":
		ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		rs, err := session.NewRedisStore(cfg.Session.RedisURL, ttl)
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		return rs, nil
	default:
		return session.NewMemoryStore(), nil
	}
}

func enabledChannels(cfg *config.Config) []domain.Channel {
	var channels []domain.Channel
	if cfg.Channels.Telegram.Enabled {
		channels = append(channels, channel.NewTelegram(channel.TelegramConfig{
			Token:     cfg.Channels.Telegram.Token,
			AllowFrom: cfg.Channels.Telegram.AllowFrom,
			Logger:    logger,
		}))
	}
	if cfg.Channels.CLI.Enabled {
		channels = append(channels, channel.NewCLI(channel.CLIConfig{Logger: logger}))
	}
	if cfg.Channels.NATS.Enabled {
		channels = append(channels, channel.NewNATS(channel.NATSConfig{
			URL:     cfg.Channels.NATS.URL,
			Subject: cfg.Channels.NATS.Subject,
			Logger:  logger,
		}))
	}
	return channels
}

func serveMetrics(ctx context.Context, listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Collector.Handler())

	srv := &http.Server{Addr: listen, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "err", err)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the config file, falling back to defaults when missing,
// and re-levels the logger from it.
func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}

	level := slog.LevelInfo
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return cfg
}
