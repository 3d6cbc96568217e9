package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentworkforce/moviebot/internal/config"
	"github.com/agentworkforce/moviebot/internal/httpapi"
	"github.com/agentworkforce/moviebot/internal/moviebot"
	"github.com/agentworkforce/moviebot/internal/telegram"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Register the webhook and serve Telegram updates",
	Long: `Start the webhook server.

The bot registers https://$HOST/webhooks/<bot token> with Telegram and
listens on $PORT (or MOVIEBOT_LISTEN_ADDR). On SIGINT or SIGTERM it stops
accepting updates and waits for in-flight work to finish.

Routes:
  GET  /health              - liveness check
  POST /webhooks/<token>    - Telegram updates`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		levelVar := new(slog.LevelVar)
		levelVar.Set(cfg.LogLevel)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))
		cfg.Watch(func(level slog.Level) {
			levelVar.Set(level)
			logger.Info("log level changed", "level", level.String())
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	creds, err := moviebot.BuildCredentialStoreFromDSN(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	defer creds.Close()

	bot := newTelegramClient(cfg)
	username := ""
	if me, err := bot.GetMe(ctx); err != nil {
		logger.Warn("could not resolve bot username; commands addressed with @ will be treated as text", "err", err)
	} else {
		username = me.Username
	}

	engine, err := moviebot.NewEngine(moviebot.EngineOptions{
		Credentials: creds,
		Provider:    newIMDbClient(cfg),
		Store:       newNotionClient(cfg),
		Messenger:   bot,
		Locale:      moviebot.ParseLocale(cfg.Locale),
		HelpPage:    cfg.HelpPage,
		BotUsername: username,
	})
	if err != nil {
		return err
	}

	// Units of work run to completion even after a shutdown signal.
	dispatcher := moviebot.NewDispatcher(context.WithoutCancel(ctx), engine, bot, logger)
	handler := httpapi.NewServer(dispatcher, httpapi.ServerConfig{
		WebhookPath: cfg.WebhookPath(),
		SecretToken: cfg.WebhookSecret,
		Logger:      logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("moviebot listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := bot.SetWebhook(ctx, cfg.WebhookURL(), cfg.WebhookSecret); err != nil {
		_ = httpServer.Close()
		return fmt.Errorf("couldn't set up webhook: %w", err)
	}
	logger.Info("webhook registered", "host", cfg.Host)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err, ok := <-serveErr:
		if ok && err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	dispatcher.Wait()
	logger.Info("moviebot stopped")
	return nil
}

func newTelegramClient(cfg *config.Config) *telegram.Client {
	return telegram.NewClient(telegram.ClientOptions{
		BaseURL:       cfg.TelegramAPIURL,
		Token:         cfg.BotToken,
		RatePerSecond: cfg.SendRatePerSecond,
	})
}

func newIMDbClient(cfg *config.Config) *moviebot.IMDbClient {
	return moviebot.NewIMDbClient(moviebot.IMDbClientOptions{
		BaseURL:    cfg.IMDbAPIURL,
		DefaultKey: cfg.DefaultIMDbAPIKey,
	})
}

func newNotionClient(cfg *config.Config) *moviebot.NotionClient {
	return moviebot.NewNotionClient(moviebot.NotionClientOptions{
		BaseURL:    cfg.NotionAPIURL,
		APIVersion: cfg.NotionVersion,
		UserAgent:  "moviebot",
	})
}
