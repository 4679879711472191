package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/estimator/internal/api"
	"github.com/MikeSquared-Agency/estimator/internal/config"
	"github.com/MikeSquared-Agency/estimator/internal/extractor"
	"github.com/MikeSquared-Agency/estimator/internal/hermes"
	"github.com/MikeSquared-Agency/estimator/internal/processor"
	"github.com/MikeSquared-Agency/estimator/internal/slack"
	"github.com/MikeSquared-Agency/estimator/internal/store"
	"github.com/MikeSquared-Agency/estimator/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, Slack webhook and trigger consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		setupLogging(cfg.LogLevel)
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := slog.Default()
	logger.Info("estimator starting", "port", cfg.Port, "env", cfg.Env)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Slack
	if config.IsPlaceholder(cfg.SlackSigningSecret) {
		logger.Warn("SLACK_SIGNING_SECRET not set, all webhook deliveries will be rejected")
	}
	policy := webhook.NewPolicy(cfg.SlackAuthorizedUsers, cfg.SlackTriggerEmoji)
	if policy.Users() == 0 {
		logger.Warn("SLACK_AUTHORIZED_USER_IDS is empty, no reactions will trigger extraction")
	}
	slackClient := slack.NewClient(cfg.SlackBotToken, logger)
	slackReady := !config.IsPlaceholder(cfg.SlackBotToken)

	// Model backend
	gen, backend, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	if gen == nil {
		logger.Warn("no model API key configured, extraction requests will fail", "provider", cfg.ModelProvider)
	} else {
		logger.Info("model backend ready", "backend", backend)
	}
	ext := extractor.New(gen, logger)

	// Record store, connected on first use
	records := store.NewLazy(cfg.DatabaseURL)
	defer records.Close()
	if !records.Configured() {
		logger.Warn("DATABASE_URL not set, record store endpoints will fail")
	}

	var replier processor.Replier
	if cfg.SlackPostResults && slackReady {
		replier = slack.NewPoster(cfg.SlackBotToken, logger)
	}

	// NATS/Hermes (optional: without it triggers are only logged)
	var (
		bus        processor.Publisher
		dispatcher webhook.Dispatcher = webhook.LogDispatcher{Logger: logger}
		hermesConn *hermes.Client
	)
	if cfg.NatsURL != "" {
		hermesConn, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			return err
		}
		defer hermesConn.Close()
		bus = hermesConn
		dispatcher = webhook.NewBusDispatcher(hermesConn, logger)
		logger.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		logger.Warn("NATS_URL not set, triggered extractions will only be logged")
	}

	proc := processor.New(slackClient, ext, records, replier, bus, cfg.ExtractTimeout, logger)

	if hermesConn != nil {
		if err := hermesConn.Subscribe(hermes.SubjectExtractionTriggered, proc.HandleExtractionTriggered); err != nil {
			return err
		}
	}

	router := webhook.NewRouter(slack.NewVerifier(cfg.SlackSigningSecret, logger), policy, dispatcher, logger)

	checks := map[string]api.HealthCheck{}
	if records.Configured() {
		checks["database"] = records.Ping
	}
	if hermesConn != nil {
		checks["nats"] = hermesConn.Ping
	}

	srv := api.NewServer(cfg.Port, api.Deps{
		Events:         router,
		Extractor:      proc,
		Records:        records,
		APIToken:       cfg.APIToken,
		ExtractTimeout: cfg.ExtractTimeout,
		Logger:         logger,
		Checks:         checks,
		Integrations: map[string]bool{
			"slack_webhook": !config.IsPlaceholder(cfg.SlackSigningSecret),
			"slack_api":     slackReady,
			"model":         gen != nil,
			"database":      records.Configured(),
			"nats":          hermesConn != nil,
		},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	if hermesConn != nil {
		if err := hermesConn.Publish("swarm.agent.estimator.registered", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			logger.Warn("failed to publish registration", "error", err)
		}
	}

	logger.Info("estimator ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	cancel()
	logger.Info("estimator stopped")
	return nil
}
