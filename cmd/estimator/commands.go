package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/estimator/internal/config"
	"github.com/MikeSquared-Agency/estimator/internal/extractor"
	"github.com/MikeSquared-Agency/estimator/internal/processor"
	"github.com/MikeSquared-Agency/estimator/internal/slack"
	"github.com/MikeSquared-Agency/estimator/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		setupLogging(cfg.LogLevel)

		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied and latest migration versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		status, err := store.Status(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		fmt.Printf("current: %d\nlatest:  %d\ndirty:   %t\npending: %t\n",
			status.CurrentVersion, status.LatestVersion, status.Dirty, status.Pending)
		return nil
	},
}

var parseLinkCmd = &cobra.Command{
	Use:   "parse-link <permalink>",
	Short: "Resolve a Slack permalink to its channel and timestamps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, ok := slack.ParsePermalink(args[0])
		if !ok {
			return fmt.Errorf("not a Slack message link: %s", args[0])
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"channel_id": ref.ChannelID,
			"thread_ts":  ref.ThreadTS,
			"message_ts": nullIfEmpty(ref.MessageTS),
		})
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract estimation fields from a thread (file, stdin or --link)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		setupLogging(cfg.LogLevel)
		link, _ := cmd.Flags().GetString("link")

		req := processor.Request{Permalink: link}
		if link == "" {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			req.ThreadText = text
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ExtractTimeout)
		defer cancel()

		gen, _, err := newGenerator(ctx, cfg)
		if err != nil {
			return err
		}
		logger := slog.Default()
		proc := processor.New(slack.NewClient(cfg.SlackBotToken, logger), extractor.New(gen, logger), nil, nil, nil, cfg.ExtractTimeout, logger)

		out, err := proc.Extract(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read thread file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
