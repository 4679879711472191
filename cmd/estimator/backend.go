package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/estimator/internal/anthropic"
	"github.com/MikeSquared-Agency/estimator/internal/config"
	"github.com/MikeSquared-Agency/estimator/internal/extractor"
	"github.com/MikeSquared-Agency/estimator/internal/gemini"
)

// newGenerator picks the model backend. A missing API key yields a nil
// generator, which the extractor reports as a configuration error.
func newGenerator(ctx context.Context, cfg config.Config) (extractor.Generator, string, error) {
	switch cfg.ModelProvider {
	case "", "gemini":
		if config.IsPlaceholder(cfg.GeminiAPIKey) {
			return nil, "", nil
		}
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{})
		if err != nil {
			return nil, "", err
		}
		return c, "gemini/" + c.Model(), nil
	case "anthropic":
		if config.IsPlaceholder(cfg.AnthropicAPIKey) {
			return nil, "", nil
		}
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, slog.Default()), "anthropic/" + cfg.AnthropicModel, nil
	default:
		return nil, "", fmt.Errorf("unknown MODEL_PROVIDER %q (want gemini or anthropic)", cfg.ModelProvider)
	}
}
