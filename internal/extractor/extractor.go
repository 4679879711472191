package extractor

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

// MinThreadLength is the shortest thread text worth sending to the model.
const MinThreadLength = 10

// Generator is a text-in, text-out generative model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Extractor struct {
	llm    Generator
	logger *slog.Logger
}

func New(llm Generator, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, logger: logger}
}

// Extract asks the model for the six estimation fields of a thread. Calls are
// independent: nothing is carried over between them.
func (e *Extractor) Extract(ctx context.Context, threadText string) (*Result, error) {
	const op = "extractor.extract"

	if len(threadText) < MinThreadLength {
		return nil, fault.New(fault.KindValidation, op,
			"Slack thread content is required and must be at least %d characters long", MinThreadLength)
	}
	if e.llm == nil {
		return nil, fault.New(fault.KindConfiguration, op, "generative model is not configured").
			WithHint("set GEMINI_API_KEY or ANTHROPIC_API_KEY")
	}

	e.logger.Info("extracting estimation", "thread_len", len(threadText))

	raw, err := e.llm.Generate(ctx, BuildPrompt(threadText))
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, op, err, "AI model call failed")
	}

	result, err := ParseResponse(raw)
	if err != nil {
		e.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return nil, err
	}

	e.logger.Info("extraction complete",
		"fund_name", result.FundName.String(),
		"low_confidence", result.LowConfidence(),
	)
	return result, nil
}
