package processor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/estimator/internal/extractor"
	"github.com/MikeSquared-Agency/estimator/internal/fault"
	"github.com/MikeSquared-Agency/estimator/internal/hermes"
	"github.com/MikeSquared-Agency/estimator/internal/slack"
	"github.com/MikeSquared-Agency/estimator/internal/store"
)

// DefaultTimeout bounds one triggered extraction.
const DefaultTimeout = 60 * time.Second

// ThreadSource fetches Slack threads.
type ThreadSource interface {
	FetchThread(ctx context.Context, channelID, threadTS string) ([]slack.ThreadMessage, error)
	FetchPermalink(ctx context.Context, link string) ([]slack.ThreadMessage, slack.ThreadReference, error)
	GetPermalink(ctx context.Context, channelID, messageTS string) (string, error)
}

// Engine turns thread text into an extraction result.
type Engine interface {
	Extract(ctx context.Context, threadText string) (*extractor.Result, error)
}

// RecordCreator saves estimations.
type RecordCreator interface {
	Create(ctx context.Context, in store.NewEstimation) (*store.Estimation, error)
	FindBySlackLink(ctx context.Context, link string) (*store.Estimation, error)
}

// Replier posts threaded replies back to Slack.
type Replier interface {
	PostExtractionSummary(ctx context.Context, channel, threadTS string, result *extractor.Result, recordID string) (string, error)
	PostThread(ctx context.Context, channel, threadTS, text string) error
}

// Publisher emits events on the message bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor runs extractions, either on request or from a reaction trigger.
type Processor struct {
	threads ThreadSource
	engine  Engine
	records RecordCreator
	replier Replier
	bus     Publisher
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Processor. replier and bus may be nil.
func New(threads ThreadSource, engine Engine, records RecordCreator, replier Replier, bus Publisher, timeout time.Duration, logger *slog.Logger) *Processor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Processor{
		threads: threads,
		engine:  engine,
		records: records,
		replier: replier,
		bus:     bus,
		timeout: timeout,
		logger:  logger,
	}
}

// Request is an interactive extraction. Permalink wins over ThreadText when
// both are set.
type Request struct {
	ThreadText string
	Permalink  string
}

// Extraction is returned for human review before saving.
type Extraction struct {
	*extractor.Result
	SlackLink *string  `json:"slack_link"`
	RawThread string   `json:"raw_thread"`
	Warnings  []string `json:"warnings"`
}

// Extract resolves the thread text for req and runs the engine on it.
func (p *Processor) Extract(ctx context.Context, req Request) (*Extraction, error) {
	text := req.ThreadText
	var link *string

	if permalink := strings.TrimSpace(req.Permalink); permalink != "" {
		msgs, ref, err := p.threads.FetchPermalink(ctx, permalink)
		if err != nil {
			return nil, err
		}
		p.logger.Info("resolved permalink", "channel", ref.ChannelID, "thread_ts", ref.ThreadTS, "messages", len(msgs))
		text = slack.FormatThread(msgs)
		link = &permalink
	}

	result, err := p.engine.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	warnings := result.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	return &Extraction{
		Result:    result,
		SlackLink: link,
		RawThread: text,
		Warnings:  warnings,
	}, nil
}

// HandleExtractionTriggered is the NATS handler for estimator.extraction.triggered.
func (p *Processor) HandleExtractionTriggered(subject string, data []byte) {
	trigger, err := hermes.DecodeTrigger(data)
	if err != nil {
		p.logger.Error("failed to parse extraction trigger", "subject", subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if _, err := p.RunTrigger(ctx, *trigger); err != nil {
		p.logger.Error("triggered extraction failed",
			"channel", trigger.Channel,
			"message_ts", trigger.MessageTS,
			"kind", string(fault.KindOf(err)),
			"error", err,
		)
	}
}

// RunTrigger fetches the thread around the reacted message, extracts it,
// saves the record and, when a replier is set, summarises it in the thread.
// A thread that already has a record is not extracted again.
func (p *Processor) RunTrigger(ctx context.Context, trigger hermes.ExtractionTrigger) (*store.Estimation, error) {
	p.logger.Info("processing extraction trigger",
		"channel", trigger.Channel,
		"message_ts", trigger.MessageTS,
		"user", trigger.User,
	)

	msgs, err := p.threads.FetchThread(ctx, trigger.Channel, trigger.MessageTS)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fault.New(fault.KindEmptyThread, "processor.run_trigger", "no messages found in the thread")
	}
	threadTS := msgs[0].TS
	if threadTS == "" {
		threadTS = trigger.MessageTS
	}
	text := slack.FormatThread(msgs)

	var slackLink *string
	if link, err := p.threads.GetPermalink(ctx, trigger.Channel, threadTS); err != nil {
		p.logger.Warn("could not resolve thread permalink", "channel", trigger.Channel, "thread_ts", threadTS, "error", err)
	} else if link != "" {
		slackLink = &link
		existing, err := p.records.FindBySlackLink(ctx, link)
		if err == nil {
			p.logger.Info("thread already captured", "id", existing.ID, "slack_link", link)
			return existing, nil
		}
		if !fault.Is(err, fault.KindNotFound) {
			p.logger.Warn("duplicate check failed", "slack_link", link, "error", err)
		}
	}

	result, err := p.engine.Extract(ctx, text)
	if err != nil {
		p.notify(ctx, trigger.Channel, threadTS, "I couldn't extract an estimation from this thread: "+userMessage(err))
		return nil, err
	}

	in := store.NewEstimation{
		FundName:     result.FundName.String(),
		Items:        result.Items.Value,
		DSEstimation: result.DSEstimation.Value,
		LEEstimation: result.LEEstimation.Value,
		QAEstimation: result.QAEstimation.Value,
		SlackLink:    slackLink,
		ClickUpLink:  result.ClickUpLink.Value,
		RawThread:    &text,
	}

	record, err := p.records.Create(ctx, in)
	if err != nil {
		p.notify(ctx, trigger.Channel, threadTS, "I couldn't save an estimation for this thread: "+userMessage(err))
		return nil, err
	}

	p.logger.Info("estimation saved",
		"id", record.ID,
		"fund_name", record.FundName,
		"channel", trigger.Channel,
		"thread_ts", threadTS,
	)

	if p.bus != nil {
		if err := p.bus.Publish(hermes.SubjectEstimationCreated, map[string]any{
			"id":         record.ID.String(),
			"fund_name":  record.FundName,
			"channel":    trigger.Channel,
			"thread_ts":  threadTS,
			"created_by": trigger.User,
		}); err != nil {
			p.logger.Error("failed to publish estimation created", "error", err)
		}
	}

	if p.replier != nil {
		if _, err := p.replier.PostExtractionSummary(ctx, trigger.Channel, threadTS, result, record.ID.String()); err != nil {
			p.logger.Error("slack post failed", "channel", trigger.Channel, "error", err)
		}
	}

	return record, nil
}

func (p *Processor) notify(ctx context.Context, channel, threadTS, text string) {
	if p.replier == nil {
		return
	}
	if err := p.replier.PostThread(ctx, channel, threadTS, text); err != nil {
		p.logger.Error("failed to post failure notice", "channel", channel, "error", err)
	}
}

func userMessage(err error) string {
	if fe, ok := fault.As(err); ok {
		return fe.UserMessage()
	}
	return err.Error()
}
