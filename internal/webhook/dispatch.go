package webhook

import (
	"context"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/estimator/internal/hermes"
)

// Dispatcher hands an accepted trigger to whatever runs the extraction.
// Dispatch must not block on the extraction itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, trigger hermes.ExtractionTrigger) error
}

// LogDispatcher records triggers without acting on them. Used when no
// message bus is configured.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Dispatch(_ context.Context, trigger hermes.ExtractionTrigger) error {
	d.Logger.Info("extraction triggered",
		"channel", trigger.Channel,
		"message_ts", trigger.MessageTS,
		"user", trigger.User,
		"reaction", trigger.Reaction,
	)
	return nil
}

// Publisher is the subset of hermes.Client used for dispatch.
type Publisher interface {
	Publish(subject string, data any) error
}

// BusDispatcher publishes triggers on the extraction subject.
type BusDispatcher struct {
	bus    Publisher
	logger *slog.Logger
}

func NewBusDispatcher(bus Publisher, logger *slog.Logger) *BusDispatcher {
	return &BusDispatcher{bus: bus, logger: logger}
}

func (d *BusDispatcher) Dispatch(_ context.Context, trigger hermes.ExtractionTrigger) error {
	if trigger.TriggeredAt == "" {
		trigger.TriggeredAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := d.bus.Publish(hermes.SubjectExtractionTriggered, trigger); err != nil {
		return err
	}
	d.logger.Info("extraction dispatched",
		"subject", hermes.SubjectExtractionTriggered,
		"channel", trigger.Channel,
		"message_ts", trigger.MessageTS,
	)
	return nil
}
