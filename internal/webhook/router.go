package webhook

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/estimator/internal/hermes"
	"github.com/MikeSquared-Agency/estimator/internal/slack"
)

// Slack request headers.
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

// Response is what the HTTP layer should write back to Slack.
type Response struct {
	Status int
	Body   any
}

func ack() Response {
	return Response{Status: http.StatusOK, Body: map[string]bool{"ok": true}}
}

// Router turns verified Events API deliveries into extraction triggers.
// Every outcome except a signature failure is acknowledged with 200 so
// Slack does not retry.
type Router struct {
	verifier   *slack.Verifier
	policy     *Policy
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewRouter(verifier *slack.Verifier, policy *Policy, dispatcher Dispatcher, logger *slog.Logger) *Router {
	return &Router{
		verifier:   verifier,
		policy:     policy,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes one delivery. body must be the exact bytes received.
func (r *Router) Handle(ctx context.Context, body []byte, headers http.Header) Response {
	if !r.verifier.Verify(body, headers.Get(HeaderTimestamp), headers.Get(HeaderSignature)) {
		return Response{Status: http.StatusUnauthorized, Body: map[string]string{"error": "invalid signature"}}
	}

	env, err := slack.ParseEnvelope(body)
	if err != nil {
		r.logger.Error("undecodable event body", "error", err)
		return ack()
	}

	switch env.Type {
	case slack.TypeURLVerification:
		return Response{Status: http.StatusOK, Body: map[string]string{"challenge": env.Challenge}}
	case slack.TypeEventCallback:
		if env.InnerType() == slack.EventReactionAdded {
			r.handleReaction(ctx, env)
		}
	default:
		r.logger.Debug("ignoring envelope", "type", env.Type)
	}

	return ack()
}

func (r *Router) handleReaction(ctx context.Context, env *slack.Envelope) {
	evt, err := env.ReactionAdded()
	if err != nil {
		r.logger.Error("undecodable reaction event", "event_id", env.EventID, "error", err)
		return
	}

	if !r.policy.Authorized(evt.User) {
		r.logger.Debug("reaction from unauthorised user", "user", evt.User)
		return
	}
	if !r.policy.Triggers(evt.Reaction) {
		r.logger.Debug("reaction is not the trigger emoji", "reaction", evt.Reaction)
		return
	}
	if evt.Item.Channel == "" || evt.Item.TS == "" {
		r.logger.Warn("reaction without a message item", "event_id", env.EventID, "item_type", evt.Item.Type)
		return
	}

	trigger := hermes.ExtractionTrigger{
		Channel:   evt.Item.Channel,
		MessageTS: evt.Item.TS,
		User:      evt.User,
		Reaction:  evt.Reaction,
		EventID:   env.EventID,
	}
	if err := r.dispatcher.Dispatch(ctx, trigger); err != nil {
		r.logger.Error("failed to dispatch extraction",
			"channel", trigger.Channel,
			"message_ts", trigger.MessageTS,
			"error", err,
		)
	}
}
