package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectExtractionTriggered carries reactions that passed the trigger policy.
const SubjectExtractionTriggered = "estimator.extraction.triggered"

// SubjectEstimationCreated announces records saved by triggered extraction.
const SubjectEstimationCreated = "estimator.estimation.created"

// ExtractionTrigger asks for the thread containing MessageTS to be extracted.
type ExtractionTrigger struct {
	Channel     string `json:"channel"`
	MessageTS   string `json:"message_ts"`
	User        string `json:"user"`
	Reaction    string `json:"reaction"`
	EventID     string `json:"event_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("estimator"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Connected reports whether the underlying connection is up.
func (c *Client) Connected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Ping fails when the connection is down.
func (c *Client) Ping(context.Context) error {
	if !c.Connected() {
		return fmt.Errorf("nats connection is %s", c.status())
	}
	return nil
}

func (c *Client) status() string {
	if c.conn == nil {
		return "closed"
	}
	return c.conn.Status().String()
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}

// DecodeTrigger parses an ExtractionTrigger payload.
func DecodeTrigger(data []byte) (*ExtractionTrigger, error) {
	var t ExtractionTrigger
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse extraction trigger: %w", err)
	}
	if t.Channel == "" || t.MessageTS == "" {
		return nil, fmt.Errorf("extraction trigger missing channel or message_ts")
	}
	return &t, nil
}
