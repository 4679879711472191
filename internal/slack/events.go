package slack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope types sent to the Events API request URL.
const (
	TypeURLVerification = "url_verification"
	TypeEventCallback   = "event_callback"

	EventReactionAdded = "reaction_added"
)

// Envelope is the outer body of an Events API request.
type Envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// EventHeader is decoded first to learn the inner event type.
type EventHeader struct {
	Type string `json:"type"`
}

// ReactionAddedEvent is the inner event for reaction_added.
type ReactionAddedEvent struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	Reaction string `json:"reaction"`
	Item     struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		TS      string `json:"ts"`
	} `json:"item"`
	ItemUser string `json:"item_user,omitempty"`
	EventTS  string `json:"event_ts,omitempty"`
}

// ParseEnvelope decodes an Events API body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	return &env, nil
}

// InnerType reports the type of the wrapped event, or "" when absent.
func (e *Envelope) InnerType() string {
	if len(e.Event) == 0 {
		return ""
	}
	var h EventHeader
	if err := json.Unmarshal(e.Event, &h); err != nil {
		return ""
	}
	return h.Type
}

// ReactionAdded decodes the wrapped event as reaction_added.
func (e *Envelope) ReactionAdded() (*ReactionAddedEvent, error) {
	var evt ReactionAddedEvent
	if err := json.Unmarshal(e.Event, &evt); err != nil {
		return nil, fmt.Errorf("parse reaction_added: %w", err)
	}
	evt.Reaction = CleanEmoji(evt.Reaction)
	return &evt, nil
}

// CleanEmoji strips surrounding colons, so ":eyes:" and "eyes" compare equal.
func CleanEmoji(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > 2 && name[0] == ':' && name[len(name)-1] == ':' {
		return name[1 : len(name)-1]
	}
	return name
}
