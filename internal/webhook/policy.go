package webhook

import (
	"strings"

	"github.com/MikeSquared-Agency/estimator/internal/slack"
)

// Policy decides which reactions start an extraction.
type Policy struct {
	authorized map[string]struct{}
	emoji      string
}

// NewPolicy builds a policy from an allow-list of Slack user IDs and the
// trigger emoji name. Colons around the emoji are ignored.
func NewPolicy(users []string, emoji string) *Policy {
	set := make(map[string]struct{}, len(users))
	for _, u := range users {
		u = strings.TrimSpace(u)
		if u != "" {
			set[u] = struct{}{}
		}
	}
	return &Policy{authorized: set, emoji: slack.CleanEmoji(emoji)}
}

// Authorized reports whether user is on the allow-list. An empty list
// authorises nobody.
func (p *Policy) Authorized(user string) bool {
	_, ok := p.authorized[user]
	return ok
}

// Triggers reports whether the reaction name matches the trigger emoji.
func (p *Policy) Triggers(reaction string) bool {
	return p.emoji != "" && slack.CleanEmoji(reaction) == p.emoji
}

// Users returns the number of authorised users.
func (p *Policy) Users() int { return len(p.authorized) }
