package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/estimator/internal/config"
	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

const defaultAPIBase = "https://slack.com/api"

// RequiredScopes are the bot scopes needed to read threads in every kind of
// conversation the tool is used in.
const RequiredScopes = "channels:history, groups:history, im:history, mpim:history, channels:read, groups:read"

const repliesPageSize = 200

// ThreadMessage is one message of a fetched thread.
type ThreadMessage struct {
	User string
	Text string
	TS   string
}

// Client reads conversations with a bot token.
type Client struct {
	token   string
	client  *http.Client
	apiBase string
	logger  *slog.Logger
}

func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		apiBase: defaultAPIBase,
		logger:  logger,
	}
}

type repliesResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Needed   string `json:"needed,omitempty"`
	Messages []struct {
		User     string `json:"user"`
		Username string `json:"username"`
		BotID    string `json:"bot_id"`
		Text     string `json:"text"`
		TS       string `json:"ts"`
	} `json:"messages"`
	HasMore          bool `json:"has_more"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// FetchThread returns the parent message and every reply of the thread
// anchored at threadTS, in the order Slack returns them.
func (c *Client) FetchThread(ctx context.Context, channelID, threadTS string) ([]ThreadMessage, error) {
	const op = "slack.fetch_thread"

	if config.IsPlaceholder(c.token) {
		return nil, fault.New(fault.KindConfiguration, op, "Slack bot token is not configured").
			WithHint("set SLACK_BOT_TOKEN in .env.local")
	}

	var messages []ThreadMessage
	cursor := ""
	for {
		page, err := c.repliesPage(ctx, channelID, threadTS, cursor)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Messages {
			user := m.User
			if user == "" {
				user = m.Username
			}
			if user == "" {
				user = m.BotID
			}
			messages = append(messages, ThreadMessage{User: user, Text: m.Text, TS: m.TS})
		}
		cursor = page.ResponseMetadata.NextCursor
		if !page.HasMore || cursor == "" {
			break
		}
	}

	if len(messages) == 0 {
		return nil, fault.New(fault.KindEmptyThread, op, "no messages found in the thread")
	}

	c.logger.Info("fetched slack thread", "channel", channelID, "thread_ts", threadTS, "messages", len(messages))
	return messages, nil
}

func (c *Client) repliesPage(ctx context.Context, channelID, threadTS, cursor string) (*repliesResponse, error) {
	const op = "slack.fetch_thread"

	q := url.Values{}
	q.Set("channel", channelID)
	q.Set("ts", threadTS)
	q.Set("limit", fmt.Sprint(repliesPageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/conversations.replies?"+q.Encode(), nil)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, op, err, "failed to build Slack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, op, err, "failed to reach Slack")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstream, op, err, "failed to read Slack response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fault.New(fault.KindUpstream, op, "Slack returned HTTP %d", resp.StatusCode).
			WithDetail(string(body))
	}

	var page repliesResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fault.Wrap(fault.KindUpstream, op, err, "failed to parse Slack response").
			WithDetail(string(body))
	}
	if !page.OK {
		return nil, apiError(op, page.Error, page.Needed)
	}
	return &page, nil
}

// apiError translates a Slack error code into the domain taxonomy.
func apiError(op, code, needed string) *fault.Error {
	switch code {
	case "missing_scope":
		hint := "add the following scopes: " + RequiredScopes
		if needed != "" {
			hint = fmt.Sprintf("missing %s; add the following scopes: %s", needed, RequiredScopes)
		}
		return fault.New(fault.KindPermission, op, "Slack bot is missing required permissions").WithHint(hint)
	case "channel_not_found":
		return fault.New(fault.KindNotFound, op, "channel not found").
			WithHint("make sure the bot has been added to the channel")
	case "thread_not_found":
		return fault.New(fault.KindNotFound, op, "thread not found").
			WithHint("check the link points at an existing message")
	case "invalid_auth", "not_authed", "token_revoked", "token_expired", "account_inactive":
		return fault.New(fault.KindAuthentication, op, "invalid Slack bot token").
			WithHint("check SLACK_BOT_TOKEN in .env.local").WithDetail(code)
	default:
		return fault.New(fault.KindUpstream, op, "Slack API error: %s", code).WithDetail(code)
	}
}

// FetchPermalink parses a message link and fetches the thread it belongs to.
func (c *Client) FetchPermalink(ctx context.Context, link string) ([]ThreadMessage, ThreadReference, error) {
	ref, ok := ParsePermalink(link)
	if !ok {
		return nil, ThreadReference{}, fault.New(fault.KindValidation, "slack.fetch_permalink",
			"invalid Slack URL").WithHint("provide a valid Slack thread link")
	}
	msgs, err := c.FetchThread(ctx, ref.ChannelID, ref.ThreadTS)
	if err != nil {
		return nil, ref, err
	}
	return msgs, ref, nil
}

// FormatThread renders messages as "user: text" blocks separated by blank
// lines, the layout the extraction prompt expects.
func FormatThread(messages []ThreadMessage) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		user := m.User
		if user == "" {
			user = "Unknown"
		}
		parts[i] = user + ": " + m.Text
	}
	return strings.Join(parts, "\n\n")
}

// GetPermalink asks Slack for the web link of a message.
func (c *Client) GetPermalink(ctx context.Context, channelID, messageTS string) (string, error) {
	const op = "slack.get_permalink"

	if config.IsPlaceholder(c.token) {
		return "", fault.New(fault.KindConfiguration, op, "Slack bot token is not configured").
			WithHint("set SLACK_BOT_TOKEN in .env.local")
	}

	q := url.Values{}
	q.Set("channel", channelID)
	q.Set("message_ts", messageTS)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/chat.getPermalink?"+q.Encode(), nil)
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, op, err, "failed to build Slack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, op, err, "failed to reach Slack")
	}
	defer resp.Body.Close()

	var out struct {
		OK        bool   `json:"ok"`
		Error     string `json:"error"`
		Permalink string `json:"permalink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fault.Wrap(fault.KindUpstream, op, err, "failed to parse Slack response")
	}
	if !out.OK {
		return "", apiError(op, out.Error, "")
	}
	return out.Permalink, nil
}
