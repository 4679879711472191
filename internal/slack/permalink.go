package slack

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	channelSegment = regexp.MustCompile(`^[CDG][A-Z0-9]+$`)
	messageSegment = regexp.MustCompile(`^p(\d{16,})$`)
	threadStamp    = regexp.MustCompile(`^\d{10}\.\d+$`)
)

// ThreadReference locates a thread, and optionally one message in it.
type ThreadReference struct {
	ChannelID string
	// ThreadTS is the anchor (root message) timestamp used to fetch replies.
	ThreadTS string
	// MessageTS is the message the link points at; empty when the link
	// only names the thread.
	MessageTS string
}

// ParsePermalink decodes a Slack message link such as
//
//	https://acme.slack.com/archives/C02SGCP7A1M/p1759458090303149?thread_ts=1759458000.000100
//
// A link to a reply carries both the reply's p-timestamp and the thread_ts of
// its root; a link to a root carries only the p-timestamp. Links without a
// channel or without any timestamp are rejected. A thread_ts that is not a
// seconds.fraction timestamp is ignored.
func ParsePermalink(raw string) (ThreadReference, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ThreadReference{}, false
	}

	var channel, messageTS string
	for _, seg := range strings.Split(u.Path, "/") {
		if channel == "" && channelSegment.MatchString(seg) {
			channel = seg
			continue
		}
		if messageTS == "" {
			if m := messageSegment.FindStringSubmatch(seg); m != nil {
				messageTS = m[1][:10] + "." + m[1][10:]
			}
		}
	}
	if channel == "" {
		return ThreadReference{}, false
	}

	threadTS := u.Query().Get("thread_ts")
	if !threadStamp.MatchString(threadTS) {
		threadTS = ""
	}

	switch {
	case threadTS != "" && messageTS != "":
		return ThreadReference{ChannelID: channel, ThreadTS: threadTS, MessageTS: messageTS}, true
	case messageTS != "":
		return ThreadReference{ChannelID: channel, ThreadTS: messageTS, MessageTS: messageTS}, true
	case threadTS != "":
		return ThreadReference{ChannelID: channel, ThreadTS: threadTS}, true
	default:
		return ThreadReference{}, false
	}
}
