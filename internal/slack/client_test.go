package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("xoxb-test", discardLogger())
	c.apiBase = server.URL
	return c
}

func TestFetchThread_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.replies" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer xoxb-test" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		q := r.URL.Query()
		if q.Get("channel") != "C123" || q.Get("ts") != "1759458090.303149" {
			t.Errorf("unexpected query %v", q)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"messages": []map[string]any{
				{"user": "U1", "text": "estimates needed for ABC Fund", "ts": "1759458090.303149"},
				{"user": "U2", "text": "DS: 2h", "ts": "1759458100.000100"},
				{"bot_id": "B1", "text": "reminder", "ts": "1759458200.000100"},
			},
			"has_more": false,
		})
	})

	msgs, err := c.FetchThread(context.Background(), "C123", "1759458090.303149")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []ThreadMessage{
		{User: "U1", Text: "estimates needed for ABC Fund", TS: "1759458090.303149"},
		{User: "U2", Text: "DS: 2h", TS: "1759458100.000100"},
		{User: "B1", Text: "reminder", TS: "1759458200.000100"},
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchThread_Paginates(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("cursor") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"ok":                true,
				"messages":          []map[string]any{{"user": "U1", "text": "first", "ts": "1.1"}},
				"has_more":          true,
				"response_metadata": map[string]any{"next_cursor": "page2"},
			})
		case "page2":
			json.NewEncoder(w).Encode(map[string]any{
				"ok":                true,
				"messages":          []map[string]any{{"user": "U2", "text": "second", "ts": "1.2"}},
				"has_more":          false,
				"response_metadata": map[string]any{"next_cursor": ""},
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})

	msgs, err := c.FetchThread(context.Background(), "C1", "1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if len(msgs) != 2 || msgs[1].Text != "second" {
		t.Errorf("unexpected messages %+v", msgs)
	}
}

func TestFetchThread_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind fault.Kind
		wantHint string
	}{
		{"missing scope", 200, `{"ok":false,"error":"missing_scope","needed":"channels:history"}`, fault.KindPermission, "groups:history"},
		{"channel not found", 200, `{"ok":false,"error":"channel_not_found"}`, fault.KindNotFound, "added to the channel"},
		{"invalid auth", 200, `{"ok":false,"error":"invalid_auth"}`, fault.KindAuthentication, "SLACK_BOT_TOKEN"},
		{"token revoked", 200, `{"ok":false,"error":"token_revoked"}`, fault.KindAuthentication, ""},
		{"empty thread", 200, `{"ok":true,"messages":[]}`, fault.KindEmptyThread, ""},
		{"rate limited", 429, `{"ok":false,"error":"ratelimited"}`, fault.KindUpstream, ""},
		{"garbage body", 200, `<html>oops</html>`, fault.KindUpstream, ""},
		{"other api error", 200, `{"ok":false,"error":"fatal_error"}`, fault.KindUpstream, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.FetchThread(context.Background(), "C1", "1.1")
			if got := fault.KindOf(err); got != tt.wantKind {
				t.Fatalf("expected kind %q, got %q (%v)", tt.wantKind, got, err)
			}
			if tt.wantHint != "" && !strings.Contains(err.Error(), tt.wantHint) {
				t.Errorf("expected error to mention %q, got %v", tt.wantHint, err)
			}
		})
	}
}

func TestFetchThread_TransportError(t *testing.T) {
	c := NewClient("xoxb-test", discardLogger())
	c.apiBase = "http://127.0.0.1:1"

	_, err := c.FetchThread(context.Background(), "C1", "1.1")
	if !fault.Is(err, fault.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestFetchThread_NoToken(t *testing.T) {
	for _, token := range []string{"", "your-slack-bot-token-here"} {
		c := NewClient(token, discardLogger())
		c.apiBase = "http://127.0.0.1:1"

		_, err := c.FetchThread(context.Background(), "C1", "1.1")
		if !fault.Is(err, fault.KindConfiguration) {
			t.Errorf("token %q: expected configuration error, got %v", token, err)
		}
	}
}

func TestFetchPermalink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ts") != "1759458090.303149" {
			t.Errorf("expected anchor ts, got %q", r.URL.Query().Get("ts"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":       true,
			"messages": []map[string]any{{"user": "U1", "text": "hello there", "ts": "1759458090.303149"}},
		})
	})

	msgs, ref, err := c.FetchPermalink(context.Background(),
		"https://acme.slack.com/archives/C02SGCP7A1M/p1759458999000200?thread_ts=1759458090.303149")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.MessageTS != "1759458999.000200" {
		t.Errorf("unexpected ref %+v", ref)
	}
	if len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}
}

func TestFetchPermalink_InvalidLink(t *testing.T) {
	c := NewClient("xoxb-test", discardLogger())

	_, _, err := c.FetchPermalink(context.Background(), "https://example.com/not-slack")
	if !fault.Is(err, fault.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormatThread(t *testing.T) {
	got := FormatThread([]ThreadMessage{
		{User: "U1", Text: "estimates needed for ABC Fund"},
		{User: "", Text: "DS: 2h"},
	})
	want := "U1: estimates needed for ABC Fund\n\nUnknown: DS: 2h"
	if got != want {
		t.Errorf("FormatThread() = %q, want %q", got, want)
	}
}

func TestGetPermalink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.getPermalink" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("message_ts") != "1759458090.303149" {
			t.Errorf("unexpected message_ts %q", r.URL.Query().Get("message_ts"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":        true,
			"channel":   "C1",
			"permalink": "https://acme.slack.com/archives/C1/p1759458090303149",
		})
	})

	link, err := c.GetPermalink(context.Background(), "C1", "1759458090.303149")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link != "https://acme.slack.com/archives/C1/p1759458090303149" {
		t.Errorf("unexpected permalink %q", link)
	}
}

func TestGetPermalink_Error(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "message_not_found"})
	})

	if _, err := c.GetPermalink(context.Background(), "C1", "1.2"); !fault.Is(err, fault.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
