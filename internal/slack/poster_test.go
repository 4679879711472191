package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/estimator/internal/extractor"
	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

func strPtr(s string) *string { return &s }

func sampleResult() *extractor.Result {
	return &extractor.Result{
		FundName:     extractor.Field{Value: strPtr("ABC Fund - New Digitization"), Confidence: 0.95},
		Items:        extractor.Field{Confidence: 0.1},
		DSEstimation: extractor.Field{Value: strPtr("2h for annotation"), Confidence: 0.9},
		LEEstimation: extractor.Field{Value: strPtr("1h"), Confidence: 0.6},
		QAEstimation: extractor.Field{Value: strPtr("4-6 hours"), Confidence: 0.85},
		ClickUpLink:  extractor.Field{Value: strPtr("https://google.com"), Confidence: 0.7},
	}
}

func TestFormatExtractionMessage(t *testing.T) {
	msg := formatExtractionMessage(sampleResult(), "rec-1")

	checks := []string{
		"*Estimation captured:* ABC Fund\n",
		":large_green_circle: *DS:* 2h for annotation (0.90)",
		":large_yellow_circle: *LE:* 1h (0.60)",
		":red_circle: *Items:* _not found_ (0.10)",
		"doesn't look like a valid ClickUp link",
		"Review before relying on: items",
		"Record: `rec-1`",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("expected message to contain %q, got:\n%s", check, msg)
		}
	}
}

func TestFormatExtractionMessage_UnknownFund(t *testing.T) {
	msg := formatExtractionMessage(&extractor.Result{}, "")

	if !strings.Contains(msg, "_unknown fund_") {
		t.Errorf("expected unknown fund marker, got %q", msg)
	}
	if strings.Contains(msg, "Record:") {
		t.Errorf("expected no record line, got %q", msg)
	}
}

func TestPostExtractionSummary_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer xoxb-test" {
			t.Errorf("expected Bearer xoxb-test, got %q", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		json.Unmarshal(body, &payload)

		if payload["channel"] != "C123" {
			t.Errorf("expected channel C123, got %v", payload["channel"])
		}
		if payload["thread_ts"] != "1759458090.303149" {
			t.Errorf("expected thread_ts, got %v", payload["thread_ts"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"ts": "1759458100.000200",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", discardLogger())
	p.apiBase = server.URL

	ts, err := p.PostExtractionSummary(context.Background(), "C123", "1759458090.303149", sampleResult(), "rec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != "1759458100.000200" {
		t.Errorf("expected reply ts, got %q", ts)
	}
}

func TestPostThread_SlackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": "channel_not_found",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", discardLogger())
	p.apiBase = server.URL

	err := p.PostThread(context.Background(), "C123", "1.2", "hello")
	if !fault.Is(err, fault.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
