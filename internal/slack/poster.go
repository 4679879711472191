package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/estimator/internal/extractor"
	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

// Poster writes messages back into Slack threads.
type Poster struct {
	token   string
	client  *http.Client
	logger  *slog.Logger
	apiBase string
}

func NewPoster(token string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: defaultAPIBase,
		logger:  logger,
	}
}

// PostExtractionSummary replies in the thread with what was extracted and
// saved. Returns the reply's ts.
func (p *Poster) PostExtractionSummary(ctx context.Context, channel, threadTS string, result *extractor.Result, recordID string) (string, error) {
	text := formatExtractionMessage(result, recordID)

	return p.post(ctx, map[string]any{
		"channel":   channel,
		"thread_ts": threadTS,
		"text":      text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{"type": "mrkdwn", "text": text},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{"type": "mrkdwn", "text": "Confidence: :large_green_circle: high | :large_yellow_circle: medium | :red_circle: low"},
				},
			},
		},
	})
}

// PostThread posts a plain threaded reply.
func (p *Poster) PostThread(ctx context.Context, channel, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	const op = "slack.post_message"

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, op, err, "failed to build Slack request")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, op, err, "failed to reach Slack")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, op, err, "failed to read Slack response")
	}

	var slackResp struct {
		OK     bool   `json:"ok"`
		TS     string `json:"ts"`
		Error  string `json:"error,omitempty"`
		Needed string `json:"needed,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fault.Wrap(fault.KindUpstream, op, err, "failed to parse Slack response").WithDetail(string(respBody))
	}
	if !slackResp.OK {
		return "", apiError(op, slackResp.Error, slackResp.Needed)
	}

	p.logger.Info("posted to slack", "channel", payload["channel"], "ts", slackResp.TS)
	return slackResp.TS, nil
}

var fieldLabels = map[string]string{
	"fund_name":     "Fund",
	"items":         "Items",
	"ds_estimation": "DS",
	"le_estimation": "LE",
	"qa_estimation": "QA",
	"clickup_link":  "ClickUp",
}

func confidenceEmoji(f extractor.Field) string {
	switch f.Level() {
	case "high":
		return ":large_green_circle:"
	case "medium":
		return ":large_yellow_circle:"
	default:
		return ":red_circle:"
	}
}

func formatExtractionMessage(result *extractor.Result, recordID string) string {
	var sb strings.Builder

	fund := extractor.CleanFundName(result.FundName.String())
	if fund == "" {
		fund = "_unknown fund_"
	}
	fmt.Fprintf(&sb, "*Estimation captured:* %s\n", fund)

	for _, name := range extractor.FieldNames[1:] {
		f, _ := result.Named(name)
		value := f.String()
		if value == "" {
			value = "_not found_"
		}
		fmt.Fprintf(&sb, "%s *%s:* %s (%.2f)\n", confidenceEmoji(f), fieldLabels[name], value, f.Confidence)
	}

	for _, w := range result.Warnings() {
		fmt.Fprintf(&sb, ":warning: %s\n", w)
	}
	if low := result.LowConfidence(); len(low) > 0 {
		fmt.Fprintf(&sb, "_Review before relying on: %s_\n", strings.Join(low, ", "))
	}
	if recordID != "" {
		fmt.Fprintf(&sb, "Record: `%s`", recordID)
	}
	return strings.TrimRight(sb.String(), "\n")
}
