package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/estimator/internal/processor"
)

// extractRequest accepts the legacy slackThread/slackLink names too.
type extractRequest struct {
	ThreadText  string `json:"threadText"`
	Permalink   string `json:"permalink"`
	SlackThread string `json:"slackThread"`
	SlackLink   string `json:"slackLink"`
}

func (r extractRequest) toRequest() processor.Request {
	req := processor.Request{ThreadText: r.ThreadText, Permalink: r.Permalink}
	if req.ThreadText == "" {
		req.ThreadText = r.SlackThread
	}
	if req.Permalink == "" {
		req.Permalink = r.SlackLink
	}
	return req
}

// extract handles POST /api/extract
func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON", Details: err.Error()})
		return
	}

	out, err := s.deps.Extractor.Extract(r.Context(), req.toRequest())
	if err != nil {
		s.writeFault(w, err, "Failed to extract data from Slack thread", extractStatus)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
