package api

import (
	"io"
	"net/http"
)

// slackEvents handles POST /api/slack/events. The body is passed through
// unparsed because the signature covers the exact bytes. A body that cannot
// be read in full cannot be verified, so it is rejected like a bad signature.
func (s *Server) slackEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Warn("slack event body unreadable", "error", err)
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid signature"})
		return
	}

	resp := s.deps.Events.Handle(r.Context(), body, r.Header)
	writeJSON(w, resp.Status, resp.Body)
}
