package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/estimator/internal/fault"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// extractStatus maps fault kinds on the extraction path. Problems with the
// input or with Slack access are the caller's to fix, so they are 400.
func extractStatus(kind fault.Kind) int {
	switch kind {
	case fault.KindValidation, fault.KindEmptyThread, fault.KindPermission,
		fault.KindNotFound, fault.KindAuthentication:
		return http.StatusBadRequest
	case fault.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func recordStatus(kind fault.Kind) int {
	switch kind {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeFault renders err. Domain errors carry their own message; anything
// else is reported under fallback with the error text as details.
func (s *Server) writeFault(w http.ResponseWriter, err error, fallback string, statusFor func(fault.Kind) int) {
	status := statusFor(fault.KindOf(err))
	body := errorBody{Error: fallback, Details: err.Error()}
	if fe, ok := fault.As(err); ok {
		body = errorBody{Error: fe.UserMessage(), Details: fe.Detail}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(fallback, "kind", string(fault.KindOf(err)), "error", err)
	} else {
		s.logger.Warn(fallback, "kind", string(fault.KindOf(err)), "error", err)
	}
	writeJSON(w, status, body)
}
