package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/estimator/internal/store"
)

// listEstimations handles GET /api/estimations?search=&filter=
func (s *Server) listEstimations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.deps.Records.List(r.Context(), store.ListOptions{
		Search: q.Get("search"),
		Filter: store.ParseFilter(q.Get("filter")),
	})
	if err != nil {
		s.writeFault(w, err, "Failed to fetch estimations", recordStatus)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) getEstimation(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFault(w, err, "Failed to fetch estimation", recordStatus)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) createEstimation(w http.ResponseWriter, r *http.Request) {
	var in store.NewEstimation
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON", Details: err.Error()})
		return
	}

	e, err := s.deps.Records.Create(r.Context(), in)
	if err != nil {
		s.writeFault(w, err, "Failed to create estimation", recordStatus)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// updateEstimation handles PATCH /api/estimations/{id}. Only keys present in
// the body are written.
func (s *Server) updateEstimation(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON", Details: err.Error()})
		return
	}

	e, err := s.deps.Records.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeFault(w, err, "Failed to update estimation", recordStatus)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteEstimation(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Records.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeFault(w, err, "Failed to delete estimation", recordStatus)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodePatch(r *http.Request) (store.Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}

	patch := make(store.Patch, len(raw))
	for key, value := range raw {
		var v *string
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("%s must be a string or null", key)
		}
		patch[key] = v
	}
	return patch, nil
}
