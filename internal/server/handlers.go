package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/recommend"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sessionResponse is the snapshot the shell renders from.
type sessionResponse struct {
	models.SessionState
	Fetching     bool   `json:"fetching"`
	FetchError   string `json:"fetch_error,omitempty"`
	AllCompleted bool   `json:"all_completed"`
}

func (s *Server) sessionSnapshot() sessionResponse {
	resp := sessionResponse{
		SessionState: s.store.Snapshot(),
		Fetching:     s.store.Fetching(),
		AllCompleted: s.store.AllCompleted(),
	}
	if err := s.store.FetchErr(); err != nil {
		resp.FetchError = err.Error()
	}
	return resp
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionSnapshot())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var params recommend.Params
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}

	// The stream outlives this request; detach it from the request context.
	s.store.Refresh(context.WithoutCancel(r.Context()), s.backend, params)
	s.timer.Load(nil)
	writeJSON(w, http.StatusAccepted, s.sessionSnapshot())
}

func (s *Server) handleSetCursor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.store.SetCursor(r.Context(), req.Index)
	s.syncTimer()
	writeJSON(w, http.StatusOK, s.sessionSnapshot())
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	setIndex, err := strconv.Atoi(chi.URLParam(r, "set"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set index"})
		return
	}

	s.store.ToggleSet(r.Context(), id, setIndex)
	writeJSON(w, http.StatusOK, s.sessionSnapshot())
}

func (s *Server) handleAdjustments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Reps     []int     `json:"reps,omitempty"`
		WeightKg []float64 `json:"weight_kg,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if req.Reps != nil {
		s.store.SetAdjustedReps(r.Context(), id, req.Reps)
	}
	if req.WeightKg != nil {
		s.store.SetAdjustedWeight(r.Context(), id, req.WeightKg)
	}
	writeJSON(w, http.StatusOK, s.sessionSnapshot())
}

// handleComplete logs the completion with the backend first; the session
// only transitions after the remote call succeeds. A backend failure leaves
// the exercise exactly as it was.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap := s.store.Snapshot()
	ex, ok := snap.Exercise(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown exercise"})
		return
	}
	if _, done := snap.CompletedExercises[id]; done {
		writeJSON(w, http.StatusOK, s.sessionSnapshot())
		return
	}

	remoteID, err := s.backend.LogCompletion(r.Context(), ex)
	if err != nil {
		s.log.Error("logging completion failed", "exercise", ex.Name, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not log completion: " + err.Error()})
		return
	}

	s.store.CompleteExercise(r.Context(), id, remoteID)
	writeJSON(w, http.StatusOK, s.sessionSnapshot())
}

// handleUncomplete mirrors handleComplete: the remote delete must succeed
// before the local completion is removed.
func (s *Server) handleUncomplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	remoteID, ok := s.store.RemoteCompletionID(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise is not completed"})
		return
	}

	if err := s.backend.DeleteCompletion(r.Context(), remoteID); err != nil {
		s.log.Error("deleting completion failed", "exercise_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not undo completion: " + err.Error()})
		return
	}

	s.store.UncompleteExercise(r.Context(), id)
	writeJSON(w, http.StatusOK, s.sessionSnapshot())
}

func (s *Server) handleTimerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.timer.Status())
}

func (s *Server) handleTimerToggle(w http.ResponseWriter, r *http.Request) {
	s.timer.Toggle()
	writeJSON(w, http.StatusOK, s.timer.Status())
}

func (s *Server) handleTimerReset(w http.ResponseWriter, r *http.Request) {
	s.timer.Reset()
	writeJSON(w, http.StatusOK, s.timer.Status())
}
