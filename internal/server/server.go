// Package server exposes the session engine to the UI shell over HTTP. The
// shell renders state and issues commands; all session logic stays behind
// this boundary.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/recommend"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/session"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/stream"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/timer"
)

// Backend is the recommendation service surface the server depends on:
// the exercise stream plus the completion log/undo calls.
type Backend interface {
	Stream(ctx context.Context, params recommend.Params) (<-chan stream.Event, error)
	LogCompletion(ctx context.Context, ex models.ExerciseRecord) (string, error)
	DeleteCompletion(ctx context.Context, remoteID string) error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   *session.Store
	timer   *timer.Timer
	backend Backend
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a Server with all routes configured. The timer's phase-done
// callback must already be wired to the store (see NewEngine in cmd).
func New(store *session.Store, tm *timer.Timer, backend Backend, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:   store,
		timer:   tm,
		backend: backend,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Get("/session", s.handleGetSession)
		r.Post("/session/refresh", s.handleRefresh)
		r.Post("/session/cursor", s.handleSetCursor)
		r.Post("/session/exercises/{id}/sets/{set}/toggle", s.handleToggleSet)
		r.Post("/session/exercises/{id}/adjustments", s.handleAdjustments)
		r.Post("/session/exercises/{id}/complete", s.handleComplete)
		r.Post("/session/exercises/{id}/uncomplete", s.handleUncomplete)

		r.Get("/timer", s.handleTimerStatus)
		r.Post("/timer/toggle", s.handleTimerToggle)
		r.Post("/timer/reset", s.handleTimerReset)
	})
}

// syncTimer reloads the countdown for the exercise under the cursor.
// Exercises without a countdown (reps type, or none at all) leave the timer
// idle and empty.
func (s *Server) syncTimer() {
	ex, ok := s.store.Current()
	if !ok {
		s.timer.Load(nil)
		return
	}
	s.timer.Load(timer.BuildPhases(ex))
}
