// Package session owns the active workout session: the ordered exercise
// list, the cursor, per-set progress, completion bookkeeping, and their
// persistence. The store is the sole writer of session state; every method
// runs under one lock, so callers on any goroutine observe a single
// serialized timeline.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/storage"
)

// Store is the single source of truth for one user's session.
type Store struct {
	mu          sync.Mutex
	state       models.SessionState
	fetching    bool
	fetchErr    error
	fetchGen    int
	cancelFetch context.CancelFunc

	repo   storage.Repository
	userID int
	log    *slog.Logger
}

// NewStore restores the user's session from the repository. A missing blob
// yields an empty session; a corrupt or invariant-violating blob is repaired
// by normalization, and a stale one (older than maxAge, when maxAge > 0) is
// discarded. The store never fails to construct over bad persisted state.
func NewStore(ctx context.Context, repo storage.Repository, userID int, maxAge time.Duration, log *slog.Logger) *Store {
	s := &Store{
		state:  models.NewSessionState(),
		repo:   repo,
		userID: userID,
		log:    log,
	}

	loaded, err := repo.LoadSession(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNoSession):
		// first run
	case err != nil:
		log.Warn("discarding unreadable session state", "user_id", userID, "error", err)
	case maxAge > 0 && !loaded.UpdatedAt.IsZero() && time.Since(loaded.UpdatedAt) > maxAge:
		log.Info("discarding stale session", "user_id", userID, "age", time.Since(loaded.UpdatedAt).String())
	default:
		loaded.Normalize()
		s.state = loaded
	}
	return s
}

// persist serializes the full state. Persistence failures are logged, never
// propagated — the in-memory session stays authoritative for this process.
func (s *Store) persist(ctx context.Context) {
	s.state.UpdatedAt = time.Now().UTC()
	if err := s.repo.SaveSession(context.WithoutCancel(ctx), s.userID, s.state); err != nil {
		s.log.Error("persisting session failed", "user_id", s.userID, "error", err)
	}
}

// StartFetch cancels any in-flight ingestion, clears the session, resets the
// cursor, and marks the store fetching. It returns a generation token that
// the ingestion pipeline passes back on every delivery; deliveries from a
// superseded fetch are discarded. cancel may be nil.
func (s *Store) StartFetch(ctx context.Context, cancel context.CancelFunc) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	s.cancelFetch = cancel
	s.fetchGen++
	s.fetching = true
	s.fetchErr = nil
	s.state = models.NewSessionState()
	s.persist(ctx)
	return s.fetchGen
}

// AppendExercise assigns the record a stable ID and appends it. The cursor
// never moves. Returns the assigned ID; ok is false when gen belongs to a
// superseded fetch and the record was dropped.
func (s *Store) AppendExercise(ctx context.Context, gen int, rec models.ExerciseRecord) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.fetchGen {
		return "", false
	}
	rec.ID = uuid.NewString()
	s.state.Exercises = append(s.state.Exercises, rec)
	s.persist(ctx)
	return rec.ID, true
}

// FinishFetch marks the fetch done and persists. An empty session is a valid
// outcome, not an error.
func (s *Store) FinishFetch(ctx context.Context, gen int, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.fetchGen {
		return
	}
	s.fetching = false
	s.cancelFetch = nil
	if total != len(s.state.Exercises) {
		s.log.Warn("stream total disagrees with appended count",
			"total", total, "appended", len(s.state.Exercises))
	}
	s.persist(ctx)
}

// FailFetch marks the fetch failed, keeping whatever exercises already
// arrived — partial results are never rolled back.
func (s *Store) FailFetch(ctx context.Context, gen int, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.fetchGen {
		return
	}
	s.fetching = false
	s.cancelFetch = nil
	s.fetchErr = reason
	s.log.Error("recommendation fetch failed", "error", reason, "kept", len(s.state.Exercises))
	s.persist(ctx)
}

// CancelFetch stops any in-flight ingestion without clearing state.
// Idempotent.
func (s *Store) CancelFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.fetching = false
	s.fetchGen++
}

// SetCursor clamps index into [0, len-1]. No-op on an empty session.
func (s *Store) SetCursor(ctx context.Context, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Exercises) == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= len(s.state.Exercises) {
		index = len(s.state.Exercises) - 1
	}
	if index == s.state.Cursor {
		return
	}
	s.state.Cursor = index
	s.persist(ctx)
}

// ToggleSet flips membership of setIndex in the exercise's completed-set
// set. Unknown IDs and out-of-range indices are silent no-ops.
func (s *Store) ToggleSet(ctx context.Context, exerciseID string, setIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.state.Exercise(exerciseID)
	if !ok || setIndex < 0 || setIndex >= ex.SetCount() {
		return
	}

	sets := s.state.CompletedSets[exerciseID]
	for i, idx := range sets {
		if idx == setIndex {
			sets = append(sets[:i], sets[i+1:]...)
			if len(sets) == 0 {
				delete(s.state.CompletedSets, exerciseID)
			} else {
				s.state.CompletedSets[exerciseID] = sets
			}
			s.persist(ctx)
			return
		}
	}
	sets = append(sets, setIndex)
	sort.Ints(sets)
	s.state.CompletedSets[exerciseID] = sets
	s.persist(ctx)
}

// SetAdjustedReps overwrites the rep adjustments for a reps-type exercise.
// Calls against other types are no-ops (the adjustment maps only ever hold
// reps-type entries).
func (s *Store) SetAdjustedReps(ctx context.Context, exerciseID string, values []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.state.Exercise(exerciseID)
	if !ok || ex.Type != models.ExerciseReps {
		return
	}
	s.state.AdjustedReps[exerciseID] = append([]int(nil), values...)
	s.persist(ctx)
}

// SetAdjustedWeight overwrites the weight adjustments for a reps-type
// exercise. Same no-op rule as SetAdjustedReps.
func (s *Store) SetAdjustedWeight(ctx context.Context, exerciseID string, values []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.state.Exercise(exerciseID)
	if !ok || ex.Type != models.ExerciseReps {
		return
	}
	s.state.AdjustedWeight[exerciseID] = append([]float64(nil), values...)
	s.persist(ctx)
}

// CompleteExercise records a confirmed completion. The remote call has
// already succeeded by the time this runs — the store does no network I/O.
func (s *Store) CompleteExercise(ctx context.Context, exerciseID, remoteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Exercise(exerciseID); !ok {
		return
	}
	s.state.CompletedExercises[exerciseID] = remoteID
	s.persist(ctx)
}

// UncompleteExercise removes a confirmed completion and its remote record
// ID. Called only after the remote undo succeeded.
func (s *Store) UncompleteExercise(ctx context.Context, exerciseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.CompletedExercises[exerciseID]; !ok {
		return
	}
	delete(s.state.CompletedExercises, exerciseID)
	s.persist(ctx)
}

// RemoteCompletionID returns the backend record ID for a completed
// exercise.
func (s *Store) RemoteCompletionID(exerciseID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.state.CompletedExercises[exerciseID]
	return id, ok
}

// AllCompleted reports whether the session is non-empty and every exercise
// is completed. The collaborator polls this to decide when to request more
// exercises.
func (s *Store) AllCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Exercises) == 0 {
		return false
	}
	for _, ex := range s.state.Exercises {
		if _, ok := s.state.CompletedExercises[ex.ID]; !ok {
			return false
		}
	}
	return true
}

// Current returns the exercise under the cursor.
func (s *Store) Current() (models.ExerciseRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Exercises) == 0 {
		return models.ExerciseRecord{}, false
	}
	return s.state.Exercises[s.state.Cursor], true
}

// Fetching reports whether an ingestion is in flight.
func (s *Store) Fetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetching
}

// FetchErr returns the reason the last fetch failed, if it did.
func (s *Store) FetchErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

// Snapshot returns a deep copy of the session state for readers.
func (s *Store) Snapshot() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
