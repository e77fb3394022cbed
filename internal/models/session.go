package models

import "time"

// SessionState is the persisted aggregate for one user's active workout
// session. Exercises keep insertion order (append-only within a session).
// Unknown JSON fields in a stored blob are ignored on load; missing fields
// fall back to zero values, so the schema tolerates additions in both
// directions.
type SessionState struct {
	Exercises []ExerciseRecord `json:"exercises"`
	Cursor    int              `json:"cursor"`

	// CompletedSets maps exercise ID -> completed set indices (kept sorted).
	CompletedSets map[string][]int `json:"completed_sets,omitempty"`

	// AdjustedReps and AdjustedWeight override the record's original values
	// for reps-type exercises only.
	AdjustedReps   map[string][]int     `json:"adjusted_reps,omitempty"`
	AdjustedWeight map[string][]float64 `json:"adjusted_weight,omitempty"`

	// CompletedExercises maps exercise ID -> remote completion record ID.
	// An exercise is completed iff it has an entry here; the remote ID is
	// required to undo the completion server-side.
	CompletedExercises map[string]string `json:"completed_exercises,omitempty"`

	// UpdatedAt is stamped on every save and drives staleness detection on
	// load.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewSessionState returns an empty session with all maps allocated.
func NewSessionState() SessionState {
	return SessionState{
		CompletedSets:      map[string][]int{},
		AdjustedReps:       map[string][]int{},
		AdjustedWeight:     map[string][]float64{},
		CompletedExercises: map[string]string{},
	}
}

// Exercise returns the record with the given ID, if present.
func (s *SessionState) Exercise(id string) (ExerciseRecord, bool) {
	for _, ex := range s.Exercises {
		if ex.ID == id {
			return ex, true
		}
	}
	return ExerciseRecord{}, false
}

// Normalize repairs a loaded state so its invariants hold: the cursor is
// clamped into range, map entries referencing unknown exercises are pruned,
// out-of-range set indices are dropped, and adjustments on non-reps
// exercises are removed.
func (s *SessionState) Normalize() {
	if s.CompletedSets == nil {
		s.CompletedSets = map[string][]int{}
	}
	if s.AdjustedReps == nil {
		s.AdjustedReps = map[string][]int{}
	}
	if s.AdjustedWeight == nil {
		s.AdjustedWeight = map[string][]float64{}
	}
	if s.CompletedExercises == nil {
		s.CompletedExercises = map[string]string{}
	}

	if len(s.Exercises) == 0 {
		s.Cursor = 0
	} else {
		if s.Cursor < 0 {
			s.Cursor = 0
		}
		if s.Cursor >= len(s.Exercises) {
			s.Cursor = len(s.Exercises) - 1
		}
	}

	byID := make(map[string]ExerciseRecord, len(s.Exercises))
	for _, ex := range s.Exercises {
		byID[ex.ID] = ex
	}

	for id, sets := range s.CompletedSets {
		ex, ok := byID[id]
		if !ok {
			delete(s.CompletedSets, id)
			continue
		}
		kept := sets[:0]
		for _, idx := range sets {
			if idx >= 0 && idx < ex.SetCount() {
				kept = append(kept, idx)
			}
		}
		if len(kept) == 0 {
			delete(s.CompletedSets, id)
			continue
		}
		s.CompletedSets[id] = kept
	}

	for id := range s.AdjustedReps {
		if ex, ok := byID[id]; !ok || ex.Type != ExerciseReps {
			delete(s.AdjustedReps, id)
		}
	}
	for id := range s.AdjustedWeight {
		if ex, ok := byID[id]; !ok || ex.Type != ExerciseReps {
			delete(s.AdjustedWeight, id)
		}
	}
	for id := range s.CompletedExercises {
		if _, ok := byID[id]; !ok {
			delete(s.CompletedExercises, id)
		}
	}
}

// Clone returns a deep copy. Callers outside the store only ever see clones.
func (s SessionState) Clone() SessionState {
	out := s
	out.Exercises = append([]ExerciseRecord(nil), s.Exercises...)
	out.CompletedSets = make(map[string][]int, len(s.CompletedSets))
	for id, v := range s.CompletedSets {
		out.CompletedSets[id] = append([]int(nil), v...)
	}
	out.AdjustedReps = make(map[string][]int, len(s.AdjustedReps))
	for id, v := range s.AdjustedReps {
		out.AdjustedReps[id] = append([]int(nil), v...)
	}
	out.AdjustedWeight = make(map[string][]float64, len(s.AdjustedWeight))
	for id, v := range s.AdjustedWeight {
		out.AdjustedWeight[id] = append([]float64(nil), v...)
	}
	out.CompletedExercises = make(map[string]string, len(s.CompletedExercises))
	for id, v := range s.CompletedExercises {
		out.CompletedExercises[id] = v
	}
	return out
}
