package models

import (
	"fmt"
)

// ExerciseType tags the shape of an exercise. Exactly one type-specific
// field group is populated on a record, matching this tag.
type ExerciseType string

const (
	ExerciseReps      ExerciseType = "reps"
	ExerciseHold      ExerciseType = "hold"
	ExerciseDuration  ExerciseType = "duration"
	ExerciseIntervals ExerciseType = "intervals"
)

// ExerciseRecord is one recommended exercise. Records are immutable once
// ingested — per-set adjustments live in SessionState maps, not here.
// The ID is assigned locally at ingestion time, never taken from the wire.
type ExerciseRecord struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type ExerciseType `json:"type"`

	// reps
	Sets     int       `json:"sets,omitempty"`
	Reps     []int     `json:"reps,omitempty"`
	WeightKg []float64 `json:"weight_kg,omitempty"`

	// hold
	HoldSeconds []int `json:"hold_seconds,omitempty"`

	// duration
	DurationSeconds int     `json:"duration_seconds,omitempty"`
	DistanceMeters  float64 `json:"distance_meters,omitempty"`
	Pace            string  `json:"pace,omitempty"`

	// intervals
	Rounds      int `json:"rounds,omitempty"`
	WorkSeconds int `json:"work_seconds,omitempty"`
	RestSeconds int `json:"rest_seconds,omitempty"`

	Muscles   []string `json:"muscles,omitempty"`
	Goals     []string `json:"goals,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// SetCount returns how many sets the exercise tracks for progress purposes.
// Interval exercises count one set per round; duration exercises count one.
func (e ExerciseRecord) SetCount() int {
	switch e.Type {
	case ExerciseReps, ExerciseHold:
		return e.Sets
	case ExerciseIntervals:
		return e.Rounds
	case ExerciseDuration:
		return 1
	default:
		return 0
	}
}

// Validate checks that the populated field group matches the type tag and
// that per-set arrays are consistent with the set count.
func (e ExerciseRecord) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("exercise has no name")
	}
	switch e.Type {
	case ExerciseReps:
		if e.Sets <= 0 {
			return fmt.Errorf("reps exercise %q: sets must be positive", e.Name)
		}
		if len(e.Reps) != e.Sets {
			return fmt.Errorf("reps exercise %q: %d rep values for %d sets", e.Name, len(e.Reps), e.Sets)
		}
		if len(e.WeightKg) != 0 && len(e.WeightKg) != e.Sets {
			return fmt.Errorf("reps exercise %q: %d weight values for %d sets", e.Name, len(e.WeightKg), e.Sets)
		}
		if e.Rounds != 0 || e.WorkSeconds != 0 || e.DurationSeconds != 0 || len(e.HoldSeconds) != 0 {
			return fmt.Errorf("reps exercise %q: non-reps fields populated", e.Name)
		}
	case ExerciseHold:
		if e.Sets <= 0 {
			return fmt.Errorf("hold exercise %q: sets must be positive", e.Name)
		}
		if len(e.HoldSeconds) != e.Sets {
			return fmt.Errorf("hold exercise %q: %d hold durations for %d sets", e.Name, len(e.HoldSeconds), e.Sets)
		}
		if len(e.Reps) != 0 || e.Rounds != 0 || e.DurationSeconds != 0 {
			return fmt.Errorf("hold exercise %q: non-hold fields populated", e.Name)
		}
	case ExerciseDuration:
		if e.DurationSeconds <= 0 {
			return fmt.Errorf("duration exercise %q: duration must be positive", e.Name)
		}
		if len(e.Reps) != 0 || len(e.HoldSeconds) != 0 || e.Rounds != 0 {
			return fmt.Errorf("duration exercise %q: non-duration fields populated", e.Name)
		}
	case ExerciseIntervals:
		if e.Rounds <= 0 {
			return fmt.Errorf("intervals exercise %q: rounds must be positive", e.Name)
		}
		if e.WorkSeconds <= 0 {
			return fmt.Errorf("intervals exercise %q: work seconds must be positive", e.Name)
		}
		if e.RestSeconds < 0 {
			return fmt.Errorf("intervals exercise %q: negative rest seconds", e.Name)
		}
		if len(e.Reps) != 0 || len(e.HoldSeconds) != 0 || e.DurationSeconds != 0 {
			return fmt.Errorf("intervals exercise %q: non-interval fields populated", e.Name)
		}
	default:
		return fmt.Errorf("exercise %q: unknown type %q", e.Name, e.Type)
	}
	return nil
}
