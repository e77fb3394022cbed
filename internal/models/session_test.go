package models

import (
	"encoding/json"
	"testing"
)

func twoExerciseState() SessionState {
	s := NewSessionState()
	s.Exercises = []ExerciseRecord{
		{ID: "a", Name: "Goblet Squat", Type: ExerciseReps, Sets: 3, Reps: []int{10, 10, 8}},
		{ID: "b", Name: "Bike Sprints", Type: ExerciseIntervals, Rounds: 4, WorkSeconds: 20, RestSeconds: 10},
	}
	return s
}

// TestNormalizeClampsCursor verifies cursor repair on load: out-of-range
// cursors clamp into [0, len-1], and an empty session pins the cursor to 0.
func TestNormalizeClampsCursor(t *testing.T) {
	s := twoExerciseState()
	s.Cursor = 7
	s.Normalize()
	if s.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", s.Cursor)
	}

	s.Cursor = -3
	s.Normalize()
	if s.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", s.Cursor)
	}

	empty := NewSessionState()
	empty.Cursor = 5
	empty.Normalize()
	if empty.Cursor != 0 {
		t.Errorf("empty session cursor = %d, want 0", empty.Cursor)
	}
}

// TestNormalizePrunesOrphans verifies that map entries referencing unknown
// exercises are dropped, along with out-of-range set indices.
func TestNormalizePrunesOrphans(t *testing.T) {
	s := twoExerciseState()
	s.CompletedSets["a"] = []int{0, 2, 9}
	s.CompletedSets["ghost"] = []int{0}
	s.CompletedExercises["ghost"] = "rec-1"
	s.AdjustedReps["ghost"] = []int{5}

	s.Normalize()

	if got := s.CompletedSets["a"]; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("completed sets for a = %v, want [0 2]", got)
	}
	if _, ok := s.CompletedSets["ghost"]; ok {
		t.Error("orphaned completed-set entry survived")
	}
	if _, ok := s.CompletedExercises["ghost"]; ok {
		t.Error("orphaned completion survived")
	}
	if _, ok := s.AdjustedReps["ghost"]; ok {
		t.Error("orphaned adjustment survived")
	}
}

// TestNormalizeDropsNonRepsAdjustments verifies the adjustment maps only
// ever hold reps-type exercises after repair.
func TestNormalizeDropsNonRepsAdjustments(t *testing.T) {
	s := twoExerciseState()
	s.AdjustedReps["b"] = []int{12}
	s.AdjustedWeight["b"] = []float64{50}

	s.Normalize()

	if _, ok := s.AdjustedReps["b"]; ok {
		t.Error("rep adjustment on intervals exercise survived")
	}
	if _, ok := s.AdjustedWeight["b"]; ok {
		t.Error("weight adjustment on intervals exercise survived")
	}
}

// TestRoundTrip verifies serialize-then-deserialize yields an equal state:
// same exercise order, cursor, and maps.
func TestRoundTrip(t *testing.T) {
	s := twoExerciseState()
	s.Cursor = 1
	s.CompletedSets["a"] = []int{1}
	s.AdjustedReps["a"] = []int{12, 12, 10}
	s.CompletedExercises["b"] = "rec-99"

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got SessionState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(got.Exercises) != 2 || got.Exercises[0].ID != "a" || got.Exercises[1].ID != "b" {
		t.Errorf("exercise order lost: %+v", got.Exercises)
	}
	if got.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", got.Cursor)
	}
	if got.CompletedExercises["b"] != "rec-99" {
		t.Errorf("remote id = %q, want rec-99", got.CompletedExercises["b"])
	}
	if len(got.AdjustedReps["a"]) != 3 {
		t.Errorf("adjusted reps = %v", got.AdjustedReps["a"])
	}
}

// TestUnknownFieldsIgnored verifies forward compatibility: a blob written by
// a newer schema loads cleanly, unknown fields ignored, missing fields
// defaulted.
func TestUnknownFieldsIgnored(t *testing.T) {
	blob := `{"exercises":[{"id":"a","name":"Row","type":"duration","duration_seconds":600}],"cursor":0,"future_field":{"x":1}}`

	var got SessionState
	if err := json.Unmarshal([]byte(blob), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got.Normalize()

	if len(got.Exercises) != 1 {
		t.Fatalf("exercises = %d, want 1", len(got.Exercises))
	}
	if got.CompletedSets == nil || got.CompletedExercises == nil {
		t.Error("missing maps not defaulted by Normalize")
	}
}

// TestCloneIsDeep verifies mutating a clone never leaks into the original.
func TestCloneIsDeep(t *testing.T) {
	s := twoExerciseState()
	s.CompletedSets["a"] = []int{0}

	c := s.Clone()
	c.Exercises[0].Name = "changed"
	c.CompletedSets["a"][0] = 2
	c.CompletedExercises["a"] = "rec-1"

	if s.Exercises[0].Name != "Goblet Squat" {
		t.Error("clone shares exercise backing array")
	}
	if s.CompletedSets["a"][0] != 0 {
		t.Error("clone shares completed-set slice")
	}
	if _, ok := s.CompletedExercises["a"]; ok {
		t.Error("clone shares completion map")
	}
}
