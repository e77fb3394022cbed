package timer

import (
	"testing"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
)

func intervalExercise() models.ExerciseRecord {
	return models.ExerciseRecord{
		ID: "b", Name: "Bike Sprints", Type: models.ExerciseIntervals,
		Rounds: 4, WorkSeconds: 20, RestSeconds: 10,
	}
}

// TestBuildPhasesIntervals verifies the work/rest alternation with the
// trailing rest omitted: 4 rounds yield 7 phases.
func TestBuildPhasesIntervals(t *testing.T) {
	phases := BuildPhases(intervalExercise())
	if len(phases) != 7 {
		t.Fatalf("phases = %d, want 7", len(phases))
	}
	for i, p := range phases {
		wantKind := PhaseWork
		if i%2 == 1 {
			wantKind = PhaseRest
		}
		if p.Kind != wantKind {
			t.Errorf("phase %d kind = %s, want %s", i, p.Kind, wantKind)
		}
	}
	if phases[0].Seconds != 20 || phases[1].Seconds != 10 {
		t.Errorf("durations = %d/%d, want 20/10", phases[0].Seconds, phases[1].Seconds)
	}
	if phases[6].Kind != PhaseWork || phases[6].SetIndex != 3 {
		t.Errorf("last phase = %+v, want work round 3", phases[6])
	}
}

// TestBuildPhasesZeroRest verifies back-to-back rounds produce work phases
// only.
func TestBuildPhasesZeroRest(t *testing.T) {
	ex := intervalExercise()
	ex.RestSeconds = 0
	phases := BuildPhases(ex)
	if len(phases) != 4 {
		t.Fatalf("phases = %d, want 4", len(phases))
	}
}

// TestBuildPhasesHoldAndDuration verifies the other timed shapes.
func TestBuildPhasesHoldAndDuration(t *testing.T) {
	hold := models.ExerciseRecord{
		Name: "Plank", Type: models.ExerciseHold,
		Sets: 2, HoldSeconds: []int{45, 60},
	}
	phases := BuildPhases(hold)
	if len(phases) != 2 || phases[1].Seconds != 60 || phases[1].SetIndex != 1 {
		t.Errorf("hold phases = %+v", phases)
	}

	run := models.ExerciseRecord{
		Name: "Easy Run", Type: models.ExerciseDuration, DurationSeconds: 600,
	}
	phases = BuildPhases(run)
	if len(phases) != 1 || phases[0].Seconds != 600 {
		t.Errorf("duration phases = %+v", phases)
	}
}

// TestBuildPhasesRepsHasNoCountdown verifies reps exercises load nothing.
func TestBuildPhasesRepsHasNoCountdown(t *testing.T) {
	ex := models.ExerciseRecord{
		Name: "Goblet Squat", Type: models.ExerciseReps,
		Sets: 3, Reps: []int{10, 10, 8},
	}
	if phases := BuildPhases(ex); phases != nil {
		t.Errorf("phases = %+v, want nil", phases)
	}
}

// TestTimerRunToCompletion drives the interval scenario to the end: total
// elapsed ticks equal the summed phase durations, every finished phase
// fires the callback exactly once, and the machine ends Complete.
func TestTimerRunToCompletion(t *testing.T) {
	var done []Phase
	tm := New(func(p Phase) { done = append(done, p) })
	tm.Load(BuildPhases(intervalExercise()))

	tm.Toggle()
	if st := tm.Status(); st.State != Running || st.Remaining != 20 {
		t.Fatalf("after toggle: %+v", st)
	}

	total := 4*20 + 3*10
	for i := 0; i < total; i++ {
		tm.Tick()
	}

	if st := tm.Status(); st.State != Complete {
		t.Fatalf("state = %s, want complete", st.State)
	}
	if len(done) != 7 {
		t.Fatalf("phase-done callbacks = %d, want 7", len(done))
	}

	// 4 work callbacks mapping to sets 0..3, 3 rest callbacks in between
	var workSets []int
	for _, p := range done {
		if p.Kind == PhaseWork {
			workSets = append(workSets, p.SetIndex)
		}
	}
	if len(workSets) != 4 {
		t.Fatalf("work callbacks = %d, want 4", len(workSets))
	}
	for i, set := range workSets {
		if set != i {
			t.Errorf("work callback %d set = %d, want %d", i, set, i)
		}
	}

	// Terminal state ignores further ticks and toggles
	tm.Tick()
	tm.Toggle()
	if st := tm.Status(); st.State != Complete {
		t.Errorf("state after extra tick = %s, want complete", st.State)
	}
	if len(done) != 7 {
		t.Errorf("callbacks after complete = %d, want 7", len(done))
	}
}

// TestTimerPauseResume verifies Running→Paused keeps remaining time and
// Paused→Running resumes from it; ticks while paused do nothing.
func TestTimerPauseResume(t *testing.T) {
	tm := New(nil)
	tm.Load(BuildPhases(intervalExercise()))

	tm.Toggle()
	for i := 0; i < 5; i++ {
		tm.Tick()
	}
	tm.Toggle() // pause
	if st := tm.Status(); st.State != Paused || st.Remaining != 15 {
		t.Fatalf("paused status = %+v", st)
	}

	tm.Tick()
	if st := tm.Status(); st.Remaining != 15 {
		t.Errorf("tick while paused moved remaining to %d", st.Remaining)
	}

	tm.Toggle() // resume
	if st := tm.Status(); st.State != Running || st.Remaining != 15 {
		t.Errorf("resumed status = %+v", st)
	}
}

// TestTimerResetStopsCallbacks verifies reset returns to Idle and no
// callbacks fire afterwards.
func TestTimerResetStopsCallbacks(t *testing.T) {
	var calls int
	tm := New(func(Phase) { calls++ })
	tm.Load(BuildPhases(intervalExercise()))

	tm.Toggle()
	for i := 0; i < 25; i++ { // finishes the first work phase
		tm.Tick()
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	tm.Reset()
	if st := tm.Status(); st.State != Idle || st.Phase != 0 || st.Remaining != 0 {
		t.Fatalf("after reset: %+v", st)
	}

	for i := 0; i < 50; i++ {
		tm.Tick()
	}
	if calls != 1 {
		t.Errorf("callbacks after reset = %d, want 1", calls)
	}
}

// TestTimerLoadWhileRunningResets verifies loading a new spec never carries
// over phase position or remaining time.
func TestTimerLoadWhileRunningResets(t *testing.T) {
	tm := New(nil)
	tm.Load(BuildPhases(intervalExercise()))
	tm.Toggle()
	tm.Tick()

	tm.Load([]Phase{{Kind: PhaseWork, Seconds: 30, SetIndex: 0}})
	if st := tm.Status(); st.State != Idle || st.Remaining != 0 || st.Phases != 1 {
		t.Errorf("after load: %+v", st)
	}
}

// TestTimerToggleWithoutPhases verifies an empty spec cannot start.
func TestTimerToggleWithoutPhases(t *testing.T) {
	tm := New(nil)
	tm.Load(nil)
	tm.Toggle()
	if st := tm.Status(); st.State != Idle {
		t.Errorf("state = %s, want idle", st.State)
	}
}
