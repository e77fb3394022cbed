// Package timer runs the per-exercise countdown: an ordered list of timed
// phases (work/rest) driven at a one-second cadence. Finishing a phase
// notifies the collaborator, which wires work-phase completions to set
// progress in the session store.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
)

// PhaseKind distinguishes work from rest segments.
type PhaseKind string

const (
	PhaseWork PhaseKind = "work"
	PhaseRest PhaseKind = "rest"
)

// Phase is one timed segment of an exercise.
type Phase struct {
	Kind    PhaseKind `json:"kind"`
	Seconds int       `json:"seconds"`
	Cue     string    `json:"cue"`
	Detail  string    `json:"detail,omitempty"`

	// SetIndex is the set a work phase maps to; -1 for rest phases.
	SetIndex int `json:"set_index"`
}

// BuildPhases derives the phase list for an exercise. Reps exercises have
// no countdown and yield nil.
func BuildPhases(ex models.ExerciseRecord) []Phase {
	switch ex.Type {
	case models.ExerciseIntervals:
		phases := make([]Phase, 0, 2*ex.Rounds-1)
		for round := 0; round < ex.Rounds; round++ {
			phases = append(phases, Phase{
				Kind:     PhaseWork,
				Seconds:  ex.WorkSeconds,
				Cue:      ex.Name,
				Detail:   fmt.Sprintf("Round %d of %d", round+1, ex.Rounds),
				SetIndex: round,
			})
			// Trailing rest is omitted: the workout ends on work.
			if round < ex.Rounds-1 && ex.RestSeconds > 0 {
				phases = append(phases, Phase{
					Kind:     PhaseRest,
					Seconds:  ex.RestSeconds,
					Cue:      "Rest",
					SetIndex: -1,
				})
			}
		}
		return phases
	case models.ExerciseHold:
		phases := make([]Phase, 0, ex.Sets)
		for i, hold := range ex.HoldSeconds {
			phases = append(phases, Phase{
				Kind:     PhaseWork,
				Seconds:  hold,
				Cue:      ex.Name,
				Detail:   fmt.Sprintf("Hold %d of %d", i+1, ex.Sets),
				SetIndex: i,
			})
		}
		return phases
	case models.ExerciseDuration:
		return []Phase{{
			Kind:     PhaseWork,
			Seconds:  ex.DurationSeconds,
			Cue:      ex.Name,
			SetIndex: 0,
		}}
	default:
		return nil
	}
}

// State is the timer's lifecycle position.
type State string

const (
	Idle     State = "idle"
	Running  State = "running"
	Paused   State = "paused"
	Complete State = "complete"
)

// Status is a read-only view of the timer.
type Status struct {
	State     State `json:"state"`
	Phase     int   `json:"phase"`
	Remaining int   `json:"remaining_seconds"`
	Phases    int   `json:"phases"`
}

// Timer is the phase countdown state machine. Ticks are driven either by
// Run (wall clock) or directly by Tick in tests; both paths share the lock,
// so phase completion fires exactly once per finished phase.
type Timer struct {
	mu        sync.Mutex
	phases    []Phase
	state     State
	phase     int
	remaining int

	// onPhaseDone fires for every finished phase, including the last one
	// before Complete. The collaborator toggles set progress for work
	// phases only.
	onPhaseDone func(Phase)
}

// New creates an idle timer with no phases loaded. onPhaseDone may be nil.
func New(onPhaseDone func(Phase)) *Timer {
	return &Timer{state: Idle, onPhaseDone: onPhaseDone}
}

// Load replaces the phase list and returns to Idle. Loading while Running
// or Paused resets first — no remaining time carries over between
// exercises. An empty spec leaves the timer Idle with nothing to run.
func (t *Timer) Load(phases []Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append([]Phase(nil), phases...)
	t.state = Idle
	t.phase = 0
	t.remaining = 0
}

// Reset returns the timer to Idle, discarding phase position and remaining
// time. The loaded phases are kept.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Idle
	t.phase = 0
	t.remaining = 0
}

// Toggle starts, pauses, or resumes. Idle starts at phase 0; Running
// pauses keeping remaining time; Paused resumes with the same remaining
// time. Complete is terminal and ignores Toggle.
func (t *Timer) Toggle() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case Idle:
		if len(t.phases) == 0 {
			return
		}
		t.phase = 0
		t.remaining = t.phases[0].Seconds
		t.state = Running
	case Running:
		t.state = Paused
	case Paused:
		t.state = Running
	case Complete:
	}
}

// Tick advances one second. Only Running timers move. When a phase hits
// zero the phase-done callback fires; if a next phase exists the timer
// advances into it, otherwise it transitions to Complete.
func (t *Timer) Tick() {
	t.mu.Lock()
	if t.state != Running {
		t.mu.Unlock()
		return
	}

	t.remaining--
	if t.remaining > 0 {
		t.mu.Unlock()
		return
	}

	finished := t.phases[t.phase]
	if t.phase+1 < len(t.phases) {
		t.phase++
		t.remaining = t.phases[t.phase].Seconds
	} else {
		t.state = Complete
	}
	cb := t.onPhaseDone
	t.mu.Unlock()

	// Callback runs outside the lock: it calls back into the session store.
	if cb != nil {
		cb(finished)
	}
}

// Run drives Tick at a one-second cadence until ctx is cancelled.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Status returns a snapshot of the timer.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		State:     t.state,
		Phase:     t.phase,
		Remaining: t.remaining,
		Phases:    len(t.phases),
	}
}
