package recommend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/stream"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const ndjsonBody = `{"name":"Goblet Squat","type":"reps","sets":3,"reps":[10,10,8]}
{"name":"Plank","type":"hold","sets":2,"hold_seconds":[45,45]}
{"done":true,"total":2}
`

// TestStreamHappyPath verifies the request shape (method, path, auth, accept
// header, count param) and that decoded events arrive in order on the
// channel.
func TestStreamHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/workouts/stream" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/x-ndjson" {
			t.Errorf("accept = %q", got)
		}
		var params Params
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("decoding params: %v", err)
		}
		if params.Count == nil || *params.Count != 2 {
			t.Errorf("count = %v, want 2", params.Count)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, ndjsonBody)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-abc", discardLogger())
	count := 2
	events, err := c.Stream(context.Background(), Params{Count: &count})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got []stream.Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if got[0].Exercise.Name != "Goblet Squat" || got[1].Exercise.Name != "Plank" {
		t.Errorf("order = %q, %q", got[0].Exercise.Name, got[1].Exercise.Name)
	}
	if got[2].Kind != stream.EventComplete || got[2].Total != 2 {
		t.Errorf("terminal = %+v", got[2])
	}
}

// TestStreamRefused verifies a non-2xx response fails the open with the
// server's message, producing no channel.
func TestStreamRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", discardLogger())
	events, err := c.Stream(context.Background(), Params{})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if events != nil {
		t.Error("channel returned alongside error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v, want server message", err)
	}
}

// TestStreamServerErrorEvent verifies a terminal error object closes the
// channel right after the error event.
func TestStreamServerErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"Row","type":"duration","duration_seconds":600}
{"done":true,"error":"model overloaded"}
`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", discardLogger())
	events, err := c.Stream(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got []stream.Event
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[1].Kind != stream.EventError || got[1].Err == nil {
		t.Errorf("terminal = %+v, want error event", got[1])
	}
}

// TestLogCompletion verifies the completion payload and the returned remote
// record ID.
func TestLogCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/completions" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			ExerciseName string `json:"exercise_name"`
			ExerciseType string `json:"exercise_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		if req.ExerciseName != "Goblet Squat" || req.ExerciseType != "reps" {
			t.Errorf("payload = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "rec-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", discardLogger())
	id, err := c.LogCompletion(context.Background(), models.ExerciseRecord{
		Name: "Goblet Squat", Type: models.ExerciseReps, Sets: 3, Reps: []int{10, 10, 8},
	})
	if err != nil {
		t.Fatalf("LogCompletion: %v", err)
	}
	if id != "rec-42" {
		t.Errorf("id = %q, want rec-42", id)
	}
}

// TestLogCompletionMissingID verifies a 2xx response without a record ID is
// an error — the ID is required to undo the completion later.
func TestLogCompletionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", discardLogger())
	if _, err := c.LogCompletion(context.Background(), models.ExerciseRecord{Name: "Row", Type: models.ExerciseDuration, DurationSeconds: 600}); err == nil {
		t.Error("expected error for missing record id")
	}
}

// TestDeleteCompletion verifies the undo request targets the remote record.
func TestDeleteCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/v1/completions/rec-42" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", discardLogger())
	if err := c.DeleteCompletion(context.Background(), "rec-42"); err != nil {
		t.Fatalf("DeleteCompletion: %v", err)
	}
}

// TestDeleteCompletionRejected verifies a failed undo surfaces the status.
func TestDeleteCompletionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", discardLogger())
	if err := c.DeleteCompletion(context.Background(), "rec-404"); err == nil {
		t.Error("expected error for 404 response")
	}
}
