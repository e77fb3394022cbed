// Package recommend talks to the backend recommendation service: a
// long-lived streaming request that yields exercises one at a time, and two
// point requests for logging and deleting exercise completions.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"log/slog"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/models"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/stream"
)

// Params are the request options for a recommendation stream.
type Params struct {
	// Count hints how many exercises to generate. Nil lets the producer
	// decide.
	Count *int `json:"count,omitempty"`
}

// Client is an authenticated client for the recommendation service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client. The stream request carries no client-side
// timeout — a stalled stream stays open until the transport errors or the
// caller cancels its context.
func NewClient(baseURL, token string, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
		log:        log,
	}
}

// Stream opens the recommendation stream and returns a channel of decoded
// events. The channel is closed after the terminal event (EventComplete or
// EventError) or when ctx is cancelled; events arrive strictly in stream
// order. Cancelling ctx stops delivery — an in-flight send completes but
// nothing follows it.
func (c *Client) Stream(ctx context.Context, params Params) (<-chan stream.Event, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling stream params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/workouts/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening recommendation stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("recommendation stream refused (status %d): %s", resp.StatusCode, msg)
	}

	events := make(chan stream.Event)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		dec := stream.NewDecoder(resp.Body, c.log)
		for {
			ev, ok := dec.Next()
			if !ok {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Kind != stream.EventExercise {
				return
			}
		}
	}()
	return events, nil
}

// completionRequest is the payload for logging a completed exercise.
type completionRequest struct {
	ExerciseName string              `json:"exercise_name"`
	ExerciseType models.ExerciseType `json:"exercise_type"`
}

type completionResponse struct {
	ID string `json:"id"`
}

// LogCompletion records a completed exercise with the backend and returns
// the remote record ID needed to undo it later.
func (c *Client) LogCompletion(ctx context.Context, ex models.ExerciseRecord) (string, error) {
	body, err := json.Marshal(completionRequest{ExerciseName: ex.Name, ExerciseType: ex.Type})
	if err != nil {
		return "", fmt.Errorf("marshaling completion: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("logging completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion rejected (status %d): %s", resp.StatusCode, msg)
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if cr.ID == "" {
		return "", fmt.Errorf("completion response missing record id")
	}
	return cr.ID, nil
}

// DeleteCompletion undoes a previously logged completion by its remote
// record ID.
func (c *Client) DeleteCompletion(ctx context.Context, remoteID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/completions/"+remoteID, nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("delete rejected (status %d): %s", resp.StatusCode, msg)
	}
	return nil
}
