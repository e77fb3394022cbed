// Package mcp exposes the live workout session to AI assistants over the
// Model Context Protocol: read-only tools for the session, the current
// exercise, and overall progress.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/session"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/timer"
)

// New creates an MCP server with all tools and resources registered.
func New(store *session.Store, tm *timer.Timer, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Trainer", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("AI personal trainer session server. Read the active workout session: exercise list, cursor, per-set progress, completions, and the interval timer."),
	)

	h := &handlers{store: store, timer: tm, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetCurrentExercise, Handler: h.getCurrentExercise},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetTimer, Handler: h.getTimer},
	)

	s.AddResources(
		server.ServerResource{Resource: resSession, Handler: h.sessionResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	store *session.Store
	timer *timer.Timer
	log   *slog.Logger
}

// --- Resource definitions ---

var resSession = mcp.NewResource(
	"trainer://session",
	"Active Workout Session",
	mcp.WithResourceDescription("The full current session: exercises in order, cursor, per-set progress, and completion state"),
	mcp.WithMIMEType("application/json"),
)

// --- Tool definitions ---

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get the full active workout session: ordered exercises, cursor position, completed sets, adjustments, and completed exercises."),
)

var toolGetCurrentExercise = mcp.NewTool("get_current_exercise",
	mcp.WithDescription("Get the exercise the user is currently viewing, including its type-specific prescription (sets/reps/holds/intervals)."),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Get session progress: exercise counts, completed exercise count, per-exercise completed set counts, and whether the whole session is done."),
)

var toolGetTimer = mcp.NewTool("get_timer",
	mcp.WithDescription("Get the interval timer state: idle/running/paused/complete, current phase, and remaining seconds."),
)

// --- Tool handlers ---

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.store.Snapshot())
	if err != nil {
		return mcp.NewToolResultError("encoding session: " + err.Error()), nil
	}
	return result, nil
}

func (h *handlers) getCurrentExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ex, ok := h.store.Current()
	if !ok {
		return mcp.NewToolResultText("no active session"), nil
	}
	result, err := mcp.NewToolResultJSON(ex)
	if err != nil {
		return mcp.NewToolResultError("encoding exercise: " + err.Error()), nil
	}
	return result, nil
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := h.store.Snapshot()

	setCounts := make(map[string]int, len(snap.CompletedSets))
	for id, sets := range snap.CompletedSets {
		setCounts[id] = len(sets)
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercises":           len(snap.Exercises),
		"completed_exercises": len(snap.CompletedExercises),
		"completed_sets":      setCounts,
		"cursor":              snap.Cursor,
		"all_completed":       h.store.AllCompleted(),
		"fetching":            h.store.Fetching(),
	})
	if err != nil {
		return mcp.NewToolResultError("encoding progress: " + err.Error()), nil
	}
	return result, nil
}

func (h *handlers) getTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.timer.Status())
	if err != nil {
		return mcp.NewToolResultError("encoding timer: " + err.Error()), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) sessionResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(h.store.Snapshot())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
