// Package tools exposes the call-session store to agents as MCP tools.
package tools

import (
	"context"
	"log/slog"

	"phonebank-training/internal/calls"
	"phonebank-training/internal/recordings"
	"phonebank-training/internal/reporting"
	"phonebank-training/internal/voters"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "phonebank-training"
	ServerVersion = "1.0.0"
)

type SessionReader interface {
	ListSessions(ctx context.Context, f calls.ListFilter) ([]calls.CallSession, error)
	GetSessionDetail(ctx context.Context, sessionID string) (calls.CallSession, *calls.PerformanceMetrics, error)
}

type RecordingResolver interface {
	Resolve(ctx context.Context, sessionID string) (recordings.Result, error)
}

type ProgressReader interface {
	UserProgress(ctx context.Context, userID string) (reporting.Progress, error)
}

type Deps struct {
	Sessions   SessionReader
	Recordings RecordingResolver
	Progress   ProgressReader
	Voters     voters.Store
	Logger     *slog.Logger
}

func NewServer(d Deps) *server.MCPServer {
	srv := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	registerTools(srv, d)
	return srv
}

func registerTools(srv *server.MCPServer, d Deps) {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	srv.AddTool(
		mcp.NewTool(toolListSessions,
			mcp.WithDescription("Fetches recent call sessions from the phone banking training database"),
			mcp.WithString("userId",
				mcp.Description("User ID to filter sessions (optional)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of sessions to return (default: 10, max: 100)"),
				mcp.Min(1),
				mcp.Max(calls.MaxListLimit),
			),
			mcp.WithString("status",
				mcp.Description("Filter by session status: 'in-progress', 'completed', or 'abandoned' (optional)"),
				mcp.Enum(string(calls.StatusInProgress), string(calls.StatusCompleted), string(calls.StatusAbandoned)),
			),
		),
		dispatch(log, toolListSessions, handleListSessions(d)),
	)

	srv.AddTool(
		mcp.NewTool(toolCallDetails,
			mcp.WithDescription("Fetches full details of a call session including transcript, performance metrics and coaching tips"),
			mcp.WithString("sessionId",
				mcp.Required(),
				mcp.Description("The unique identifier of the call session"),
			),
		),
		dispatch(log, toolCallDetails, handleCallDetails(d)),
	)

	srv.AddTool(
		mcp.NewTool(toolCallRecording,
			mcp.WithDescription("Gets the recording URL for a call session, fetching it from Vapi and caching it if needed"),
			mcp.WithString("sessionId",
				mcp.Required(),
				mcp.Description("The unique identifier of the call session"),
			),
		),
		dispatch(log, toolCallRecording, handleCallRecording(d)),
	)

	srv.AddTool(
		mcp.NewTool(toolUserProgress,
			mcp.WithDescription("Fetches aggregate statistics and progress for a specific user"),
			mcp.WithString("userId",
				mcp.Required(),
				mcp.Description("The unique identifier of the user"),
			),
		),
		dispatch(log, toolUserProgress, handleUserProgress(d)),
	)
}
