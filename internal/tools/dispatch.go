package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolListSessions  = "list-call-sessions"
	toolCallDetails   = "get-call-details"
	toolCallRecording = "get-call-recording"
	toolUserProgress  = "get-user-progress"
)

// textHandler returns the report text. Absence of data is a normal result;
// only real failures come back as errors.
type textHandler func(ctx context.Context, req mcp.CallToolRequest) (string, error)

// dispatch converts errors and panics into error-flagged results so the
// agent always gets a structured reply.
func dispatch(log *slog.Logger, name string, h textHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (res *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("tool panicked", "tool", name, "panic", r)
				res, err = mcp.NewToolResultError(fmt.Sprintf("Error: internal error in %s", name)), nil
			}
		}()

		text, herr := h(ctx, req)
		if herr != nil {
			log.Warn("tool failed", "tool", name, "err", herr)
			return mcp.NewToolResultError("Error: " + herr.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return strings.TrimSpace(v)
}

func requiredString(req mcp.CallToolRequest, key string) (string, error) {
	v := stringArg(req, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
