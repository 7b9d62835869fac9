package main

import (
	"database/sql"
	"net/http"
	"time"

	"phonebank-training/internal/httpapi"
	"phonebank-training/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
)

const (
	sseEndpoint     = "/sse"
	messageEndpoint = "/message"
)

type routeDeps struct {
	DB         *sql.DB
	Handlers   httpapi.Handlers
	Middleware httpapi.Middleware
	MCP        *server.SSEServer
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		if d.DB != nil {
			if err := utils.HealthCheck(c.Request.Context(), d.DB, 2*time.Second); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "phonebank-training"})
	})

	if d.MCP != nil {
		r.GET(sseEndpoint, d.Middleware.APIKey, gin.WrapH(d.MCP.SSEHandler()))
		r.POST(messageEndpoint, d.Middleware.APIKey, gin.WrapH(d.MCP.MessageHandler()))
	}

	httpapi.Register(r, d.Handlers, d.Middleware)
}
