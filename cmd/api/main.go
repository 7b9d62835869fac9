package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phonebank-training/internal/analysis"
	"phonebank-training/internal/auth"
	"phonebank-training/internal/calls"
	"phonebank-training/internal/config"
	"phonebank-training/internal/httpapi"
	"phonebank-training/internal/practice"
	"phonebank-training/internal/recordings"
	"phonebank-training/internal/reporting"
	"phonebank-training/internal/telephony"
	"phonebank-training/internal/tools"
	"phonebank-training/internal/voters"
	"phonebank-training/pkg/logger"
	"phonebank-training/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

var serveStdio = server.ServeStdio

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	stdio := cfg.MCP.Transport == config.TransportStdio
	log, logCloser := logger.New(logger.Options{
		Env:        cfg.App.Env,
		Stderr:     stdio,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logCloser.Close()
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, dialect, err := openStore(rootCtx, cfg)
	if err != nil {
		log.Error("database init failed", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := calls.Migrate(rootCtx, db, dialect); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	var guard recordings.FetchGuard
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		guard = recordings.NewRedisGuard(rdb, cfg.Recording.LockTTL)
	}

	provider, err := telephony.NewVapiClient(telephony.VapiConfig{
		APIKey:            cfg.Vapi.APIKey,
		BaseURL:           cfg.Vapi.BaseURL,
		Timeout:           cfg.Vapi.Timeout,
		MaxAttempts:       cfg.Vapi.MaxAttempts,
		RequestsPerSecond: cfg.Vapi.RequestsPerSecond,
	})
	if err != nil {
		log.Error("vapi client init failed", "err", err)
		os.Exit(1)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	repo := calls.NewSQLRepository(db, dialect)
	sessions := calls.NewService(repo)
	voterStore := voters.NewMemoryStore(voters.Seed())
	resolver := recordings.NewResolver(repo, provider, recordings.Options{
		Guard:  guard,
		Mode:   recordings.Mode(cfg.Recording.FetchMode),
		Logger: log,
	})
	progress := reporting.NewService(repo, log)

	mcpServer := tools.NewServer(tools.Deps{
		Sessions:   sessions,
		Recordings: resolver,
		Progress:   progress,
		Voters:     voterStore,
		Logger:     log,
	})

	if stdio {
		log.Info("mcp serving over stdio", "env", cfg.App.Env)
		if err := serveStdio(mcpServer); err != nil {
			log.Error("mcp stdio server failed", "err", err)
			os.Exit(1)
		}
		return
	}

	baseURL := cfg.MCP.PublicURL
	if baseURL == "" {
		baseURL = "http://localhost" + cfg.HTTPAddr()
	}
	sse := server.NewSSEServer(mcpServer,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint(sseEndpoint),
		server.WithMessageEndpoint(messageEndpoint),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		DB: db,
		Handlers: httpapi.Handlers{
			Auth:       authManager,
			Sessions:   sessions,
			Practice:   practice.NewFlow(sessions, analysis.NewHeuristic(), voterStore, log),
			Recordings: resolver,
			Progress:   progress,
			Voters:     voterStore,
		},
		Middleware: httpapi.Middleware{
			APIKey: auth.RequireAPIKey(cfg.MCP.APIKey),
			Issuer: auth.RequireIssuerKey(cfg.MCP.APIKey),
			Access: auth.RequireAccessToken(authManager),
		},
		MCP: sse,
	})

	if cfg.MCP.APIKey == "" {
		log.Warn("MCP_API_KEY is not set; MCP endpoints are unauthenticated and token issuing is disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// SSE streams stay open; per-route handlers bound their own work.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "mcp_base_url", baseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := sse.Shutdown(shutdownCtx); err != nil {
		log.Error("mcp sse shutdown failed", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (*sql.DB, calls.Dialect, error) {
	if cfg.DB.Driver == config.DriverSQLite {
		db, err := utils.OpenSQLite(ctx, cfg.DB.SQLitePath)
		return db, calls.DialectSQLite, err
	}
	db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PoolConfig{})
	return db, calls.DialectPostgres, err
}
