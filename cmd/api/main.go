// Package main is the entry point for the chat server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/internal/agent"
	"github.com/foundry-demos/code-interpreter-chat/internal/config"
	"github.com/foundry-demos/code-interpreter-chat/internal/credential"
	"github.com/foundry-demos/code-interpreter-chat/internal/files"
	"github.com/foundry-demos/code-interpreter-chat/internal/handler"
	"github.com/foundry-demos/code-interpreter-chat/internal/middleware"
	"github.com/foundry-demos/code-interpreter-chat/internal/service"
	"github.com/foundry-demos/code-interpreter-chat/internal/session"
	"github.com/foundry-demos/code-interpreter-chat/internal/web"
	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
	"github.com/foundry-demos/code-interpreter-chat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger; the agent debug flag implies debug-level output.
	logLevel := cfg.LogLevel
	if cfg.DebugAgentLogs {
		logLevel = "debug"
	}
	log, err := logger.New(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting chat server",
		zap.String("endpoint", cfg.ProjectEndpoint),
		zap.String("deployment", cfg.ModelDeploymentName),
	)

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "code-interpreter-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Credential chain and remote agent client
	tokens := credential.DefaultChain(log)
	azureClient := agent.NewAzureClient(cfg.ProjectEndpoint, cfg.APIVersion, tokens)
	manager := agent.NewManager(azureClient, log, agent.Options{
		Model:        cfg.ModelDeploymentName,
		PollInterval: cfg.RunPollInterval,
		RunTimeout:   cfg.RunTimeout,
		Debug:        cfg.DebugAgentLogs,
	})

	// Artifact storage
	store, err := files.NewStore(cfg.DownloadsDir, cfg.MaxArtifactFiles, azureClient, log)
	if err != nil {
		log.Error("failed to initialize artifact store", zap.Error(err))
		os.Exit(1)
	}

	// Session state and orchestration
	sessions := session.NewStore()
	chatSvc := service.NewChatService(manager, store, sessions, cfg.ModelDeploymentName, log)

	// Templates
	templates, err := web.Templates()
	if err != nil {
		log.Error("failed to parse templates", zap.Error(err))
		os.Exit(1)
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(cfg.DownloadsDir)
	chatHandler := handler.NewChatHandler(chatSvc, templates, log)
	filesHandler := handler.NewFilesHandler(store, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// UI and API routes share the session cookie and rate limit.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session)
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/", chatHandler.Index)
		r.Post("/chat", chatHandler.SendForm)
		r.Post("/clear", chatHandler.ClearForm)
		r.Get("/files/{name}", filesHandler.Serve)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/status", chatHandler.Status)
			r.Post("/messages", chatHandler.Send)
			r.Post("/clear", chatHandler.Clear)
			r.Get("/files", filesHandler.List)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout; remote assistant cleanup is best
	// effort.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chatSvc.Shutdown(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
