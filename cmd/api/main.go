package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calore-bot/cmd"
	"calore-bot/internal/api"
	"calore-bot/internal/chat"
	"calore-bot/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func createServer(cfg *config.Config) *http.Server {
	components := cmd.NewChatComponents(cfg)
	store := chat.NewStore(components.Orchestrator, cfg.MaxSessions)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// A turn may try several FDC lookups before the model call.
	r.Use(middleware.Timeout(2 * time.Minute))

	chatHandler := api.NewChatService(store, components.Table, components.Retriever)

	r.Route("/api/v1", func(r chi.Router) {
		chatHandler.AddRoutes(r)
	})

	return &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	logFile, err := cmd.SetupLogFile(cfg.LogDir, "calore-bot.log", os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	server := createServer(cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port, "llm_provider", cfg.LLMProvider, "model", cfg.Model)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
