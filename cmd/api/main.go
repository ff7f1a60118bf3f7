package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"programs-assistant/cmd"
	"programs-assistant/internal/api"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	cmd.StorageConfig
	cmd.ProgramsConfig
	cmd.AssistantConfig

	APIPort        string        `env:"API_PORT" envDefault:"8001"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`
}

func createServer(cfg APIConfig, service *api.ChatService) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	return &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}
}

func main() {
	log.Println("Starting chat API server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	ctx := context.Background()

	store := cmd.CreateStorage(ctx, cfg.StorageConfig, false)
	programs := cmd.LoadPrograms(cfg.ProgramsConfig)
	assistant := cmd.CreateAssistant(ctx, cfg.AssistantConfig, store, programs)

	var transcripts api.TranscriptStore
	if assistant.Transcripts != nil {
		transcripts = assistant.Transcripts
	}
	service := api.NewChatService(assistant.Sessions, assistant.Asker, transcripts)

	server := createServer(cfg, service)

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

	slog.Info("server started", "port", cfg.APIPort, "programs", len(programs))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v", cfg.APIPort, err)
	}

	slog.Info("server stopped")
}
