package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/saga-engine/internal/config"
	"github.com/jwebster45206/saga-engine/internal/handlers"
	"github.com/jwebster45206/saga-engine/internal/logger"
	"github.com/jwebster45206/saga-engine/internal/services"
	"github.com/jwebster45206/saga-engine/internal/services/events"
	"github.com/jwebster45206/saga-engine/internal/session"
	"github.com/jwebster45206/saga-engine/internal/storage"
	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/consequence"
	"github.com/jwebster45206/saga-engine/pkg/engine"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Saga Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"narrator_provider", cfg.NarratorProvider,
		"combat_interval", cfg.CombatInterval)

	var narrator services.Narrator
	switch strings.ToLower(cfg.NarratorProvider) {
	case "venice":
		if cfg.NarratorAPIKey == "" {
			log.Error("Narrator API key is required when using venice provider")
			os.Exit(1)
		}
		narrator = services.NewVeniceNarrator(cfg.NarratorAPIKey, cfg.NarratorModel, cfg.NarratorTimeout)
		log.Info("Using Venice narrator")
	case "mock", "":
		narrator = services.NewMockNarrator()
		log.Info("Using mock narrator")
	default:
		log.Error("Invalid narrator provider specified", "provider", cfg.NarratorProvider, "supported", []string{"venice", "mock"})
		os.Exit(1)
	}

	store := storage.NewRedisStore(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	scheduler := consequence.NewScheduler(store, log)
	eng := engine.New(store, store, narrator, scheduler, combat.NewRNG(time.Now().UnixNano()), engine.Config{
		CombatInterval: cfg.CombatInterval,
		NarrateTimeout: cfg.NarratorTimeout,
	}, log)
	eng.SetEvents(events.NewBroadcaster(store.Client(), log))

	locker := session.NewLocker(store.Client(), log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	sessionHandler := handlers.NewSessionHandler(store, eng, locker, scheduler, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	questsHandler := handlers.NewQuestsHandler(store, log)
	mux.Handle("/v1/quests", questsHandler)
	mux.Handle("/v1/quests/", questsHandler)

	eventsHandler := handlers.NewEventsHandler(store.Client(), log)
	mux.Handle("/v1/events/sessions/", eventsHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout omitted so SSE connections can stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
