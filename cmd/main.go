package main

import (
	"chat-relay/broker"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so that deferred cleanups (database close,
// broker drain) always execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. State store (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Pub/sub bridge (NATS)
	bridge, err := broker.Connect(config.NatsURL, "chat-relay", log)
	if err != nil {
		return fmt.Errorf("broker connection failed: %w", err)
	}
	defer bridge.Close()

	// 4. Core services
	store := repositories.NewBadgerStateStore(db)
	presenceRepository := repositories.NewPresenceRepository(store, config.PresenceTTL)
	historyRepository := repositories.NewHistoryRepository(store, config.HistoryCapacity)

	chatService := services.NewChatService(log, historyRepository, bridge, broker.MessageSubject)
	presenceService := services.NewPresenceService(log, presenceRepository)
	hub := runtime.NewHub(log)

	// 5. Delivery pipeline: broker subscription -> channel -> hub fan-out
	payloads, cancelSubscription, err := bridge.Subscribe(broker.MessageSubject, config.DeliveryBufferSize)
	if err != nil {
		return fmt.Errorf("broker subscription failed: %w", err)
	}
	defer cancelSubscription()

	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewDeliveryWorker(log, payloads, hub),
		workers.NewReporterWorker(log, config.ReportInterval, hub.Stats),
	)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 7. HTTP/WebSocket transport
	server := ws.NewServer(log, chatService, presenceService, hub, config.ConnectionBufferSize)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: server.Routes()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
