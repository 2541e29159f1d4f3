package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herowiz/internal/app"
	"herowiz/internal/config"
	"herowiz/internal/logging"
	"herowiz/internal/relay"

	"golang.org/x/time/rate"
)

const ticketTTL = 12 * time.Hour

func main() {
	cfg := config.Load()

	log, err := logging.NewZapLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() && cfg.TicketSecret == "dev-secret" {
		log.Error("HW_TICKET_SECRET must be set in production")
		os.Exit(1)
	}

	tickets := app.NewTicketService(cfg.TicketSecret, "herowiz-relay", ticketTTL)
	hub := relay.NewHub(relay.Config{Rate: rate.Limit(cfg.RelayRate), Burst: cfg.RelayBurst}, tickets, log)

	server := &http.Server{
		Addr:              cfg.RelayAddr,
		Handler:           relay.NewServer(hub),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Relay starting on %s (%s)", server.Addr, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Relay failed to start: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Relay is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Relay forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Info("Relay exited")
}
