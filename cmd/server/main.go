// Package main is the entry point for the telemetry collector.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stevelerner/tinyotel/internal/api"
	"github.com/stevelerner/tinyotel/internal/config"
	"github.com/stevelerner/tinyotel/internal/ingest"
	"github.com/stevelerner/tinyotel/internal/query"
	"github.com/stevelerner/tinyotel/internal/store"
	"github.com/stevelerner/tinyotel/internal/store/redisbackend"
)

func main() {
	log.Println("Starting telemetry collector...")

	cfg := config.Load()

	aliases, err := config.LoadHTTPAliases(cfg.HTTPAliasesPath)
	if err != nil {
		log.Printf("Loading HTTP aliases from %s: %v (using built-in defaults)", cfg.HTTPAliasesPath, err)
	}

	backendLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	backend, err := redisbackend.New(ctx, cfg.BackendHost, cfg.BackendPort, backendLogger)
	cancel()
	if err != nil {
		log.Fatalf("Connecting to backend: %v", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("Error closing backend: %v", err)
		}
	}()

	ttl := time.Duration(cfg.RetentionTTLSeconds) * time.Second
	st := store.New(backend, ttl, cfg.MaxMetricCardinality)
	qry := query.New(backend, aliases)

	otlpReceiver := ingest.NewReceiver(cfg.OTLPHTTPAddr, st)
	apiServer := api.NewServer(cfg.APIAddr, qry, st, cfg.MaxMetricCardinality)

	errChan := make(chan error, 2)

	go func() {
		log.Printf("Starting OTLP/HTTP receiver on %s", cfg.OTLPHTTPAddr)
		if err := otlpReceiver.Start(); err != nil {
			errChan <- fmt.Errorf("OTLP HTTP receiver error: %w", err)
		}
	}()

	go func() {
		log.Printf("Starting query API server on %s", cfg.APIAddr)
		if err := apiServer.Start(); err != nil {
			errChan <- fmt.Errorf("query API server error: %w", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	log.Println("All servers started successfully")
	log.Println("OTLP endpoints:")
	log.Printf("  - HTTP: http://%s/v1/traces", cfg.OTLPHTTPAddr)
	log.Printf("  - HTTP: http://%s/v1/logs", cfg.OTLPHTTPAddr)
	log.Printf("  - HTTP: http://%s/v1/metrics", cfg.OTLPHTTPAddr)
	log.Println("Query API:")
	log.Printf("  - http://%s/api/traces", cfg.APIAddr)
	log.Printf("  - http://%s/api/spans", cfg.APIAddr)
	log.Printf("  - http://%s/api/logs", cfg.APIAddr)
	log.Printf("  - http://%s/api/metrics", cfg.APIAddr)
	log.Printf("  - http://%s/api/service-map", cfg.APIAddr)
	log.Printf("  - http://%s/api/stats", cfg.APIAddr)
	log.Printf("  - http://%s/health", cfg.APIAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v, shutting down...", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down servers...")
	if err := otlpReceiver.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down OTLP receiver: %v", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down query API server: %v", err)
	}

	log.Println("Shutdown complete")
}
