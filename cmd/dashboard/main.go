package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dealpulse/internal/collector"
	"dealpulse/internal/config"
	"dealpulse/internal/metrics"
	"dealpulse/internal/recorder"
	"dealpulse/internal/scheduler"
	"dealpulse/internal/server"
	"dealpulse/internal/store"
	"dealpulse/internal/watcher"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] dealpulse starting...")

	_ = godotenv.Load() // best-effort: .env is optional

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("[FATAL] load timezone: %v", err)
	}

	// Init fetcher
	fetcher := collector.NewAgendorFetcher(cfg.API.BaseURL, cfg.API.Token, cfg.PollTimeout(), cfg.PageTimeout())
	log.Printf("[INFO] deal source: %s (%s)", fetcher.Name(), cfg.API.BaseURL)

	// Init snapshot store
	st := store.New(cfg.WinEventTTL())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init aggregation pipeline
	agg := metrics.New(fetcher, cfg.Goals, loc)
	sched := scheduler.NewScheduler(agg, st, rec, loc)
	if err := sched.Register(cfg.Schedule.RecomputeCron); err != nil {
		log.Fatalf("[FATAL] register recompute task: %v", err)
	}

	// First load before serving any request
	log.Println("[INFO] computing initial metrics...")
	sched.RunInitial()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start()
	defer sched.Stop()

	// Start win watcher
	w := watcher.New(fetcher, st, sched, rec, cfg.WinPollInterval())
	go w.Run(ctx)
	log.Println("[INFO] win watcher started")

	// HTTP boundary
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.New(st).Router(),
	}
	go func() {
		log.Printf("[INFO] dashboard API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] dealpulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] dealpulse stopped")
}
