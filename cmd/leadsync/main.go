// leadsync: lead discovery service.
//
// Scans saved keyword profiles with grounded Gemini search, extracts social
// posts and communities from the answers, and keeps a deduplicated lead
// board with outreach status. Exposes:
//   - a JSON REST API on LEADSYNC_PORT
//   - the gRPC health service on GRPC_PORT
//   - a cron loop rescanning every profile every SCAN_INTERVAL_HOURS
//
// Publishes EVENT_* notifications to Redis when REDIS_URL is set.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"leadsync/internal/ai"
	"leadsync/internal/collection"
	"leadsync/internal/config"
	"leadsync/internal/db"
	"leadsync/internal/discovery"
	"leadsync/internal/events"
	"leadsync/internal/grpcserver"
	"leadsync/internal/outreach"
	"leadsync/internal/prompt"
	"leadsync/internal/scheduler"
	"leadsync/internal/store"
)

const version = "1.0.0"

func main() {
	godotenv.Load()

	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[leadsync] Config error: %v", err)
	}
	if err := config.ApplyRules(cfg.RulesFile); err != nil {
		log.Fatalf("[leadsync] Rules error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis (optional event bus) ───────────────────────────────────────────
	var (
		rdb *redis.Client
		pub events.Publisher = events.Nop{}
	)
	if cfg.RedisURL != "" {
		log.Println("[leadsync] Connecting to Redis…")
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[leadsync] Redis: %v", err)
		}
		defer rdb.Close()
		pub = events.NewRedisPublisher(rdb)
		log.Println("[leadsync] Redis connected ✓")
	}

	// ── Store ────────────────────────────────────────────────────────────────
	opts := cfg.StoreOptions()
	opts.Redis = rdb
	kv, closeStore, err := store.Open(ctx, opts)
	if err != nil {
		log.Fatalf("[leadsync] Store (%s): %v", cfg.StoreBackend, err)
	}
	defer closeStore()
	repo := store.NewRepository(kv)
	log.Printf("[leadsync] Store ready (%s) ✓", cfg.StoreBackend)

	// ── Gemini ───────────────────────────────────────────────────────────────
	gem, err := ai.NewGemini(ctx, ai.Config{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		Temperature: cfg.GeminiTemperature,
		Timeout:     cfg.AITimeout,
		RPM:         cfg.GeminiRPM,
		RPD:         cfg.GeminiRPD,
	})
	if err != nil {
		log.Fatalf("[leadsync] Gemini: %v", err)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	worker := discovery.NewWorker(repo, gem, gem, pub,
		discovery.WithBuilder(prompt.Builder{RecencyDays: cfg.RecencyDays}))
	profiles := collection.NewService(repo, pub)
	board := outreach.NewService(repo, pub)

	if seeded, err := profiles.EnsureDefault(ctx); err != nil {
		log.Fatalf("[leadsync] Seed default profile: %v", err)
	} else if seeded {
		log.Println("[leadsync] Seeded default profile")
	}

	// ── Scheduler ────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.ScanIntervalHours > 0 {
		sched = scheduler.New(repo, worker, cfg.ScanIntervalHours)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("[leadsync] Scheduler: %v", err)
		}
	} else {
		log.Println("[leadsync] Scheduler disabled (SCAN_INTERVAL_HOURS=0)")
	}

	// ── gRPC health ──────────────────────────────────────────────────────────
	grpcSrv := grpcserver.New(repo)
	go grpcSrv.Watch(ctx, 30*time.Second)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[leadsync] gRPC listen: %v", err)
	}
	go func() {
		log.Printf("[leadsync] gRPC health listening on :%s", cfg.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			log.Printf("[leadsync] gRPC server error: %v", err)
		}
	}()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(repo))
	collection.NewHandler(profiles).RegisterRoutes(mux)
	outreach.NewHandler(board).RegisterRoutes(mux)
	discovery.NewHandler(worker).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Must outlast AI_TIMEOUT: scan requests wait on the model.
		WriteTimeout: cfg.AITimeout + 10*time.Second,
	}

	go func() {
		log.Printf("[leadsync] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[leadsync] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[leadsync] Shutting down…")
	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[leadsync] Shutdown error: %v", err)
	}
	grpcSrv.Stop()
	log.Println("[leadsync] Stopped.")
}

func healthHandler(repo *store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := repo.Ping(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"service": "leadsync",
			"version": version,
		})
	}
}
