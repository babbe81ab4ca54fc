// Command server exposes Monte Carlo simulations over HTTP and streams
// trial progress to websocket subscribers.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"prop-simulator/internal/api"
	"prop-simulator/internal/cache"
	"prop-simulator/internal/observability"
	"prop-simulator/internal/orchestrator"
	"prop-simulator/internal/storage/stores"
	"prop-simulator/internal/stream"
)

func main() {
	// Load .env file if exists; real env vars win
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("SERVER_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for runs")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for per-trial results")
	sqlitePath := flag.String("sqlite-path", os.Getenv("SQLITE_PATH"), "SQLite file for runs when no PostgreSQL DSN is given")
	migrate := flag.Bool("migrate", false, "Apply PostgreSQL/ClickHouse migrations on start")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for caching seeded runs")
	corsOrigins := flag.String("cors-origins", envOr("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"), "Comma-separated allowed CORS origins")
	verbose := flag.Bool("verbose", false, "Verbose orchestrator logging")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	st, cleanup, err := stores.Open(ctx, stores.Config{
		PostgresDSN:   *postgresDSN,
		ClickhouseDSN: *clickhouseDSN,
		SqlitePath:    *sqlitePath,
		Migrate:       *migrate,
	})
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()
	logger.Printf("Storage: runs=%s trials=%s", st.RunBackend, st.TrialBackend)

	// Progress hub
	hubConfig := stream.DefaultHubConfig()
	hub := stream.NewHub(&hubConfig, log.New(os.Stdout, "[stream] ", log.LstdFlags), observability.DefaultMetrics)
	defer hub.Close()

	opts := orchestrator.Options{
		RunStore:         st.Runs,
		TrialResultStore: st.Trials,
		OnProgress: func(runID string, completed, total int) {
			hub.Broadcast(stream.ProgressEvent{
				RunID:     runID,
				Completed: completed,
				Total:     total,
				Done:      completed == total,
			})
		},
		Logger:  log.New(os.Stdout, "[orchestrator] ", log.LstdFlags),
		Verbose: *verbose,
	}
	if *redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, *redisAddr, cache.DefaultTTL)
		if err != nil {
			logger.Printf("WARN: redis unavailable, continuing without cache: %v", err)
		} else {
			defer rc.Close()
			opts.Cache = rc
		}
	}

	// Router
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     splitList(*corsOrigins),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	api.NewHandler(orchestrator.New(opts), st.Runs, logger).Register(r)
	r.GET("/ws/progress", gin.WrapH(hub))
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Graceful shutdown failed: %v", err)
		}
	}()

	logger.Printf("Starting HTTP server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// envOr returns the environment value for key, or def when unset.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
