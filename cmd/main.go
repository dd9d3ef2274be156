// haloop-match-service
//
// Reverse search over work postings: subscribers store filter
// subscriptions, each new posting is percolated against all of them, and
// matched subscribers are notified durably (Postgres) and live (SSE).
// A scheduled soft scorer keeps per-subscriber recommendations fresh.
//
//   - POST /internal/postings            — posting lifecycle intake
//   - /subscriptions, /notifications,
//     /recommendations                   — subscriber API behind the Gateway
//   - notification_jobs queue            — durable dispatch with retries
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ke1ly/haloop-match-service/internal/config"
	"github.com/Ke1ly/haloop-match-service/internal/db"
	"github.com/Ke1ly/haloop-match-service/internal/docindex"
	"github.com/Ke1ly/haloop-match-service/internal/document"
	"github.com/Ke1ly/haloop-match-service/internal/httpapi"
	"github.com/Ke1ly/haloop-match-service/internal/notify"
	"github.com/Ke1ly/haloop-match-service/internal/percolator"
	"github.com/Ke1ly/haloop-match-service/internal/posting"
	"github.com/Ke1ly/haloop-match-service/internal/queue"
	"github.com/Ke1ly/haloop-match-service/internal/realtime"
	"github.com/Ke1ly/haloop-match-service/internal/recommend"
	"github.com/Ke1ly/haloop-match-service/internal/subscription"
)

const version = "1.0.0"

// jobRetention is how long COMPLETED dispatch jobs are kept before the
// daily sweep deletes them.
const jobRetention = 30 * 24 * time.Hour

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[match-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[match-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[match-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[match-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[match-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[match-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[match-service] Redis connected ✓")

	// ── Realtime broker ──────────────────────────────────────────────────────
	var broker realtime.Broker
	if cfg.DeliveryMode == config.DeliveryRedis {
		broker = realtime.NewRedisBroker(rdb)
	} else {
		broker = realtime.NewMemoryBroker()
	}
	log.Printf("[match-service] Realtime delivery: %s", cfg.DeliveryMode)

	// ── Stores ───────────────────────────────────────────────────────────────
	subRepo := subscription.NewRepo(pool)
	matchStore := subscription.NewMatchStore(pool)
	feedStore := posting.NewFeedStore(pool)
	notifStore := notify.NewStore(pool)
	directory := notify.NewProfileDirectory(pool)
	jobRepo := queue.NewRepo(pool)
	entryStore := recommend.NewEntryStore(rdb)

	// ── Indexes ──────────────────────────────────────────────────────────────
	predicates := percolator.NewIndex()
	if err := predicates.Bootstrap(ctx, subRepo); err != nil {
		log.Fatalf("[match-service] Predicate index bootstrap: %v", err)
	}

	docs := docindex.NewIndex()
	if err := docs.Sync(ctx, feedStore, document.Transform); err != nil {
		log.Fatalf("[match-service] Document index sync: %v", err)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	subService := subscription.NewService(subRepo, matchStore, predicates)
	postingService := posting.NewService(feedStore, docs, jobRepo)
	fanout := notify.NewFanout(notifStore, broker, directory)
	dispatcher := queue.NewDispatcher(docs, predicates, matchStore, fanout)

	// ── Dispatch workers ─────────────────────────────────────────────────────
	workers := queue.NewPool(jobRepo, dispatcher, cfg.Workers, cfg.JobsPerMinute)
	go workers.Run(ctx)

	// ── Recommendation scheduler ─────────────────────────────────────────────
	runner := recommend.NewRunner(subRepo, docs, entryStore,
		time.Duration(cfg.RecommendPace)*time.Millisecond)
	scheduler := recommend.NewScheduler(runner, cfg.RecommendSpec)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("[match-service] Scheduler: %v", err)
	}

	// ── Job retention sweep ──────────────────────────────────────────────────
	go purgeLoop(ctx, jobRepo)

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := httpapi.NewHandler(subService, notifStore, directory, docs,
		entryStore, jobRepo, postingService, broker)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /notifications/stream holds its connection open.
	}

	go func() {
		log.Printf("[match-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[match-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[match-service] Shutting down…")
	scheduler.Stop()
	cancel() // stops workers and the purge loop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[match-service] Shutdown error: %v", err)
	}
	log.Println("[match-service] Stopped.")
}

// purgeLoop deletes old COMPLETED jobs once a day.
func purgeLoop(ctx context.Context, repo *queue.Repo) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeCompleted(ctx, jobRetention)
			if err != nil {
				log.Printf("[match-service] Job purge: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[match-service] Purged %d completed job(s)", n)
			}
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "match-service",
		"version": version,
	})
}
