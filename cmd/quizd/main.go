package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/seed"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	store := quiz.NewSQLStore(dbh, string(driver))

	if cfg.SeedQuestions {
		qs, err := seed.Default()
		if err != nil {
			log.Fatalf("seed bank: %v", err)
		}
		if _, err := seed.Load(ctx, store, qs); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	// --- Quiz flow ---
	var attempts session.AttemptStore = session.NewMemoryStore()
	if cfg.AttemptStore == "sql" {
		attempts = session.NewSQLStore(dbh)
	}
	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	svc := session.NewService(store, store, attempts, grading.NewEngine(),
		session.WithTTL(cfg.SessionTTL),
		session.WithDefaultCount(cfg.DefaultQuestionCount),
		session.WithRecorder(events),
	)
	blobs, err := storage.NewFSStore(cfg.BlobDir)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	handles := api.NewAttemptHandles(cfg.SessionSecret, cfg.SessionTTL, cfg.Mode == config.ModeOnline)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Quiz-Attempt"},
		ExposedHeaders:   []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	deps := api.Deps{
		Service:   svc,
		Questions: store,
		Handles:   handles,
		Events:    events,
		Blobs:     blobs,
		DB:        dbh,
	}
	// Local staff login (on in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		deps.Auth = &api.AuthDeps{
			Service:  auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL),
			Accounts: []auth.Account{{User: cfg.AdminUser, PassHash: cfg.AdminPassHash, Role: "admin"}},
		}
	}
	api.Mount(r, deps)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweep(runCtx, svc, cfg.SessionTTL)

	go func() {
		log.Printf("listening on %s (mode=%s, db=%s, attempts=%s)", cfg.HTTPAddr, cfg.Mode, driver, cfg.AttemptStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	<-runCtx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// sweep drops expired attempts until ctx is done.
func sweep(ctx context.Context, svc *session.Service, ttl time.Duration) {
	every := ttl / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := svc.Sweep(ctx); err != nil {
				log.Printf("sweep attempts: %v", err)
			} else if n > 0 {
				log.Printf("swept %d expired attempts", n)
			}
		}
	}
}
