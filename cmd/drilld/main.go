package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	api "github.com/sansudrill/drill-backend/internal/api/http"
	"github.com/sansudrill/drill-backend/internal/authz"
	"github.com/sansudrill/drill-backend/internal/config"
	"github.com/sansudrill/drill-backend/internal/db"
	"github.com/sansudrill/drill-backend/internal/quiz"
	"github.com/sansudrill/drill-backend/internal/sheet"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

const version = "v0.4.0"

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- Store ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store sheet.Store
	if cfg.DBDriver == "memory" {
		store = sheet.NewMemoryStore()
	} else {
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		store = sheet.NewSQLStore(dbh)
	}

	// --- Allow-list gate ---
	gate, open := buildGate(cfg)
	if open {
		log.Printf("allow-list is empty: running in open mode")
	}

	// --- Service ---
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Fatalf("bad TIME_ZONE %q: %v", cfg.TimeZone, err)
	}
	svc := quiz.NewService(store, quiz.Options{
		Gate:          gate,
		TimeZone:      loc,
		Locale:        language.Make(cfg.Locale),
		Version:       version,
		CacheTTL:      cfg.DedupCacheTTL,
		LockWait:      cfg.LockWait,
		ScanRows:      cfg.DedupScanRows,
		RecencyWindow: cfg.DedupWindow,
		OverlayCols:   cfg.OverlayCols,
		OverlayRows:   cfg.OverlayRows,
	})

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", api.HealthHandler(svc))
	r.Get("/domains", api.DomainsHandler(svc))
	r.Get("/questions", api.QuestionsHandler(svc))
	r.Post("/responses", api.LogResponseHandler(svc))
	r.Get("/summary/today", api.SummaryHandler(svc))
	r.Get("/overlay/today", api.OverlayHandler(svc))

	log.Printf("listening on %s (mode=%s, db=%s, tz=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.TimeZone)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// buildGate assembles the allow-list gate from the inline env value or
// a file. The second return reports open (allow-everyone) mode.
func buildGate(cfg config.Config) (authz.Gate, bool) {
	raw := cfg.AllowList
	if raw == "" && cfg.AllowListFile != "" {
		buf, err := os.ReadFile(cfg.AllowListFile)
		if err != nil {
			log.Fatalf("read allow-list file %q: %v", cfg.AllowListFile, err)
		}
		raw = string(buf)
	}
	if len(authz.ParseList(raw)) == 0 {
		return authz.AllowAll(), true
	}
	return authz.FromList(raw), false
}
