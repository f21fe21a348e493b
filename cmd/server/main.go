package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/api/http"
	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/assessment"
	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/audit"
	auth "github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/auth/middleware"
	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/catalog"
	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/config"
	"github.com/renemunyeshyaka/cybersecurity-aptitude-test/internal/db"
)

func main() {
	cfg := config.FromEnv()

	cat, err := catalog.LoadDefault()
	if err != nil {
		log.Fatalf("load question bank: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store assessment.Store
	var events assessment.EventSink
	if cfg.DBDriver == "memory" {
		store = assessment.NewInMemoryStore()
	} else {
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		store = assessment.NewSQLStore(dbh)
		events = audit.NewEventRepo(dbh)
	}

	svc := assessment.NewService(store, cat, assessment.Options{
		PerCategory:    cfg.QuestionsPerCategory,
		MaxDurationSec: cfg.MaxTestDuration,
	}, events)

	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/test", func(tr chi.Router) {
		tr.Post("/start", api.StartTestHandler(svc))
		tr.Post("/submit", api.SubmitTestHandler(svc))
		tr.Get("/{testID}", api.TestDetailHandler(svc))
	})

	r.Route("/api/admin", func(ar chi.Router) {
		ar.Post("/login", auth.LoginHandler(authSvc))
		ar.Group(func(pr chi.Router) {
			pr.Use(auth.AdminOnly(authSvc))
			pr.Get("/participants", api.ListParticipantsHandler(svc))
			pr.Get("/tests", api.ListTestsHandler(svc))
			pr.Get("/dashboard/stats", api.DashboardStatsHandler(svc))
			pr.Get("/export/csv", api.ExportCSVHandler(svc))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, bank=%d questions)", cfg.HTTPAddr, cfg.DBDriver, cat.Size())
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
