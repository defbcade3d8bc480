package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"aitestlms/internal/app"
	"aitestlms/internal/assistant"
	"aitestlms/internal/bank"
	"aitestlms/internal/db"
	"aitestlms/internal/report"
	"aitestlms/internal/session"
	"aitestlms/internal/store"
	"aitestlms/internal/testdef"
)

// backingStore is the full persistence surface both store implementations
// provide.
type backingStore interface {
	testdef.Store
	session.DefinitionStore
	session.SessionStore
	session.ResultStore
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	var (
		st     backingStore
		dbConn *sql.DB
	)
	switch cfg.StoreBackend {
	case "postgres":
		dbConn, err = db.OpenPostgres(context.Background(), cfg.DBDSN)
		if err != nil {
			log.Printf("database error: %v", err)
			os.Exit(1)
		}
		defer dbConn.Close()

		pg := store.NewPostgres(dbConn)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Printf("schema error: %v", err)
			os.Exit(1)
		}
		st = pg
	default:
		st = store.NewMemory()
	}

	questionBank := bank.NewWithDefaults()
	feedback := assistant.NewService(assistant.ServiceConfig{
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
	})

	definitions := testdef.NewService(questionBank, st, cfg.DefaultDurationMinutes)
	coordinator := session.NewCoordinator(st, st, st, feedback)
	reports := report.NewService(st, st)

	if cfg.SessionExpirySweep {
		go runExpirySweep(coordinator, time.Duration(cfg.SweepIntervalSeconds)*time.Second)
	}

	r := app.NewRouter(cfg, app.RouterDeps{
		DB:          dbConn,
		Definitions: definitions,
		Coordinator: coordinator,
		Reports:     reports,
	})

	log.Printf("aitestlms web listening on %s (store=%s)", cfg.HTTPAddr, cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}

func runExpirySweep(coordinator *session.Coordinator, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		ended, err := coordinator.ExpireOverdue(ctx)
		cancel()
		if err != nil {
			log.Printf("expiry sweep error: %v", err)
			continue
		}
		if ended > 0 {
			log.Printf("expiry sweep ended %d overdue sessions", ended)
		}
	}
}
