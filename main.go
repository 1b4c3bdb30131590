package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/urfave/negroni"

	"github.com/serisow/renomme/analyzer"
	"github.com/serisow/renomme/config"
	"github.com/serisow/renomme/handlers"
	"github.com/serisow/renomme/logging"
	"github.com/serisow/renomme/server"
	"github.com/serisow/renomme/store"
	"github.com/serisow/renomme/workspace"
)

func main() {
	cfg := config.Load()

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// History recording is optional; without a configured database the
	// service runs purely request-scoped.
	var history handlers.HistoryRecorder
	if cfg.DatabaseURL != "" {
		db, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		history = store.NewHistoryStore(db, logger)
	}

	ws := workspace.NewManager(cfg.UploadDir, logger)
	invoker := analyzer.NewScriptInvoker(cfg.PythonBin, cfg.AnalyzerScript, logger)
	service := analyzer.NewService(ws, invoker, logger)

	// Sweep staged files orphaned by a previous crash.
	cleanup := workspace.NewCleanupService(logger, cfg.UploadDir, cfg.UploadRetention)
	cleanup.StartCleanupSchedule(1 * time.Hour)

	analyzeHandler := handlers.NewAnalyzeHandler(service, history, logger, cfg.MaxUploadSize)
	r := server.SetupRoutes(analyzeHandler)
	n := setupNegroni(r, cfg.AllowedOrigins)

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg.Domains, cfg.CertCacheDir)
	} else {
		srv := &http.Server{
			Addr:        ":" + cfg.HTTPPort,
			Handler:     n,
			IdleTimeout: time.Minute,
			ReadTimeout: 5 * time.Second,
			// No write timeout: a request stays open for as long as the
			// analyzer runs.
		}
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router, allowedOrigins []string) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	// The CORS middleware also answers OPTIONS preflight requests with an
	// empty success advertising the accepted methods.
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	n.UseHandler(c.Handler(r))
	return n
}

func initLogger() (*slog.Logger, error) {
	logDir := filepath.Join("logs", "analyzer")

	fileHandler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	return slog.New(fileHandler), nil
}
