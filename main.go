package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"feedboard/internal/auth"
	"feedboard/internal/credentials"
	"feedboard/internal/dashboard/application"
	dashhttp "feedboard/internal/dashboard/interfaces/http"
	"feedboard/internal/observability/metrics"
	recordsapp "feedboard/internal/records/application"
	"feedboard/internal/records/infrastructure/cache"
	"feedboard/internal/records/infrastructure/postgres"
	"feedboard/internal/records/infrastructure/spreadsheet"

	records "feedboard/internal/records/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)
	metrics.Init()

	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(cfg.RedisURL, cfg.FreshnessTTL)
		if err != nil {
			logger.Fatalf("redis cache error: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		store = cache.NewMemoryStore(cfg.FreshnessTTL)
	}

	var source recordsapp.Source
	var workbookPath string
	switch cfg.SourceKind {
	case "spreadsheet":
		workbook, err := spreadsheet.NewWorkbookSource(cfg.WorkbookPath, spreadsheet.WithSheet(cfg.WorkbookSheet))
		if err != nil {
			logger.Fatalf("workbook source error: %v", err)
		}
		source = workbook
		workbookPath = workbook.Path()
	case "postgres":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			creds, origin, err := credentials.Resolve(cfg.CredentialsPath)
			if err != nil {
				logger.Fatalf("credentials error: %v", err)
			}
			logger.Printf("credentials resolved from %s", origin)
			if creds.Anonymous() {
				logger.Printf("no credentials found, attempting default connection")
			}
			dsn = creds.DSN()
		}
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()

		repo := postgres.NewSummaryRepository(db, postgres.WithTable(cfg.SummaryTable))
		if err := repo.Ping(context.Background()); err != nil {
			// Startup proceeds; every render reports the source
			// unavailable until connectivity returns.
			logger.Printf("document store unreachable: %v", err)
		}
		source = repo
	}

	loader, err := recordsapp.NewLoader(source, store, logger)
	if err != nil {
		logger.Fatalf("loader error: %v", err)
	}
	if workbookPath != "" && cfg.WatchWorkbook {
		go func() {
			err := recordsapp.WatchWorkbook(context.Background(), workbookPath, loader, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("workbook watcher stopped: %v", err)
			}
		}()
	}

	sessions := application.NewSessionStore(cfg.SessionTTL)
	service, err := application.NewService(loader, sessions, records.ValueMode(cfg.ValueMode), logger)
	if err != nil {
		logger.Fatalf("dashboard service error: %v", err)
	}

	dashboardHandler, err := dashhttp.NewDashboardHandler(service)
	if err != nil {
		logger.Fatalf("dashboard handler error: %v", err)
	}
	recordsHandler, err := dashhttp.NewRecordsHandler(service)
	if err != nil {
		logger.Fatalf("records handler error: %v", err)
	}
	filtersHandler, err := dashhttp.NewFiltersHandler(service)
	if err != nil {
		logger.Fatalf("filters handler error: %v", err)
	}
	xlsxHandler, err := dashhttp.NewExportHandler(service, "xlsx")
	if err != nil {
		logger.Fatalf("xlsx export handler error: %v", err)
	}
	pdfHandler, err := dashhttp.NewExportHandler(service, "pdf")
	if err != nil {
		logger.Fatalf("pdf export handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/dashboard", dashboardHandler)
	mux.Handle("/api/v1/records", recordsHandler)
	mux.Handle("/api/v1/filters/", filtersHandler)
	mux.Handle("/api/v1/exports/report.xlsx", xlsxHandler)
	mux.Handle("/api/v1/exports/report.pdf", pdfHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s (source=%s)", cfg.HTTPAddr, cfg.SourceKind)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
