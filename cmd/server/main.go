package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/liamcoop/fakerules/expr"
	"github.com/liamcoop/fakerules/fake"
	"github.com/liamcoop/fakerules/fakehub"
	"github.com/liamcoop/fakerules/internal/config"
	"github.com/liamcoop/fakerules/internal/logger"
	"github.com/liamcoop/fakerules/journal"
)

type Server struct {
	cfg     config.Config
	db      *sql.DB
	hub     *fakehub.Hub
	journal journal.Store
	router  *chi.Mux
}

// NewServer creates a server. With a database, recorded calls are
// journaled to Postgres; without one the journal is disabled.
func NewServer(cfg config.Config, db *sql.DB) *Server {
	var store journal.Store
	if db != nil {
		store = journal.NewPostgresStore(db)
	}
	return newServer(cfg, db, store)
}

func newServer(cfg config.Config, db *sql.DB, store journal.Store) *Server {
	var opts []fake.Option
	if store != nil {
		opts = append(opts, fake.WithObserver(journal.Recorder(store, cfg.JournalTimeout)))
	}

	s := &Server{
		cfg:     cfg,
		db:      db,
		hub:     fakehub.NewHub(opts...),
		journal: store,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/api/v1/health", s.handleHealth)

	r.Route("/api/v1/fakes", func(r chi.Router) {
		r.Get("/", s.handleListFakes)
		r.Post("/", s.handleCreateFake)

		r.Route("/{fakeId}", func(r chi.Router) {
			r.Get("/", s.handleGetFake)
			r.Put("/", s.handleRedefineFake)
			r.Delete("/", s.handleDeleteFake)

			r.Post("/rules", s.handleCreateRule)
			r.Get("/rules", s.handleListRules)
			r.Delete("/rules/{ruleId}", s.handleDeleteRule)

			r.Post("/calls", s.handleIntercept)
			r.Get("/calls", s.handleListCalls)

			r.Post("/assertions", s.handleAssert)
			r.Get("/journal", s.handleJournal)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}

func openDatabase(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := journal.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (defaults to FAKE_SERVER_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)
	expr.ConfigureShared(expr.WithCostLimit(cfg.ExprCostLimit))

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = openDatabase(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()
	} else {
		logger.Warn("DATABASE_URL not set, call journal disabled")
	}

	server := NewServer(cfg, db)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
	}
	logger.Info("server stopped")
}
