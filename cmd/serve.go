package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/insight"
	"github.com/sells-group/account-intel/internal/reconcile"
	"github.com/sells-group/account-intel/internal/store"
	"github.com/sells-group/account-intel/pkg/notion"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for scoring requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, err := newEngine()
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		if err := s.Migrate(ctx); err != nil {
			return eris.Wrap(err, "serve: migrate")
		}

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/score", handleScore(engine, s))
		r.Post("/v1/reconcile", handleReconcile(s))
		r.Get("/v1/runs", handleRuns(s))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// handleScore runs the full engine over stored transactions and returns the
// signal set.
func handleScore(engine *insight.Engine, s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		now := time.Now().UTC()

		entities, err := loadFacts(ctx, s, now)
		if err != nil {
			zap.L().Error("score request failed", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load facts"})
			return
		}

		signals, err := engine.ScoreAll(ctx, entities, cfg.Batch.MaxConcurrentEntities, now)
		if err != nil {
			zap.L().Error("score request failed", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "scoring failed"})
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"accounts": len(signals),
			"signals":  signals,
		})
	}
}

// handleReconcile runs a store-vs-board reconciliation and returns the
// report. Corrections are never pushed from here; that stays a CLI decision.
func handleReconcile(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		if cfg.Notion.ContractDB == "" {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "notion contract database not configured"})
			return
		}

		sources, err := storedSources(ctx, s)
		if err != nil {
			zap.L().Error("reconcile request failed", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load source records"})
			return
		}

		nc, err := initNotion()
		if err != nil {
			zap.L().Error("reconcile request failed", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "notion client unavailable"})
			return
		}

		contracts, err := notion.FetchContracts(ctx, nc, cfg.Notion.ContractDB)
		if err != nil {
			zap.L().Error("reconcile request failed", zap.Error(err))
			respondJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch contract board"})
			return
		}

		idx := reconcile.NewTargetIndex(notion.Targets(contracts))
		respondJSON(w, http.StatusOK, reconcile.Reconcile(sources, idx))
	}
}

// handleRuns lists recent scoring runs.
func handleRuns(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

		runs, err := s.ListRuns(req.Context(), limit)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
			return
		}
		respondJSON(w, http.StatusOK, runs)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
