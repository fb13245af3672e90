package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
	"github.com/zebutron/turbine-scoring-engine/internal/scoring"
	"github.com/zebutron/turbine-scoring-engine/internal/store"
)

var servePort int

const shutdownTimeout = 10 * time.Second

// drainAndShutdown stops the server on its own deadline. The signal context
// is already cancelled by the time shutdown starts, so it cannot bound the
// drain of in-flight requests.
func drainAndShutdown(srv *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("serve: shutdown", zap.Error(err))
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scoring server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		configPath, _ := cmd.Flags().GetString("config")
		rules, configSource, err := loadScoringRules(ctx, configPath)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(rules, st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			drainAndShutdown(srv, shutdownTimeout)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("config", configSource),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().String("config", "", "scoring config JSON path (default: newest tuning snapshot, else built-in)")
	rootCmd.AddCommand(serveCmd)
}

type scoreCompaniesRequest struct {
	Companies []model.CompanyRecord `json:"companies"`
}

type scoreCompaniesResponse struct {
	Companies []model.ScoredCompany `json:"companies"`
}

type scoreContactsRequest struct {
	Contacts      []model.ContactRecord `json:"contacts"`
	Companies     []model.CompanyRecord `json:"companies"`
	MinConfidence float64               `json:"min_confidence,omitempty"`
	UseBaseline   bool                  `json:"use_baseline,omitempty"`
}

type scoreContactsResponse struct {
	Contacts []model.ScoredContact `json:"contacts"`
}

func newRouter(rules *scoring.Rules, st store.Store) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/score/companies", func(w http.ResponseWriter, req *http.Request) {
		var body scoreCompaniesRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(body.Companies) == 0 {
			writeError(w, http.StatusBadRequest, "companies is required")
			return
		}

		results := scoring.NewCompanyScorer(rules).Score(body.Companies)
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].CompanyScore > results[j].CompanyScore
		})
		writeJSON(w, http.StatusOK, scoreCompaniesResponse{Companies: results})
	})

	r.Post("/v1/score/contacts", func(w http.ResponseWriter, req *http.Request) {
		var body scoreContactsRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(body.Contacts) == 0 {
			writeError(w, http.StatusBadRequest, "contacts is required")
			return
		}

		companies := scoring.NewCompanyScorer(rules).Score(body.Companies)
		candidates := scoring.CandidatesFromCompanies(companies)

		opts := scoring.PipelineOptions{
			MinConfidence: body.MinConfidence,
			Concurrency:   cfg.Batch.MaxConcurrentContacts,
		}
		if opts.MinConfidence == 0 {
			opts.MinConfidence = cfg.Scoring.MinMatchConfidence
		}
		if body.UseBaseline {
			baseline, err := st.GetBaseline(req.Context(), cfg.Scoring.BaselineName)
			if err != nil {
				zap.L().Error("serve: load baseline", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "load baseline")
				return
			}
			opts.Baseline = baseline
		}

		results, err := scoring.ScoreContacts(req.Context(), body.Contacts, candidates, rules, opts)
		if err != nil {
			zap.L().Error("serve: score contacts", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "score contacts")
			return
		}
		writeJSON(w, http.StatusOK, scoreContactsResponse{Contacts: results})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("serve: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
