package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich-cli/internal/enrich"
	"github.com/sells-group/lead-enrich-cli/internal/model"
	"github.com/sells-group/lead-enrich-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for enrichment requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
			hours := 24
			if h := req.URL.Query().Get("hours"); h != "" {
				fmt.Sscanf(h, "%d", &hours)
			}
			snap, err := env.Collector.Collect(req.Context(), hours)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})

		r.Route("/api/leads", func(r chi.Router) {
			r.Post("/", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Email     string `json:"email"`
					FirstName string `json:"first_name"`
					LastName  string `json:"last_name"`
					Company   string `json:"company"`
					Website   string `json:"website"`
					JobTitle  string `json:"job_title"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
					return
				}
				if !strings.Contains(body.Email, "@") {
					writeError(w, http.StatusBadRequest, eris.New("valid email is required"))
					return
				}

				lead := &model.Lead{
					Email:     strings.ToLower(strings.TrimSpace(body.Email)),
					FirstName: body.FirstName,
					LastName:  body.LastName,
					Company:   body.Company,
					Website:   body.Website,
					JobTitle:  body.JobTitle,
					Source:    model.LeadSourceAPI,
				}
				if err := env.Store.CreateLead(req.Context(), lead); err != nil {
					writeError(w, http.StatusInternalServerError, err)
					return
				}
				writeJSON(w, http.StatusCreated, lead)
			})

			r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
				lead, err := env.Store.GetLead(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusInternalServerError, err)
					return
				}
				if lead == nil {
					writeError(w, http.StatusNotFound, eris.New("lead not found"))
					return
				}
				writeJSON(w, http.StatusOK, lead)
			})

			r.Get("/{id}/logs", func(w http.ResponseWriter, req *http.Request) {
				logs, err := env.Store.ListLogs(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusInternalServerError, err)
					return
				}
				writeJSON(w, http.StatusOK, logs)
			})

			r.Post("/{id}/enrich", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Types []string `json:"types"`
				}
				if req.Body != nil && req.ContentLength != 0 {
					if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
						writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
						return
					}
				}
				types, err := parseEnrichmentTypes(body.Types)
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}

				result, err := env.Orchestrator.EnrichLead(req.Context(), chi.URLParam(req, "id"), types)
				if err != nil {
					if eris.Is(err, enrich.ErrLeadNotFound) {
						writeError(w, http.StatusNotFound, err)
						return
					}
					writeError(w, http.StatusInternalServerError, err)
					return
				}
				writeJSON(w, http.StatusOK, result)
			})

			r.Post("/bulk-enrich", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					LeadIDs []string `json:"lead_ids"`
					Types   []string `json:"types"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
					return
				}
				if len(body.LeadIDs) == 0 {
					writeError(w, http.StatusBadRequest, eris.New("lead_ids is required"))
					return
				}
				types, err := parseEnrichmentTypes(body.Types)
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}

				results, err := env.Orchestrator.BulkEnrich(req.Context(), body.LeadIDs, types)
				if err != nil {
					writeError(w, http.StatusInternalServerError, err)
					return
				}
				writeJSON(w, http.StatusOK, results)
			})
		})

		r.Get("/api/leads", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			filter := store.LeadFilter{Status: model.LeadStatus(q.Get("status")), Limit: 100}
			fmt.Sscanf(q.Get("min_score"), "%d", &filter.MinScore)
			fmt.Sscanf(q.Get("limit"), "%d", &filter.Limit)
			fmt.Sscanf(q.Get("offset"), "%d", &filter.Offset)

			leads, err := env.Store.ListLeads(req.Context(), filter)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, leads)
		})

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
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
