package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boq-console/internal/analytics"
	"github.com/sells-group/boq-console/internal/grid"
	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/poller"
	"github.com/sells-group/boq-console/internal/store"
	"github.com/sells-group/boq-console/pkg/estimator"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard gateway server",
	Long:  "Serves a JSON API over the job registry and the backend: job submission and tracking, dashboard aggregates, and the filtered grid.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := newBackendClient()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		gw := &gateway{client: client, store: st}
		r := gw.routes(ctx)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
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

type gateway struct {
	client estimator.Client
	store  store.Store
}

// routes builds the gateway router. serverCtx bounds the background pollers
// spawned by job submission.
func (g *gateway) routes(serverCtx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", g.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/jobs", g.handleListJobs)
		r.Post("/jobs", g.handleSubmit(serverCtx))
		r.Get("/jobs/{taskID}", g.handleGetJob)
		r.Delete("/jobs/{taskID}", g.handleDeleteJob)
		r.Get("/dashboard/{taskID}", g.handleDashboard)
		r.Get("/grid/{taskID}", g.handleGrid)
	})
	return r
}

func (g *gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	backend := "ok"
	if err := g.client.Health(r.Context()); err != nil {
		backend = "unreachable"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"backend": backend,
	})
}

func (g *gateway) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := store.JobFilter{
		State:  model.JobState(r.URL.Query().Get("state")),
		Active: r.URL.Query().Get("active") == "true",
	}
	jobs, err := g.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleSubmit accepts a multipart upload (boq required, sor optional),
// forwards it to the backend, and starts a background poller that keeps the
// registry current until the job settles.
func (g *gateway) handleSubmit(serverCtx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boqPath, sorPath, cleanup, err := spoolUploads(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		taskID, err := g.client.SubmitEstimate(r.Context(), boqPath, sorPath)
		if err != nil {
			cleanup()
			writeError(w, http.StatusBadGateway, err)
			return
		}

		job := model.Job{
			TaskID:    taskID,
			Filename:  filepath.Base(boqPath),
			State:     model.JobStatePending,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := g.store.SaveJob(r.Context(), job); err != nil {
			cleanup()
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		// Poll on the server's lifetime, not the request's.
		go func() {
			defer cleanup()
			p := poller.New(g.client, cfg.Poll.Interval(), func(j model.Job) {
				if err := g.store.UpdateJob(serverCtx, j); err != nil {
					zap.L().Warn("persist job update failed",
						zap.String("task_id", j.TaskID),
						zap.Error(err),
					)
				}
			})
			if _, err := p.Run(serverCtx, job); err != nil {
				zap.L().Warn("background polling stopped",
					zap.String("task_id", job.TaskID),
					zap.Error(err),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
	}
}

func (g *gateway) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := g.store.GetJob(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (g *gateway) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := g.store.DeleteJob(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *gateway) handleDashboard(w http.ResponseWriter, r *http.Request) {
	result := g.fetchAnalysis(w, r)
	if result == nil {
		return
	}
	writeJSON(w, http.StatusOK, analytics.BuildDashboard(result.GridData))
}

// gridResponse is the grid endpoint's payload: resolved columns, the current
// projection, and the full-dataset filter counts.
type gridResponse struct {
	Columns []grid.Column `json:"columns"`
	Rows    []gridRow     `json:"rows"`
	Counts  grid.Counts   `json:"counts"`
}

type gridRow struct {
	ID        string          `json:"id"`
	Cells     model.Row       `json:"cells"`
	Matched   bool            `json:"matched"`
	Highlight model.Highlight `json:"highlight"`
	Reasoning string          `json:"reasoning"`
}

func (g *gateway) handleGrid(w http.ResponseWriter, r *http.Request) {
	result := g.fetchAnalysis(w, r)
	if result == nil {
		return
	}

	v := grid.NewView(result.GridData)
	q := r.URL.Query()
	v.SetFilter(grid.ParseFilter(q.Get("filter")))
	if col := q.Get("sort"); col != "" {
		v.SetSort(col, q.Get("dir") != "desc")
	}
	v.SetSearch(q.Get("q"))

	resp := gridResponse{
		Columns: v.Columns(),
		Rows:    []gridRow{},
		Counts:  v.Counts(),
	}
	for _, c := range v.Rows() {
		resp.Rows = append(resp.Rows, gridRow{
			ID:        c.ID,
			Cells:     c.Row,
			Matched:   c.Matched,
			Highlight: c.Highlight,
			Reasoning: c.Reasoning,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// fetchAnalysis resolves the task from the path, requires a completed job,
// and returns the backend analysis. On failure it writes the error response
// itself and returns nil.
func (g *gateway) fetchAnalysis(w http.ResponseWriter, r *http.Request) *estimator.AnalysisResult {
	taskID := chi.URLParam(r, "taskID")

	job, err := g.store.GetJob(r.Context(), taskID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil
	}
	if job.State != model.JobStateCompleted {
		writeError(w, http.StatusConflict, eris.Errorf("job %s is %s, not completed", taskID, job.State))
		return nil
	}

	result, err := g.client.Analysis(r.Context(), taskID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return nil
	}
	return result
}

// spoolUploads writes the multipart form files to a temp directory so the
// backend client can re-upload them from disk. cleanup removes the directory.
func spoolUploads(r *http.Request) (boqPath, sorPath string, cleanup func(), err error) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		return "", "", nil, eris.Wrap(err, "parse multipart form")
	}

	dir, err := os.MkdirTemp("", "boq-upload-*")
	if err != nil {
		return "", "", nil, eris.Wrap(err, "create upload dir")
	}
	cleanup = func() { os.RemoveAll(dir) }

	boqPath, err = spoolFile(r, "file", dir)
	if err != nil {
		cleanup()
		return "", "", nil, err
	}

	// SOR file is optional.
	if sorPath, err = spoolFile(r, "sor_file", dir); err != nil {
		sorPath = ""
	}

	return boqPath, sorPath, cleanup, nil
}

func spoolFile(r *http.Request, field, dir string) (string, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return "", eris.Wrapf(err, "form file %s", field)
	}
	defer f.Close()

	dest := filepath.Join(dir, filepath.Base(header.Filename))
	out, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrap(err, "create spool file")
	}
	defer out.Close()

	if _, err := io.Copy(out, f); err != nil {
		return "", eris.Wrap(err, "write spool file")
	}
	return dest, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
