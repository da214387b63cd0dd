// Package server exposes dashboard state over HTTP and streams changes
// over websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uncase/dashboard/internal/app"
	"github.com/uncase/dashboard/internal/bootstrap"
	"github.com/uncase/dashboard/internal/jobs"
	"github.com/uncase/dashboard/internal/models"
	"github.com/uncase/dashboard/internal/sandbox"
)

type Server struct {
	app    *app.App
	hub    *Hub
	router chi.Router
	logger *log.Logger
}

func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		hub:    NewHub(a.Bus, a.Logger),
		logger: a.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", s.hub.ServeHTTP)
	r.Get("/demo/sandbox", s.handleBootstrap)

	r.Route("/api/state", func(r chi.Router) {
		r.Get("/keys", s.handleKeys)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Post("/", s.handleAddJob)
			r.Post("/clear", s.handleClearCompleted)
			r.Patch("/{id}", s.handleUpdateJob)
			r.Post("/{id}/cancel", s.handleCancelJob)
			r.Delete("/{id}", s.handleRemoveJob)
		})

		r.Get("/seeds", s.handleSeeds)

		r.Get("/sandbox", s.handleSandbox)
		r.Delete("/sandbox", s.handleClearSandbox)

		r.Get("/demo", s.handleDemoStatus)
		r.Post("/demo", s.handleActivateDemo)
		r.Delete("/demo", s.handleResetDemo)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.hub.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.app.Store.Keys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch view := r.URL.Query().Get("view"); view {
	case "", "all":
		writeJSON(w, http.StatusOK, s.app.Queue.Jobs(ctx))
	case "active":
		writeJSON(w, http.StatusOK, s.app.Queue.Active(ctx))
	case "completed":
		writeJSON(w, http.StatusOK, s.app.Queue.Completed(ctx))
	default:
		writeError(w, http.StatusBadRequest, errors.New("view must be all, active or completed"))
	}
}

type addJobRequest struct {
	Stage    models.JobStage `json:"stage"`
	Label    string          `json:"label"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

func (s *Server) handleAddJob(w http.ResponseWriter, r *http.Request) {
	var req addJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Stage != "" && !req.Stage.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("unknown stage"))
		return
	}

	job, err := s.app.Queue.Add(r.Context(), jobs.JobInput{Stage: req.Stage, Label: req.Label, Metadata: req.Metadata})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

type updateJobRequest struct {
	Status   *models.JobStatus `json:"status"`
	Progress *int              `json:"progress"`
	Label    *string           `json:"label"`
	Error    *string           `json:"error"`
	Metadata map[string]any    `json:"metadata"`
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	var req updateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("unknown status"))
		return
	}

	job, found, err := s.app.Queue.Update(r.Context(), chi.URLParam(r, "id"), jobs.JobPatch{
		Status:   req.Status,
		Progress: req.Progress,
		Label:    req.Label,
		Error:    req.Error,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, jobs.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.app.Queue.Cancel(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, jobs.ErrJobFinished):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, job)
	}
}

func (s *Server) handleRemoveJob(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Queue.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Queue.ClearCompleted(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeeds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Demo.Seeds(r.Context()))
}

type sandboxStatus struct {
	Active    bool                   `json:"active"`
	TTLMillis int64                  `json:"ttl_ms"`
	Countdown string                 `json:"countdown,omitempty"`
	Session   *models.SandboxSession `json:"session,omitempty"`
}

func (s *Server) handleSandbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := sandboxStatus{Session: s.app.Sessions.Get(ctx)}
	if status.Session != nil {
		ttl := s.app.Sessions.TTL(ctx)
		status.Active = ttl > 0
		status.TTLMillis = ttl.Milliseconds()
		status.Countdown = sandbox.FormatCountdown(ttl)
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleClearSandbox(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Sessions.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDemoStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"active": s.app.Demo.IsActive(r.Context())})
}

func (s *Server) handleActivateDemo(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Demo.Activate(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": true})
}

func (s *Server) handleResetDemo(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Demo.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBootstrap runs one bootstrap flow per request and redirects to
// wherever it navigates.
func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	target := s.app.Config.DashboardPath()
	nav := bootstrap.NavigatorFunc(func(p string) { target = p })
	s.app.Bootstrap(nav, nil).Run(r.Context(), bootstrap.ParseParams(r.URL.Query()))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
