// Package server exposes the list contract over HTTP for an external
// launcher or UI to consume.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"mr-lens/internal/gitlab"
	"mr-lens/internal/session"
	"mr-lens/internal/view"
)

type Handler struct {
	sess          *session.Session
	metrics       *Metrics
	log           *slog.Logger
	perPage       int
	includeDrafts bool
}

func NewHandler(sess *session.Session, metrics *Metrics, log *slog.Logger, perPage int, includeDrafts bool) *Handler {
	return &Handler{
		sess:          sess,
		metrics:       metrics,
		log:           log,
		perPage:       perPage,
		includeDrafts: includeDrafts,
	}
}

func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(h.metrics.Middleware)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", h.GetHealth)
	r.Get("/api/merge-requests", h.GetMergeRequests)
	r.Handle("/metrics", h.metrics.Handler())

	return r
}

type listResponse struct {
	Items     []view.Row `json:"items"`
	Count     int        `json:"count"`
	FetchedAt time.Time  `json:"fetched_at,omitempty"`
	Deferred  bool       `json:"deferred,omitempty"`
	Stale     bool       `json:"stale,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// GetMergeRequests serves the filtered list. Query params mirror the
// list query: search, scope, state, per_page, drafts.
func (h *Handler) GetMergeRequests(w http.ResponseWriter, r *http.Request) {
	q, includeDrafts, err := h.parseQuery(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.sess.List(r.Context(), q)
	if err != nil {
		h.log.Error("list fetch failed", slog.String("error", err.Error()))
		h.metrics.RecordListFetch("error")

		status := http.StatusBadGateway
		if errors.Is(err, gitlab.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		render.Status(r, status)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}

	resp := listResponse{
		Items:     view.Build(result.Items, includeDrafts),
		FetchedAt: result.FetchedAt,
		Deferred:  result.Deferred,
		Stale:     result.Stale,
	}
	resp.Count = len(resp.Items)
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}

	switch {
	case result.Deferred:
		h.metrics.RecordListFetch("deferred")
	case result.Stale:
		h.metrics.RecordListFetch("stale")
	default:
		h.metrics.RecordListFetch("ok")
	}

	render.JSON(w, r, resp)
}

func (h *Handler) parseQuery(r *http.Request) (gitlab.Query, bool, error) {
	q := gitlab.Query{
		Search:  r.URL.Query().Get("search"),
		Scope:   gitlab.ScopeAssignedToMe,
		State:   gitlab.StateOpened,
		PerPage: h.perPage,
	}

	if s := r.URL.Query().Get("scope"); s != "" {
		scope, err := gitlab.ParseScope(s)
		if err != nil {
			return gitlab.Query{}, false, err
		}
		q.Scope = scope
	}

	if s := r.URL.Query().Get("state"); s != "" {
		state, err := gitlab.ParseState(s)
		if err != nil {
			return gitlab.Query{}, false, err
		}
		q.State = state
	}

	if s := r.URL.Query().Get("per_page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return gitlab.Query{}, false, errors.New("per_page must be a positive integer")
		}
		q.PerPage = n
	}

	includeDrafts := h.includeDrafts
	if s := r.URL.Query().Get("drafts"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return gitlab.Query{}, false, errors.New("drafts must be a boolean")
		}
		includeDrafts = b
	}

	return q, includeDrafts, nil
}

// Serve runs the HTTP adapter until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(h),
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	h.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
