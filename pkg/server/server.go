// Package server exposes stored snapshots over a read-only HTTP API.
//
// Routes:
//
//	GET /healthz                   liveness probe
//	GET /snapshots                 names of all stored snapshots
//	GET /snapshots/{name}          the stored document, verbatim
//	GET /snapshots/{name}/totals   last_updated and totals only
//
// The server never writes to the store; fetching happens elsewhere.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/statsnap/pkg/errors"
	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// Handlers serves snapshots from a store.
type Handlers struct {
	store  snapshot.Store
	logger *log.Logger
}

// NewHandlers creates handlers over store.
// If logger is nil, the default logger is used.
func NewHandlers(store snapshot.Store, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{store: store, logger: logger}
}

// RegisterRoutes registers the snapshot routes on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.health)
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{name}", h.get)
		r.Get("/{name}/totals", h.totals)
	})
}

// Router returns a chi router with the standard middleware stack and all
// routes registered.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(h.logRequests)
	h.RegisterRoutes(r)
	return r
}

func (h *Handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// health handles GET /healthz
func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// list handles GET /snapshots
func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": names,
		"count":     len(names),
	})
}

// get handles GET /snapshots/{name}
func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// totals handles GET /snapshots/{name}/totals
func (h *Handlers) totals(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w, r)
	if !ok {
		return
	}
	doc, err := snapshot.DecodeAny(data)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"last_updated": doc.LastUpdated,
		"totals":       doc.Totals,
	})
}

func (h *Handlers) load(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidateName(name); err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return nil, false
	}
	data, ok, err := h.store.Load(r.Context(), name)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	if !ok {
		h.fail(w, r, http.StatusNotFound, errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found: %s", name))
		return nil, false
	}
	return data, true
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.Classify(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
