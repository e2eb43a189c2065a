package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/forge/internal/apperr"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) writeLookup(w http.ResponseWriter, item *ItemDetail, err error, what string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case err != nil:
		slog.Error("lookup failed", slog.String("what", what), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

// GetItem handles GET /api/items?path=.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	item, err := h.svc.ItemByPath(path)
	h.writeLookup(w, item, err, "item by path")
}

// GetItemByID handles GET /api/items/{id}.
func (h *Handler) GetItemByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	item, lookupErr := h.svc.ItemByID(id)
	h.writeLookup(w, item, lookupErr, "item by id")
}

// GetScript handles GET /api/scripts/{name}.
func (h *Handler) GetScript(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	item, err := h.svc.Script(name)
	h.writeLookup(w, item, err, "script by name")
}

// GetTree handles GET /api/tree?path=. An empty path lists the mounts.
func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Tree(r.URL.Query().Get("path"))
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case err != nil:
		slog.Error("tree listing failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	default:
		writeJSON(w, http.StatusOK, listing)
	}
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats()
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
