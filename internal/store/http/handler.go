// Package storehttp serves the reconciled snapshot and the activity
// review screen.
package storehttp

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/areys-travel/areys/internal/audit"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/shared"
	"github.com/areys-travel/areys/internal/store"
)

// Handler serves the snapshot endpoints.
type Handler struct {
	logger   *slog.Logger
	stores   *store.Manager
	recorder *audit.Recorder
}

// NewHandler builds the store Handler.
func NewHandler(logger *slog.Logger, stores *store.Manager, recorder *audit.Recorder) *Handler {
	return &Handler{logger: logger, stores: stores, recorder: recorder}
}

// MountRoutes registers snapshot routes under the authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/snapshot", h.snapshot)
	r.Post("/snapshot/reload", h.reload)
	r.Get("/activity", h.activity)
}

func (h *Handler) acquire(w http.ResponseWriter, r *http.Request) (*auth.Actor, *store.Store, bool) {
	actor := auth.ActorFromContext(r.Context())
	st, err := h.stores.Acquire(r.Context(), actor)
	if err != nil {
		h.logger.Error("store acquire failed", slog.Any("error", err))
		shared.WriteError(w, err)
		return nil, nil, false
	}
	return actor, st, true
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	shared.WriteJSON(w, http.StatusOK, st.Snapshot())
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	_, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if err := st.Reload(r.Context()); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, st.Snapshot())
}

// activity lists the account's newest log entries. Reviewing the trail
// is an account-settings concern, so any settings action grants it.
func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() && !st.Has(actor.Role, perms.CategorySettings, "user_create") {
		shared.WriteError(w, shared.ErrPermissionDenied)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.recorder.List(r.Context(), st.View().Scope, limit)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}
