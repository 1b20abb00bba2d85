// Package agencieshttp exposes agency endpoints.
package agencieshttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/areys-travel/areys/internal/agencies"
	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/shared"
	"github.com/areys-travel/areys/internal/store"
)

var validate = validator.New()

// Handler serves the agency endpoints.
type Handler struct {
	logger  *slog.Logger
	service *agencies.Service
	stores  *store.Manager
}

// NewHandler builds the agencies Handler.
func NewHandler(logger *slog.Logger, service *agencies.Service, stores *store.Manager) *Handler {
	return &Handler{logger: logger, service: service, stores: stores}
}

// MountRoutes registers agency routes under the authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/agencies", func(r chi.Router) {
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
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

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in agencies.Input
	if !decode(w, r, &in) {
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), actor, st.View().Scope, st, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in agencies.Input
	if !decode(w, r, &in) {
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), actor, st.View().Scope, st, id, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, st.View().Scope, st, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	if err := validate.Struct(v); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}
