// Package usershttp exposes staff management endpoints.
package usershttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/shared"
	"github.com/areys-travel/areys/internal/store"
	"github.com/areys-travel/areys/internal/users"
)

var validate = validator.New()

// Handler serves the staff endpoints. Staff creation itself lives with
// the auth handler since it mints credentials.
type Handler struct {
	logger  *slog.Logger
	service *users.Service
	stores  *store.Manager
}

// NewHandler builds the users Handler.
func NewHandler(logger *slog.Logger, service *users.Service, stores *store.Manager) *Handler {
	return &Handler{logger: logger, service: service, stores: stores}
}

// MountRoutes registers staff routes under the authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Put("/{id}", h.update)
		r.Post("/{id}/activate", h.setActive(true))
		r.Post("/{id}/deactivate", h.setActive(false))
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	st, err := h.stores.Acquire(r.Context(), actor)
	if err != nil {
		h.logger.Error("store acquire failed", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	var in users.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(in); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	updated, err := h.service.Update(r.Context(), actor, st.View().Scope, st, chi.URLParam(r, "id"), in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.ActorFromContext(r.Context())
		st, err := h.stores.Acquire(r.Context(), actor)
		if err != nil {
			h.logger.Error("store acquire failed", slog.Any("error", err))
			shared.WriteError(w, err)
			return
		}
		updated, err := h.service.SetActive(r.Context(), actor, st.View().Scope, st, chi.URLParam(r, "id"), active)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, updated)
	}
}
