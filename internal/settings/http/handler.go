// Package settingshttp exposes the pricing and branding endpoint.
package settingshttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/settings"
	"github.com/areys-travel/areys/internal/shared"
	"github.com/areys-travel/areys/internal/store"
)

var validate = validator.New()

// Handler serves the settings endpoint.
type Handler struct {
	logger  *slog.Logger
	service *settings.Service
	stores  *store.Manager
}

// NewHandler builds the settings Handler.
func NewHandler(logger *slog.Logger, service *settings.Service, stores *store.Manager) *Handler {
	return &Handler{logger: logger, service: service, stores: stores}
}

// MountRoutes registers the settings route under the authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/settings", h.update)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in settings.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(in); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	actor := auth.ActorFromContext(r.Context())
	st, err := h.stores.Acquire(r.Context(), actor)
	if err != nil {
		h.logger.Error("store acquire failed", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}

	saved, err := h.service.Update(r.Context(), actor, st.View().Scope, st, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, saved)
}
