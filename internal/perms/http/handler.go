// Package permshttp exposes the role catalog endpoints.
package permshttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/scope"
	"github.com/areys-travel/areys/internal/shared"
)

var validate = validator.New()

// Handler serves the role endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *perms.Service
	resolver *scope.Resolver
}

// NewHandler builds the perms Handler.
func NewHandler(logger *slog.Logger, service *perms.Service, resolver *scope.Resolver) *Handler {
	return &Handler{logger: logger, service: service, resolver: resolver}
}

// MountRoutes registers role routes under the authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, defs)
}

type createRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	actor := auth.ActorFromContext(r.Context())
	scopeID, err := h.resolver.Resolve(r.Context(), actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	def, err := h.service.CreateRole(r.Context(), actor, scopeID, req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, def)
}

type updateRoleRequest struct {
	Permissions perms.Matrix `json:"permissions" validate:"required"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	actor := auth.ActorFromContext(r.Context())
	scopeID, err := h.resolver.Resolve(r.Context(), actor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	def, err := h.service.UpdateRole(r.Context(), actor, scopeID, id, req.Permissions)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, def)
}
