package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/areys-travel/areys/internal/shared"
)

var validate = validator.New()

// Handler exposes the authentication endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	perms    PermissionChecker
	stores   StoreReleaser
}

// NewHandler builds the auth Handler.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, perms PermissionChecker, stores StoreReleaser) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions, perms: perms, stores: stores}
}

// MountRoutes registers authentication routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/register", h.register)
	r.Post("/logout", h.logout)
	r.Group(func(r chi.Router) {
		r.Use(RequireActor(h.service, h.stores, h.logger))
		r.Get("/me", h.me)
		r.Post("/staff", h.createStaff)
		r.Put("/password", h.changePassword)
		r.Put("/profile", h.updateProfile)
	})
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	actor, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInactiveUser) {
			// Blocked accounts still learn their role so the client can
			// render the deactivation screen.
			shared.WriteJSON(w, http.StatusForbidden, map[string]any{
				"error": err.Error(),
				"role":  actor.Role,
			})
			return
		}
		shared.WriteError(w, err)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetUser(actor.ID)
	}
	shared.WriteJSON(w, http.StatusOK, actor)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	actor, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetUser(actor.ID)
	}
	shared.WriteJSON(w, http.StatusCreated, actor)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		// Tear down the signed-out actor's data set so its change
		// subscription stops firing reloads.
		if id := sess.User(); id != "" && h.stores != nil {
			h.stores.Release(id)
		}
		h.sessions.Destroy(sess)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, ActorFromContext(r.Context()))
}

type createStaffRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required"`
	Role       string  `json:"role" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	AgencyName *string `json:"agency_name"`
}

func (h *Handler) createStaff(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if !decode(w, r, &req) {
		return
	}
	creator := ActorFromContext(r.Context())
	actor, err := h.service.CreateStaff(r.Context(), creator, h.perms, req.Email, req.Password, req.Role, req.Name, req.AgencyName)
	if err != nil {
		if actor != nil {
			// Actor exists; only the staff-listing row failed.
			h.logger.Warn("managed user record not created", slog.Any("error", err))
			shared.WriteJSON(w, http.StatusCreated, actor)
			return
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, actor)
}

type changePasswordRequest struct {
	Current string `json:"current" validate:"required"`
	Next    string `json:"next" validate:"required"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), ActorFromContext(r.Context()), req.Current, req.Next); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

type updateProfileRequest struct {
	Name       string  `json:"name" validate:"required"`
	AgencyName *string `json:"agency_name"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.UpdateProfile(r.Context(), ActorFromContext(r.Context()), req.Name, req.AgencyName); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "profile updated"})
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
