package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	agencieshttp "github.com/areys-travel/areys/internal/agencies/http"
	airlineshttp "github.com/areys-travel/areys/internal/airlines/http"
	"github.com/areys-travel/areys/internal/auth"
	flightshttp "github.com/areys-travel/areys/internal/flights/http"
	"github.com/areys-travel/areys/internal/manifest"
	permshttp "github.com/areys-travel/areys/internal/perms/http"
	settingshttp "github.com/areys-travel/areys/internal/settings/http"
	"github.com/areys-travel/areys/internal/shared"
	storehttp "github.com/areys-travel/areys/internal/store/http"
	usershttp "github.com/areys-travel/areys/internal/users/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	AuthService    *auth.Service
	StoreReleaser  auth.StoreReleaser

	AuthHandler     *auth.Handler
	StoreHandler    *storehttp.Handler
	FlightsHandler  *flightshttp.Handler
	AirlinesHandler *airlineshttp.Handler
	AgenciesHandler *agencieshttp.Handler
	SettingsHandler *settingshttp.Handler
	UsersHandler    *usershttp.Handler
	RolesHandler    *permshttp.Handler
	ManifestHandler *manifest.Handler
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireActor(params.AuthService, params.StoreReleaser, params.Logger))
			params.StoreHandler.MountRoutes(r)
			params.FlightsHandler.MountRoutes(r)
			params.AirlinesHandler.MountRoutes(r)
			params.AgenciesHandler.MountRoutes(r)
			params.SettingsHandler.MountRoutes(r)
			params.UsersHandler.MountRoutes(r)
			params.RolesHandler.MountRoutes(r)
			params.ManifestHandler.MountRoutes(r)
		})
	})

	return r
}
