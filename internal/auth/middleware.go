package auth

import (
	"log/slog"
	"net/http"

	"github.com/areys-travel/areys/internal/shared"
)

// StoreReleaser tears down an actor's cached data set and its change
// subscription. Implemented by the store manager.
type StoreReleaser interface {
	Release(actorID string)
}

// RequireActor resolves the session user into an Actor and rejects
// unauthenticated or deactivated callers. A rejected actor's data set
// is released so its change subscription does not outlive the access.
func RequireActor(service *Service, stores StoreReleaser, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				if sess != nil && sess.Expired() {
					shared.WriteError(w, shared.ErrSessionExpired)
					return
				}
				shared.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			actor, err := service.Lookup(r.Context(), sess.User())
			if err != nil {
				logger.Warn("actor lookup failed", slog.String("user", sess.User()), slog.Any("error", err))
				shared.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			if !actor.Active {
				if stores != nil {
					stores.Release(actor.ID)
				}
				shared.WriteError(w, shared.ErrInactiveUser)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}
