// Package flightshttp exposes flight and passenger mutations over HTTP.
// It lives apart from the flights package because it needs the store
// manager, which depends on the flights models.
package flightshttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/flights"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/shared"
	"github.com/areys-travel/areys/internal/store"
)

var validate = validator.New()

// Handler serves the flight and passenger endpoints.
type Handler struct {
	logger  *slog.Logger
	service *flights.Service
	stores  *store.Manager
}

// NewHandler builds the flights Handler.
func NewHandler(logger *slog.Logger, service *flights.Service, stores *store.Manager) *Handler {
	return &Handler{logger: logger, service: service, stores: stores}
}

// MountRoutes registers flight routes. Callers mount this under the
// authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/flights", func(r chi.Router) {
		r.Get("/search", h.search)
		r.Post("/", h.createFlight)
		r.Put("/{ref}", h.updateFlight)
		r.Delete("/{ref}", h.deleteFlight)
		r.Post("/{ref}/passengers", h.addPassenger)
		r.Put("/{ref}/passengers/{passengerID}", h.updatePassenger)
		r.Delete("/{ref}/passengers/{passengerID}", h.removePassenger)
	})
	r.Post("/pricing/quote", h.quote)
}

// acquire resolves the actor's store for this request.
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

func (h *Handler) createFlight(w http.ResponseWriter, r *http.Request) {
	var in flights.FlightInput
	if !decode(w, r, &in) {
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	created, err := h.service.CreateFlight(r.Context(), actor, st.View().Scope, st, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateFlight(w http.ResponseWriter, r *http.Request) {
	var in flights.FlightInput
	if !decode(w, r, &in) {
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	updated, err := h.service.UpdateFlight(r.Context(), actor, st.View().Scope, st, chi.URLParam(r, "ref"), in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteFlight(w http.ResponseWriter, r *http.Request) {
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteFlight(r.Context(), actor, st.View().Scope, st, chi.URLParam(r, "ref")); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) addPassenger(w http.ResponseWriter, r *http.Request) {
	var in flights.PassengerInput
	if !decodePassenger(w, r, &in) {
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	created, err := h.service.AddPassenger(r.Context(), actor, st.View().Scope, st, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) updatePassenger(w http.ResponseWriter, r *http.Request) {
	var in flights.PassengerInput
	if !decodePassenger(w, r, &in) {
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	updated, err := h.service.UpdatePassenger(r.Context(), actor, st.View().Scope, st, chi.URLParam(r, "passengerID"), in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) removePassenger(w http.ResponseWriter, r *http.Request) {
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if err := h.service.RemovePassenger(r.Context(), actor, st.View().Scope, st, chi.URLParam(r, "ref"), chi.URLParam(r, "passengerID")); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// search filters the actor's snapshot by departure window and an
// optional text query over flight fields and passenger names. Past and
// upcoming windows are granted separately.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("window")
	if window != "past" && window != "upcoming" {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "window must be past or upcoming"})
		return
	}
	actor, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if !st.Has(actor.Role, perms.CategorySearching, window) {
		shared.WriteError(w, shared.ErrPermissionDenied)
		return
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	now := time.Now()
	var out []flights.Flight
	for _, f := range st.Snapshot().Flights {
		if window == "past" && !f.Date.Before(now) {
			continue
		}
		if window == "upcoming" && f.Date.Before(now) {
			continue
		}
		if q != "" && !flightMatches(f, q) {
			continue
		}
		out = append(out, f)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"flights": out})
}

func flightMatches(f flights.Flight, q string) bool {
	for _, field := range []string{f.FlightNumber, f.Route, f.Airline} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, p := range f.Passengers {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return true
		}
	}
	return false
}

type quoteRequest struct {
	Airline     string `json:"airline" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=Adult Child"`
	InfantCount int    `json:"infant_count" validate:"min=0,max=5"`
}

// quote previews the total a passenger would be priced at, using the
// same derivation the write path applies.
func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decode(w, r, &req) {
		return
	}
	_, st, ok := h.acquire(w, r)
	if !ok {
		return
	}
	book := st.PriceBookFor(req.Airline)
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"base_price": book.BasePrice(req.Type),
		"tax":        book.Tax,
		"surcharge":  book.Surcharge,
		"total":      flights.ComputeTotal(req.Type, book, book.Tax, book.Surcharge, req.InfantCount),
	})
}

// decodePassenger fills FlightRef from the route before validating.
func decodePassenger(w http.ResponseWriter, r *http.Request, in *flights.PassengerInput) bool {
	if err := json.NewDecoder(r.Body).Decode(in); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	in.FlightRef = chi.URLParam(r, "ref")
	if err := validate.Struct(in); err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
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
