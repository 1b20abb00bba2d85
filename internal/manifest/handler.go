package manifest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/areys-travel/areys/internal/auth"
	"github.com/areys-travel/areys/internal/perms"
	"github.com/areys-travel/areys/internal/shared"
	"github.com/areys-travel/areys/internal/store"
)

// Handler serves manifest documents and downloads.
type Handler struct {
	logger *slog.Logger
	stores *store.Manager
}

// NewHandler builds the manifest Handler.
func NewHandler(logger *slog.Logger, stores *store.Manager) *Handler {
	return &Handler{logger: logger, stores: stores}
}

// MountRoutes registers manifest routes under the authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/flights/{ref}/manifest", h.document)
	r.Get("/flights/{ref}/manifest.csv", h.download)
	r.Get("/flights/{ref}/tickets", h.tickets)
	r.Get("/flights/{ref}/passengers/{passengerID}/ticket", h.ticket)
}

// snapshot resolves the actor's snapshot after a generating-permission
// check.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request, action string) (*store.Snapshot, bool) {
	actor := auth.ActorFromContext(r.Context())
	st, err := h.stores.Acquire(r.Context(), actor)
	if err != nil {
		h.logger.Error("store acquire failed", slog.Any("error", err))
		shared.WriteError(w, err)
		return nil, false
	}
	if !st.Has(actor.Role, perms.CategoryGenerating, action) {
		shared.WriteError(w, shared.ErrPermissionDenied)
		return nil, false
	}
	snap := st.Snapshot()
	if snap == nil {
		shared.WriteError(w, shared.ErrNotFound)
		return nil, false
	}
	return snap, true
}

func (h *Handler) ticket(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "ticket")
	if !ok {
		return
	}
	t, err := BuildTicket(snap, chi.URLParam(r, "ref"), chi.URLParam(r, "passengerID"))
	if err != nil {
		shared.WriteJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	shared.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) tickets(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r, "batch")
	if !ok {
		return
	}
	out, err := BuildTickets(snap, chi.URLParam(r, "ref"))
	if err != nil {
		shared.WriteJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"tickets": out})
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request, action string) (Document, bool) {
	snap, ok := h.snapshot(w, r, action)
	if !ok {
		return Document{}, false
	}
	doc, err := Build(snap, chi.URLParam(r, "ref"), r.URL.Query().Get("variant"))
	if err != nil {
		shared.WriteJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return Document{}, false
	}
	return doc, true
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.build(w, r, "manifest")
	if !ok {
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.build(w, r, "download")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "manifest-"+doc.FlightNumber+"-"+doc.Date.Format("2006-01-02")+".csv"))
	if err := WriteCSV(w, doc); err != nil {
		h.logger.Error("manifest csv write failed", slog.Any("error", err))
	}
}
