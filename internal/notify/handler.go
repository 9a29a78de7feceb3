package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/textileco/pettycash/internal/platform/httpx"
	"github.com/textileco/pettycash/internal/shared"
)

// Handler serves the notification inbox.
type Handler struct {
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers inbox routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.inbox)
	r.Patch("/read-all", h.readAll)
	r.Patch("/{id}/read", h.read)
}

func (h *Handler) inbox(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	inbox, err := h.service.Inbox(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inbox)
}

func (h *Handler) readAll(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.MarkAllRead(r.Context(), actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}
