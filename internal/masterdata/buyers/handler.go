package buyers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/textileco/pettycash/internal/platform/httpx"
	internalShared "github.com/textileco/pettycash/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := internalShared.ActorFromContext(r.Context())
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list buyers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Buyer{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

type createPayload struct {
	Name           string `json:"name" validate:"required,max=200"`
	Code           string `json:"code" validate:"max=20"`
	ContactDetails string `json:"contact_details"`
	Notes          string `json:"notes"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p createPayload
	if err := httpx.Bind(r, h.validator, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	created, err := h.service.Create(r.Context(), actor, Buyer{Name: p.Name, Code: p.Code, ContactDetails: p.ContactDetails, Notes: p.Notes})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": created.ID, "name": created.Name, "code": created.Code})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch Patch
	if err := httpx.Bind(r, h.validator, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	if err := h.service.Update(r.Context(), actor, id, patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}
