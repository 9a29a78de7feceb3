package materials

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/masterdata/shared"
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
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := internalShared.ActorFromContext(r.Context())
	list, err := h.service.List(r.Context(), actor, shared.ListFilters{Search: r.URL.Query().Get("q")})
	if err != nil {
		h.logger.Error("list materials failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Material{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

type createPayload struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Category      string           `json:"category" validate:"max=100"`
	UnitOfMeasure string           `json:"unit_of_measure" validate:"max=30"`
	DefaultRate   *decimal.Decimal `json:"default_rate"`
	Notes         string           `json:"notes"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p createPayload
	if err := httpx.Bind(r, h.validator, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m := Material{Name: p.Name, Category: p.Category, UnitOfMeasure: p.UnitOfMeasure, Notes: p.Notes}
	if p.DefaultRate != nil {
		m.DefaultRate = decimal.NewNullDecimal(*p.DefaultRate)
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	created, err := h.service.Create(r.Context(), actor, m)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": created.ID, "name": created.Name})
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
