package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

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
	buyerID, err := httpx.ParseUUID("buyer_id", r.URL.Query().Get("buyer_id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	list, err := h.service.List(r.Context(), actor, shared.ListFilters{BuyerID: buyerID})
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Order{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

type createPayload struct {
	OrderNo   string    `json:"order_no" validate:"max=50"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	Style     string    `json:"style"`
	Season    string    `json:"season"`
	Remarks   string    `json:"remarks"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p createPayload
	if err := httpx.Bind(r, h.validator, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order := Order{OrderNo: p.OrderNo, BuyerID: p.BuyerID, Style: p.Style, Season: p.Season, Remarks: p.Remarks}
	var err error
	if order.StartDate, err = httpx.ParseDate("start_date", p.StartDate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if order.EndDate, err = httpx.ParseDate("end_date", p.EndDate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	created, err := h.service.Create(r.Context(), actor, order)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": created.ID, "order_no": created.OrderNo})
}

type updatePayload struct {
	Style     *string `json:"style"`
	Season    *string `json:"season"`
	Remarks   *string `json:"remarks"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Status    *string `json:"status" validate:"omitempty,oneof=ACTIVE COMPLETED CANCELLED"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var p updatePayload
	if err := httpx.Bind(r, h.validator, &p); err != nil {
		httpx.RespondError(w, err)
		return
	}
	patch := Patch{Style: p.Style, Season: p.Season, Remarks: p.Remarks, Status: p.Status}
	if p.StartDate != nil {
		if patch.StartDate, err = httpx.ParseDate("start_date", *p.StartDate); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	if p.EndDate != nil {
		if patch.EndDate, err = httpx.ParseDate("end_date", *p.EndDate); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	if err := h.service.Update(r.Context(), actor, id, patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w)
}
