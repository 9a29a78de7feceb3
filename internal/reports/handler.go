package reports

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/textileco/pettycash/internal/platform/httpx"
	"github.com/textileco/pettycash/internal/shared"
)

// Handler serves report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/daily-summary", rows(h, h.service.DailySummary))
	r.Get("/vendor-summary", rows(h, h.service.VendorSummary))
	r.Get("/buyer-order", rows(h, h.service.BuyerOrder))
	r.Get("/runner-performance", rows(h, h.service.RunnerPerformance))
	r.Get("/outstanding", rows(h, h.service.Outstanding))
	r.Get("/dashboard", h.dashboard)
	r.Get("/export/{type}", h.export)
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	var (
		f   Filter
		err error
	)
	if f.From, err = httpx.ParseDate("from", q.Get("from")); err != nil {
		return f, err
	}
	if f.To, err = httpx.ParseDate("to", q.Get("to")); err != nil {
		return f, err
	}
	if f.VendorID, err = httpx.ParseUUID("vendor_id", q.Get("vendor_id")); err != nil {
		return f, err
	}
	if f.BuyerID, err = httpx.ParseUUID("buyer_id", q.Get("buyer_id")); err != nil {
		return f, err
	}
	if f.OrderID, err = httpx.ParseUUID("order_id", q.Get("order_id")); err != nil {
		return f, err
	}
	return f, nil
}

func rows[T any](h *Handler, load func(context.Context, shared.Actor, Filter) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		actor, _ := shared.ActorFromContext(r.Context())
		out, err := load(r.Context(), actor, f)
		if err != nil {
			h.logger.Error("report failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if out == nil {
			out = []T{}
		}
		httpx.JSON(w, http.StatusOK, out)
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	d, err := h.service.Dashboard(r.Context(), actor, f)
	if err != nil {
		h.logger.Error("dashboard failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	kind := chi.URLParam(r, "type")
	actor, _ := shared.ActorFromContext(r.Context())
	sheet, err := h.service.Export(r.Context(), actor, kind, f)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%d.xlsx", kind, h.now().UnixMilli())))
	if err := sheet.WriteXLSX(w); err != nil {
		h.logger.Error("export write failed", slog.String("type", kind), slog.Any("error", err))
	}
}
