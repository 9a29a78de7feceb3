package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/textileco/pettycash/internal/platform/httpx"
	"github.com/textileco/pettycash/internal/shared"
)

const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the audit handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the timeline and its CSV export.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(exportRateLimit, exportRateWindow, httprate.WithKeyFuncs(rateLimitKey))
	r.Get("/", h.timeline)
	r.With(limiter).Get("/export.csv", h.export)
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor, ok := shared.ActorFromContext(r.Context()); ok {
		return "user:" + actor.ID.String(), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	f := TimelineFilters{Entity: q.Get("entity_type"), Action: q.Get("action")}
	var err error
	if f.From, err = httpx.ParseDate("from", q.Get("from")); err != nil {
		return f, err
	}
	if f.To, err = httpx.ParseDate("to", q.Get("to")); err != nil {
		return f, err
	}
	if f.ActorID, err = httpx.ParseUUID("user_id", q.Get("user_id")); err != nil {
		return f, err
	}
	if f.EntityID, err = httpx.ParseUUID("entity_id", q.Get("entity_id")); err != nil {
		return f, err
	}
	if f.Page, err = atoi("page", q.Get("page")); err != nil {
		return f, err
	}
	if f.PageSize, err = atoi("page_size", q.Get("page_size")); err != nil {
		return f, err
	}
	return f, nil
}

func atoi(field, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", shared.ErrValidation, field)
	}
	return n, nil
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	result, err := h.service.Timeline(r.Context(), actor, f)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	rows, err := h.service.Export(r.Context(), actor, f)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-timeline.csv"`)
	if err := WriteCSV(w, rows); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

// WriteCSV serialises timeline rows.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"At", "User", "Action", "Entity", "Entity ID", "IP"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.At.UTC().Format(time.RFC3339), row.ActorName, row.Action, row.Entity, row.EntityID.String(), row.IP,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
