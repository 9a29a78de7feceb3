package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/textileco/pettycash/internal/audit"
	"github.com/textileco/pettycash/internal/auth"
	"github.com/textileco/pettycash/internal/files"
	"github.com/textileco/pettycash/internal/masterdata/buyers"
	"github.com/textileco/pettycash/internal/masterdata/materials"
	"github.com/textileco/pettycash/internal/masterdata/orders"
	"github.com/textileco/pettycash/internal/masterdata/vendors"
	"github.com/textileco/pettycash/internal/notify"
	"github.com/textileco/pettycash/internal/observability"
	"github.com/textileco/pettycash/internal/procurement"
	"github.com/textileco/pettycash/internal/reports"
	"github.com/textileco/pettycash/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(r *http.Request) error

	AuthHandler          *auth.Handler
	ProcurementHandler   *procurement.Handler
	UsersHandler         *users.Handler
	VendorsHandler       *vendors.Handler
	BuyersHandler        *buyers.Handler
	OrdersHandler        *orders.Handler
	MaterialsHandler     *materials.Handler
	NotificationsHandler *notify.Handler
	ReportsHandler       *reports.Handler
	AuditHandler         *audit.Handler
	FilesHandler         *files.Handler
}

// NewRouter constructs the chi.Router with petty cash defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Ready != nil {
			if err := params.Ready(r); err != nil {
				params.Logger.Warn("readiness check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)

		api.Group(func(g chi.Router) {
			g.Use(params.AuthHandler.RequireAuth)

			params.ProcurementHandler.MountRoutes(g)
			g.Route("/users", params.UsersHandler.MountRoutes)
			g.Route("/vendors", params.VendorsHandler.MountRoutes)
			g.Route("/master", func(m chi.Router) {
				m.Route("/buyers", params.BuyersHandler.MountRoutes)
				m.Route("/orders", params.OrdersHandler.MountRoutes)
				m.Route("/materials", params.MaterialsHandler.MountRoutes)
			})
			g.Route("/notifications", params.NotificationsHandler.MountRoutes)
			g.Route("/reports", params.ReportsHandler.MountRoutes)
			if params.AuditHandler != nil {
				g.Route("/audit", params.AuditHandler.MountRoutes)
			}
			if params.FilesHandler != nil {
				params.FilesHandler.MountRoutes(g)
			}
		})
	})

	return r
}
