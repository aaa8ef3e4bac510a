package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/accounting/journals"
	"github.com/contaverde/contaverde/internal/accounting/reports"
	"github.com/contaverde/contaverde/internal/audit"
	"github.com/contaverde/contaverde/internal/invoicing"
	"github.com/contaverde/contaverde/internal/masterdata/companies"
	"github.com/contaverde/contaverde/internal/masterdata/thirdparties"
	"github.com/contaverde/contaverde/internal/observability"
	"github.com/contaverde/contaverde/internal/platform/httpx"
	"github.com/contaverde/contaverde/internal/treasury"
	"github.com/contaverde/contaverde/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	CompaniesHandler    *companies.Handler
	ThirdPartiesHandler *thirdparties.Handler
	AccountsHandler     *accounts.Handler
	JournalsHandler     *journals.Handler
	ReportsHandler      *reports.Handler
	InvoicingHandler    *invoicing.Handler
	TreasuryHandler     *treasury.Handler
	AuditHandler        *audit.Handler
	JobsHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with all API routes mounted.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.CompaniesHandler != nil {
			params.CompaniesHandler.MountRoutes(r)
		}
		if params.ThirdPartiesHandler != nil {
			params.ThirdPartiesHandler.MountRoutes(r)
		}
		if params.AccountsHandler != nil {
			params.AccountsHandler.MountRoutes(r)
		}
		if params.JournalsHandler != nil {
			params.JournalsHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r)
		}
		if params.InvoicingHandler != nil {
			params.InvoicingHandler.MountRoutes(r)
		}
		if params.TreasuryHandler != nil {
			params.TreasuryHandler.MountRoutes(r)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource does not exist")
	})

	return r
}
