package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contaverde/contaverde/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, now: time.Now}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/trial-balance", h.TrialBalance)
		r.Get("/income-statement", h.IncomeStatement)
		r.Get("/balance-sheet", h.BalanceSheet)
	})
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	asOf, ok := h.dateParam(w, r, "as_of", h.now())
	if !ok {
		return
	}
	report, err := h.service.TrialBalance(r.Context(), companyID, asOf)
	if err != nil {
		h.logger.Error("trial balance failed", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	now := h.now()
	from, ok := h.dateParam(w, r, "from", time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC))
	if !ok {
		return
	}
	to, ok := h.dateParam(w, r, "to", now)
	if !ok {
		return
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "to must not precede from")
		return
	}
	report, err := h.service.IncomeStatement(r.Context(), companyID, from, to)
	if err != nil {
		h.logger.Error("income statement failed", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	asOf, ok := h.dateParam(w, r, "as_of", h.now())
	if !ok {
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), companyID, asOf)
	if err != nil {
		h.logger.Error("balance sheet failed", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) companyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "company_id is required")
		return 0, false
	}
	return id, true
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request, name string, fallback time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
