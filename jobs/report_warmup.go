package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaverde/contaverde/internal/accounting/reports"
	jobmetrics "github.com/contaverde/contaverde/internal/jobs"
)

// ReportWarmer prebuilds the cut-off reports so the first request after a
// cache bump does not pay the build cost.
type ReportWarmer struct {
	pool    *pgxpool.Pool
	reports *reports.Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	now     func() time.Time
}

func NewReportWarmer(pool *pgxpool.Pool, svc *reports.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmer {
	return &ReportWarmer{pool: pool, reports: svc, logger: logger, metrics: metrics, now: time.Now}
}

// Handle processes TaskReportWarmup tasks.
func (w *ReportWarmer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := w.metrics.Track("report_warmup")
	return tracker.End(w.Run(ctx, payload.CompanyID))
}

// Run warms the trial balance and balance sheet for the scoped companies.
func (w *ReportWarmer) Run(ctx context.Context, companyID int64) error {
	companies, err := w.companyIDs(ctx, companyID)
	if err != nil {
		return err
	}
	asOf := w.now()
	for _, id := range companies {
		if _, err := w.reports.TrialBalance(ctx, id, asOf); err != nil {
			w.logger.Warn("trial balance warmup failed", slog.Int64("company_id", id), slog.Any("error", err))
			continue
		}
		if _, err := w.reports.BalanceSheet(ctx, id, asOf); err != nil {
			w.logger.Warn("balance sheet warmup failed", slog.Int64("company_id", id), slog.Any("error", err))
		}
	}
	w.logger.Info("report warmup finished", slog.Int("companies", len(companies)))
	return nil
}

func (w *ReportWarmer) companyIDs(ctx context.Context, companyID int64) ([]int64, error) {
	if companyID > 0 {
		return []int64{companyID}, nil
	}
	rows, err := w.pool.Query(ctx, `SELECT id FROM companies WHERE active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
