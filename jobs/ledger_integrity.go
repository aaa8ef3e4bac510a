package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/journals"
	jobmetrics "github.com/contaverde/contaverde/internal/jobs"
)

// AccountLineTotals is one posting account's stored accumulators next to
// the summed journal lines for a single entry status. Status is empty when
// the account has no lines at all.
type AccountLineTotals struct {
	CompanyID    int64
	Code         string
	Status       string
	StoredDebit  decimal.Decimal
	StoredCredit decimal.Decimal
	LineDebit    decimal.Decimal
	LineCredit   decimal.Decimal
}

// UnbalancedEntry is a confirmed entry whose stored totals do not match.
type UnbalancedEntry struct {
	CompanyID   int64
	Number      string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// IntegrityStore is the read side of the integrity checks. companyID 0
// scopes to all companies.
type IntegrityStore interface {
	AccountLineTotals(ctx context.Context, companyID int64) ([]AccountLineTotals, error)
	UnbalancedEntries(ctx context.Context, companyID int64) ([]UnbalancedEntry, error)
}

// LedgerIntegrityChecker compares the running accumulators on accounts
// with the sums of their journal lines and flags confirmed entries whose
// stored totals drifted from their lines. Accumulators grow on confirm
// and are never unwound by a void (a reversal books the inverse amounts
// instead), so the line sums count entries in status confirmed or void
// and leave drafts out. It only reports; fixing drift is a manual
// operation.
type LedgerIntegrityChecker struct {
	store   IntegrityStore
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

func NewLedgerIntegrityChecker(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityChecker {
	return &LedgerIntegrityChecker{store: &PGIntegrityStore{pool: pool}, logger: logger, metrics: metrics}
}

// Handle processes TaskLedgerIntegrity tasks.
func (c *LedgerIntegrityChecker) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := c.metrics.Track("ledger_integrity")
	return tracker.End(c.Run(ctx, payload.CompanyID))
}

// Run executes both checks and logs every mismatch found.
func (c *LedgerIntegrityChecker) Run(ctx context.Context, companyID int64) error {
	drift, err := c.checkAccumulators(ctx, companyID)
	if err != nil {
		return err
	}
	unbalanced, err := c.checkEntries(ctx, companyID)
	if err != nil {
		return err
	}
	c.logger.Info("ledger integrity check finished",
		slog.Int64("company_id", companyID),
		slog.Int("accounts_drifted", drift),
		slog.Int("entries_unbalanced", unbalanced))
	return nil
}

type accumulatorKey struct {
	company int64
	code    string
}

type accumulatorState struct {
	storedDebit  decimal.Decimal
	storedCredit decimal.Decimal
	lineDebit    decimal.Decimal
	lineCredit   decimal.Decimal
}

func (c *LedgerIntegrityChecker) checkAccumulators(ctx context.Context, companyID int64) (int, error) {
	rows, err := c.store.AccountLineTotals(ctx, companyID)
	if err != nil {
		return 0, err
	}

	states := make(map[accumulatorKey]*accumulatorState)
	order := make([]accumulatorKey, 0, len(rows))
	for _, row := range rows {
		key := accumulatorKey{company: row.CompanyID, code: row.Code}
		state, ok := states[key]
		if !ok {
			state = &accumulatorState{storedDebit: row.StoredDebit, storedCredit: row.StoredCredit}
			states[key] = state
			order = append(order, key)
		}
		// Draft lines have not been accumulated yet; voided entries keep
		// their contribution because void does not unwind accumulators.
		switch journals.EntryStatus(row.Status) {
		case journals.StatusConfirmed, journals.StatusVoid:
			state.lineDebit = state.lineDebit.Add(row.LineDebit)
			state.lineCredit = state.lineCredit.Add(row.LineCredit)
		}
	}

	count := 0
	for _, key := range order {
		state := states[key]
		if state.storedDebit.Equal(state.lineDebit) && state.storedCredit.Equal(state.lineCredit) {
			continue
		}
		count++
		c.metrics.AddDrift(key.company, 1)
		c.logger.Warn("account accumulator drift",
			slog.Int64("company_id", key.company),
			slog.String("code", key.code),
			slog.String("stored_debit", state.storedDebit.StringFixed(2)),
			slog.String("line_debit", state.lineDebit.StringFixed(2)),
			slog.String("stored_credit", state.storedCredit.StringFixed(2)),
			slog.String("line_credit", state.lineCredit.StringFixed(2)))
	}
	return count, nil
}

func (c *LedgerIntegrityChecker) checkEntries(ctx context.Context, companyID int64) (int, error) {
	entries, err := c.store.UnbalancedEntries(ctx, companyID)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		c.metrics.AddDrift(e.CompanyID, 1)
		c.logger.Error("confirmed entry is unbalanced",
			slog.Int64("company_id", e.CompanyID),
			slog.String("number", e.Number),
			slog.String("total_debit", e.TotalDebit.StringFixed(2)),
			slog.String("total_credit", e.TotalCredit.StringFixed(2)))
	}
	return len(entries), nil
}

// PGIntegrityStore reads the check inputs from Postgres.
type PGIntegrityStore struct {
	pool *pgxpool.Pool
}

const accountLineTotalsQuery = `
SELECT a.company_id, a.code, a.debit_total, a.credit_total,
       COALESCE(e.status, '')     AS status,
       COALESCE(SUM(l.debit), 0)  AS line_debit,
       COALESCE(SUM(l.credit), 0) AS line_credit
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.entry_id
WHERE a.accepts_postings AND a.active AND ($1 = 0 OR a.company_id = $1)
GROUP BY a.id, a.company_id, a.code, a.debit_total, a.credit_total, e.status`

const unbalancedEntryQuery = `
SELECT e.company_id, e.number, e.total_debit, e.total_credit
FROM journal_entries e
WHERE e.status = 'confirmed' AND ($1 = 0 OR e.company_id = $1)
  AND e.total_debit <> e.total_credit`

func (s *PGIntegrityStore) AccountLineTotals(ctx context.Context, companyID int64) ([]AccountLineTotals, error) {
	rows, err := s.pool.Query(ctx, accountLineTotalsQuery, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []AccountLineTotals
	for rows.Next() {
		var t AccountLineTotals
		if err := rows.Scan(&t.CompanyID, &t.Code, &t.StoredDebit, &t.StoredCredit, &t.Status, &t.LineDebit, &t.LineCredit); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (s *PGIntegrityStore) UnbalancedEntries(ctx context.Context, companyID int64) ([]UnbalancedEntry, error) {
	rows, err := s.pool.Query(ctx, unbalancedEntryQuery, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []UnbalancedEntry
	for rows.Next() {
		var e UnbalancedEntry
		if err := rows.Scan(&e.CompanyID, &e.Number, &e.TotalDebit, &e.TotalCredit); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
