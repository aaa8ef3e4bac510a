package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates confirmed journal lines per posting account.
type Repository interface {
	// BalancesAsOf returns per-account opening balances plus movement
	// totals of confirmed entries dated on or before the cut-off.
	BalancesAsOf(ctx context.Context, companyID int64, asOf time.Time) ([]AccountBalance, error)
	// MovementsBetween returns per-account movement totals of confirmed
	// entries inside the window, with a zero opening column.
	MovementsBetween(ctx context.Context, companyID int64, from, to time.Time) ([]AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const balanceQuery = `
SELECT a.code, a.name, a.side, a.class, a.opening_balance,
       COALESCE(SUM(l.debit), 0)  AS debit,
       COALESCE(SUM(l.credit), 0) AS credit
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.entry_id
     AND e.status = 'confirmed' AND e.entry_date <= $2
WHERE a.company_id = $1 AND a.accepts_postings AND a.active
GROUP BY a.code, a.name, a.side, a.class, a.opening_balance
ORDER BY a.code`

func (r *repository) BalancesAsOf(ctx context.Context, companyID int64, asOf time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, balanceQuery, companyID, asOf)
	if err != nil {
		return nil, err
	}
	return scanBalances(rows)
}

const movementQuery = `
SELECT a.code, a.name, a.side, a.class, 0::numeric AS opening,
       COALESCE(SUM(l.debit), 0)  AS debit,
       COALESCE(SUM(l.credit), 0) AS credit
FROM accounts a
JOIN journal_lines l ON l.account_id = a.id
JOIN journal_entries e ON e.id = l.entry_id
WHERE a.company_id = $1 AND a.accepts_postings AND a.active
  AND e.status = 'confirmed' AND e.entry_date >= $2 AND e.entry_date <= $3
GROUP BY a.code, a.name, a.side, a.class
ORDER BY a.code`

func (r *repository) MovementsBetween(ctx context.Context, companyID int64, from, to time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, movementQuery, companyID, from, to)
	if err != nil {
		return nil, err
	}
	return scanBalances(rows)
}

func scanBalances(rows pgx.Rows) ([]AccountBalance, error) {
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.Code, &b.Name, &b.Side, &b.Class, &b.Opening, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
