package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/shared"
)

const accountColumns = `id, company_id, code, name, description, side, class, level, parent_id, accepts_postings, opening_balance, debit_total, credit_total, active, created_at, updated_at`

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, companyID int64, code string) (Account, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Account, error)
	SumConfirmedLines(ctx context.Context, accountID int64, asOf time.Time) (debit, credit decimal.Decimal, err error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available within a transaction.
type TxRepository interface {
	Insert(ctx context.Context, a Account) (Account, error)
	GetByCode(ctx context.Context, companyID int64, code string) (Account, error)
	HasActivePostingChildren(ctx context.Context, parentID int64) (bool, error)
	Accumulate(ctx context.Context, accountID int64, debit, credit decimal.Decimal) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

type row interface {
	Scan(dest ...any) error
}

func scanAccount(r row) (Account, error) {
	var a Account
	err := r.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Description, &a.Side, &a.Class, &a.Level, &a.ParentID, &a.AcceptsPostings, &a.OpeningBalance, &a.DebitTotal, &a.CreditTotal, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND code=$2 AND active`, companyID, code))
}

func (r *repository) ListByCompany(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SumConfirmedLines totals confirmed-entry movements against the account up
// to the cut-off date, used for historical balance queries.
func (r *repository) SumConfirmedLines(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id=$1 AND e.status='confirmed' AND e.entry_date <= $2`, accountID, asOf).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return debit, credit, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, a Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, description, side, class, level, parent_id, accepts_postings, opening_balance, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at, updated_at`,
		a.CompanyID, a.Code, a.Name, a.Description, a.Side, a.Class, a.Level, a.ParentID, a.AcceptsPostings, a.OpeningBalance, a.Active)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND code=$2 AND active FOR UPDATE`, companyID, code))
}

func (r *txRepository) HasActivePostingChildren(ctx context.Context, parentID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE parent_id=$1 AND accepts_postings AND active)`, parentID).Scan(&exists)
	return exists, err
}

// Accumulate is a read-modify-write on the account row; the UPDATE takes the
// row lock so concurrent postings against the same account serialize here.
func (r *txRepository) Accumulate(ctx context.Context, accountID int64, debit, credit decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET debit_total = debit_total + $2, credit_total = credit_total + $3, updated_at = NOW() WHERE id=$1`, accountID, debit, credit)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
