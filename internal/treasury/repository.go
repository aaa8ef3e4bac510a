package treasury

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/journals"
)

const paymentColumns = `id, company_id, number, payment_date, kind, third_party_id, invoice_id, bank_account_id, value, reference, notes, status, created_by, confirmed_by, confirmed_at, entry_id, created_at, updated_at`

const bankAccountColumns = `id, company_id, code, name, type, account_number, bank_name, balance, ledger_account_id, active, created_at, updated_at`

// Repository encapsulates DB operations for payments and bank accounts.
type Repository interface {
	GetPayment(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context, companyID int64, kind string, limit, offset int) ([]Payment, error)
	GetBankAccount(ctx context.Context, id int64) (BankAccount, error)
	ListBankAccounts(ctx context.Context, companyID int64) ([]BankAccount, error)
	CreateBankAccount(ctx context.Context, b BankAccount) (BankAccount, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available within a transaction.
type TxRepository interface {
	NextPaymentNumber(ctx context.Context, companyID int64) (string, error)
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (Payment, error)
	SetPaymentConfirmed(ctx context.Context, id, confirmedBy int64, at time.Time) error
	SetPaymentStatus(ctx context.Context, id int64, status PaymentStatus) error
	GetBankAccountForUpdate(ctx context.Context, id int64) (BankAccount, error)
	MoveBankBalance(ctx context.Context, bankAccountID int64, delta decimal.Decimal) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.CompanyID, &p.Number, &p.Date, &p.Kind, &p.ThirdPartyID, &p.InvoiceID, &p.BankAccountID, &p.Value, &p.Reference, &p.Notes, &p.Status, &p.CreatedBy, &p.ConfirmedBy, &p.ConfirmedAt, &p.EntryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func scanBankAccount(row pgx.Row) (BankAccount, error) {
	var b BankAccount
	err := row.Scan(&b.ID, &b.CompanyID, &b.Code, &b.Name, &b.Type, &b.AccountNumber, &b.BankName, &b.Balance, &b.LedgerAccountID, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, ErrBankAccountNotFound
		}
		return BankAccount{}, err
	}
	return b, nil
}

func (r *repository) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (r *repository) ListPayments(ctx context.Context, companyID int64, kind string, limit, offset int) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE company_id = $1`
	args := []any{companyID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY payment_date DESC, number DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) GetBankAccount(ctx context.Context, id int64) (BankAccount, error) {
	return scanBankAccount(r.db.QueryRow(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id = $1`, id))
}

func (r *repository) ListBankAccounts(ctx context.Context, companyID int64) ([]BankAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BankAccount
	for rows.Next() {
		b, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) CreateBankAccount(ctx context.Context, b BankAccount) (BankAccount, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO bank_accounts (company_id, code, name, type, account_number, bank_name, balance, ledger_account_id, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,true) RETURNING id, active, created_at, updated_at`,
		b.CompanyID, b.Code, b.Name, b.Type, b.AccountNumber, b.BankName, b.Balance, b.LedgerAccountID).
		Scan(&b.ID, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return BankAccount{}, ErrDuplicate
		}
		return BankAccount{}, err
	}
	return b, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) NextPaymentNumber(ctx context.Context, companyID int64) (string, error) {
	var last string
	err := r.tx.QueryRow(ctx, `SELECT number FROM payments WHERE company_id = $1 ORDER BY number DESC LIMIT 1 FOR UPDATE`, companyID).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	next, _ := journals.NextNumber(last)
	return next, nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO payments (company_id, number, payment_date, kind, third_party_id, invoice_id, bank_account_id, value, reference, notes, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id, created_at, updated_at`,
		p.CompanyID, p.Number, p.Date, p.Kind, p.ThirdPartyID, p.InvoiceID, p.BankAccountID, p.Value, p.Reference, p.Notes, p.Status, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Payment{}, ErrDuplicate
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) GetPaymentForUpdate(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepository) SetPaymentConfirmed(ctx context.Context, id, confirmedBy int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE payments SET status = $2, confirmed_by = $3, confirmed_at = $4, updated_at = now() WHERE id = $1`,
		id, StatusConfirmed, confirmedBy, at)
	return err
}

func (r *txRepository) SetPaymentStatus(ctx context.Context, id int64, status PaymentStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE payments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

func (r *txRepository) GetBankAccountForUpdate(ctx context.Context, id int64) (BankAccount, error) {
	return scanBankAccount(r.tx.QueryRow(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepository) MoveBankBalance(ctx context.Context, bankAccountID int64, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE bank_accounts SET balance = balance + $2, updated_at = now() WHERE id = $1`, bankAccountID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBankAccountNotFound
	}
	return nil
}
