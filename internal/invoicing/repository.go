package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/journals"
)

const invoiceColumns = `id, company_id, number, invoice_date, due_date, customer_id, sale_kind, subtotal, tax_total, total, status, notes, created_by, confirmed_by, confirmed_at, entry_id, created_at, updated_at`

// Repository encapsulates DB operations for invoices.
type Repository interface {
	GetWithLines(ctx context.Context, id int64) (Invoice, error)
	ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available within a transaction.
type TxRepository interface {
	NextInvoiceNumber(ctx context.Context, companyID int64) (string, error)
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
	InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) ([]InvoiceLine, error)
	GetWithLinesForUpdate(ctx context.Context, id int64) (Invoice, error)
	UpdateTotals(ctx context.Context, id int64, subtotal, tax, total decimal.Decimal) error
	SetConfirmed(ctx context.Context, id, confirmedBy int64, at time.Time) error
	SetStatus(ctx context.Context, id int64, status InvoiceStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.Number, &inv.Date, &inv.DueDate, &inv.CustomerID, &inv.Kind, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Status, &inv.Notes, &inv.CreatedBy, &inv.ConfirmedBy, &inv.ConfirmedAt, &inv.EntryID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func loadLines(ctx context.Context, q queryer, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, description, quantity, unit_price, tax_rate, subtotal, tax_amount, total, position
FROM invoice_lines WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.TaxRate, &l.Subtotal, &l.TaxAmount, &l.Total, &l.Position); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) GetWithLines(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines, err = loadLines(ctx, r.db, id)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE company_id = $1 ORDER BY invoice_date DESC, number DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
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

// NextInvoiceNumber serializes per-company numbering on the current
// maximum row, same scheme as journal entries.
func (r *txRepository) NextInvoiceNumber(ctx context.Context, companyID int64) (string, error) {
	var last string
	err := r.tx.QueryRow(ctx, `SELECT number FROM invoices WHERE company_id = $1 ORDER BY number DESC LIMIT 1 FOR UPDATE`, companyID).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	next, _ := journals.NextNumber(last)
	return next, nil
}

func (r *txRepository) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (company_id, number, invoice_date, due_date, customer_id, sale_kind, subtotal, tax_total, total, status, notes, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id, created_at, updated_at`,
		inv.CompanyID, inv.Number, inv.Date, inv.DueDate, inv.CustomerID, inv.Kind, inv.Subtotal, inv.Tax, inv.Total, inv.Status, inv.Notes, inv.CreatedBy).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Invoice{}, ErrDuplicate
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) ([]InvoiceLine, error) {
	out := make([]InvoiceLine, 0, len(lines))
	for _, line := range lines {
		line.InvoiceID = invoiceID
		err := r.tx.QueryRow(ctx, `INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, tax_rate, subtotal, tax_amount, total, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
			invoiceID, line.Description, line.Quantity, line.UnitPrice, line.TaxRate, line.Subtotal, line.TaxAmount, line.Total, line.Position).Scan(&line.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func (r *txRepository) GetWithLinesForUpdate(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines, err = loadLines(ctx, r.tx, id)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) UpdateTotals(ctx context.Context, id int64, subtotal, tax, total decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE invoices SET subtotal = $2, tax_total = $3, total = $4, updated_at = now() WHERE id = $1`, id, subtotal, tax, total)
	return err
}

func (r *txRepository) SetConfirmed(ctx context.Context, id, confirmedBy int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE invoices SET status = $2, confirmed_by = $3, confirmed_at = $4, updated_at = now() WHERE id = $1`,
		id, StatusConfirmed, confirmedBy, at)
	return err
}

func (r *txRepository) SetStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}
