package posting

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contaverde/contaverde/internal/accounting/journals"
	"github.com/contaverde/contaverde/internal/shared"
)

type repository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository builds the pgx-backed posting repository.
func NewRepository(db *pgxpool.Pool, logger *slog.Logger) Repository {
	return &repository{db: db, logger: logger}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{
		TxRepository: journals.NewTxRepository(tx, r.logger),
		tx:           tx,
	}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	journals.TxRepository
	tx pgx.Tx
}

func (r *txRepository) GetSaleForUpdate(ctx context.Context, invoiceID int64) (SaleDocument, error) {
	var d SaleDocument
	err := r.tx.QueryRow(ctx, `SELECT i.id, i.company_id, i.number, i.invoice_date, i.customer_id, t.name, i.sale_kind, i.subtotal, i.tax_total, i.total, i.created_by, i.entry_id
FROM invoices i
JOIN third_parties t ON t.id = i.customer_id
WHERE i.id=$1 FOR UPDATE OF i`, invoiceID).
		Scan(&d.ID, &d.CompanyID, &d.Number, &d.Date, &d.CustomerID, &d.CustomerName, &d.Kind, &d.Subtotal, &d.Tax, &d.Total, &d.CreatedBy, &d.EntryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SaleDocument{}, shared.ErrNotFound
		}
		return SaleDocument{}, err
	}
	return d, nil
}

func (r *txRepository) GetPaymentForUpdate(ctx context.Context, paymentID int64) (PaymentDocument, error) {
	var d PaymentDocument
	err := r.tx.QueryRow(ctx, `SELECT p.id, p.company_id, p.number, p.payment_date, p.kind, p.third_party_id, t.name, COALESCE(i.number, ''), p.bank_account_id, p.value, p.created_by, p.entry_id
FROM payments p
JOIN third_parties t ON t.id = p.third_party_id
LEFT JOIN invoices i ON i.id = p.invoice_id
WHERE p.id=$1 FOR UPDATE OF p`, paymentID).
		Scan(&d.ID, &d.CompanyID, &d.Number, &d.Date, &d.Kind, &d.ThirdPartyID, &d.ThirdPartyName, &d.InvoiceNumber, &d.BankAccountID, &d.Value, &d.CreatedBy, &d.EntryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentDocument{}, shared.ErrNotFound
		}
		return PaymentDocument{}, err
	}
	return d, nil
}

func (r *txRepository) GetBankAccount(ctx context.Context, id int64) (BankAccount, error) {
	var b BankAccount
	err := r.tx.QueryRow(ctx, `SELECT id, name, ledger_account_id FROM bank_accounts WHERE id=$1`, id).
		Scan(&b.ID, &b.Name, &b.LedgerAccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, shared.ErrNotFound
		}
		return BankAccount{}, err
	}
	return b, nil
}

func (r *txRepository) LinkSaleEntry(ctx context.Context, invoiceID, entryID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET entry_id=$2, updated_at=NOW() WHERE id=$1`, invoiceID, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) LinkPaymentEntry(ctx context.Context, paymentID, entryID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payments SET entry_id=$2, updated_at=NOW() WHERE id=$1`, paymentID, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
