package posting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/journals"
)

// SaleKind mirrors the invoice sale type.
type SaleKind string

const (
	SaleCash   SaleKind = "contado"
	SaleCredit SaleKind = "credito"
)

// PaymentKind mirrors the treasury payment type.
type PaymentKind string

const (
	PaymentCollection   PaymentKind = "cobro"
	PaymentDisbursement PaymentKind = "egreso"
)

// SaleDocument is the read view of a finalized invoice. The posting
// service only reads these fields and writes back the entry link.
type SaleDocument struct {
	ID           int64
	CompanyID    int64
	Number       string
	Date         time.Time
	CustomerID   int64
	CustomerName string
	Kind         SaleKind
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	CreatedBy    int64
	EntryID      *int64
}

// PaymentDocument is the read view of a treasury payment.
type PaymentDocument struct {
	ID             int64
	CompanyID      int64
	Number         string
	Date           time.Time
	Kind           PaymentKind
	ThirdPartyID   int64
	ThirdPartyName string
	InvoiceNumber  string
	BankAccountID  *int64
	Value          decimal.Decimal
	CreatedBy      int64
	EntryID        *int64
}

// BankAccount carries the optional ledger account configured on a
// treasury bank account.
type BankAccount struct {
	ID              int64
	Name            string
	LedgerAccountID *int64
}

// Repository opens posting transactions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository is the transactional surface of a posting operation: the
// journal/account operations plus source-document reads and back-links.
// Document reads take a row lock so the idempotence check and the entry
// creation form one atomic unit per document.
type TxRepository interface {
	journals.TxRepository

	GetSaleForUpdate(ctx context.Context, invoiceID int64) (SaleDocument, error)
	GetPaymentForUpdate(ctx context.Context, paymentID int64) (PaymentDocument, error)
	GetBankAccount(ctx context.Context, id int64) (BankAccount, error)
	LinkSaleEntry(ctx context.Context, invoiceID, entryID int64) error
	LinkPaymentEntry(ctx context.Context, paymentID, entryID int64) error
}
