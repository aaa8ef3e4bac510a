package treasury

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/posting"
)

// PaymentStatus enumerates the payment lifecycle: pendiente -> confirmado
// -> anulado.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pendiente"
	StatusConfirmed PaymentStatus = "confirmado"
	StatusVoid      PaymentStatus = "anulado"
)

// Payment is a pago: a customer collection (cobro) or a supplier
// disbursement (egreso). `(company, number)` is unique. The journal entry
// reference is written back by the posting service on confirmation.
type Payment struct {
	ID            int64               `json:"id"`
	CompanyID     int64               `json:"company_id"`
	Number        string              `json:"number"`
	Date          time.Time           `json:"date"`
	Kind          posting.PaymentKind `json:"kind"`
	ThirdPartyID  int64               `json:"third_party_id"`
	InvoiceID     *int64              `json:"invoice_id,omitempty"`
	BankAccountID *int64              `json:"bank_account_id,omitempty"`
	Value         decimal.Decimal     `json:"value"`
	Reference     string              `json:"reference"`
	Notes         string              `json:"notes"`
	Status        PaymentStatus       `json:"status"`
	CreatedBy     int64               `json:"created_by"`
	ConfirmedBy   *int64              `json:"confirmed_by,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	EntryID       *int64              `json:"entry_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CanEdit reports whether the payment may still be changed.
func (p *Payment) CanEdit() bool { return p.Status == StatusPending }

// CanConfirm reports whether the payment is ready to be posted.
func (p *Payment) CanConfirm() bool { return p.Status == StatusPending }

// CanVoid reports whether the payment may be annulled.
func (p *Payment) CanVoid() bool { return p.Status == StatusConfirmed }

// IsCollection reports whether the payment is a cobro.
func (p *Payment) IsCollection() bool { return p.Kind == posting.PaymentCollection }

// IsDisbursement reports whether the payment is an egreso.
func (p *Payment) IsDisbursement() bool { return p.Kind == posting.PaymentDisbursement }

// BankAccountType enumerates cash and bank account flavors.
type BankAccountType string

const (
	AccountSavings  BankAccountType = "ahorros"
	AccountChecking BankAccountType = "corriente"
	AccountCashBox  BankAccountType = "caja"
)

// BankAccount is a cuenta bancaria (or the cash box). Confirmed payments
// move its running balance; an optional ledger account overrides the
// generic bank code when disbursements are posted.
type BankAccount struct {
	ID              int64           `json:"id"`
	CompanyID       int64           `json:"company_id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Type            BankAccountType `json:"type"`
	AccountNumber   string          `json:"account_number"`
	BankName        string          `json:"bank_name"`
	Balance         decimal.Decimal `json:"balance"`
	LedgerAccountID *int64          `json:"ledger_account_id,omitempty"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasFunds reports whether the balance covers a disbursement amount.
func (b *BankAccount) HasFunds(amount decimal.Decimal) bool {
	return b.Balance.GreaterThanOrEqual(amount)
}
