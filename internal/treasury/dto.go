package treasury

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/posting"
)

// CreatePaymentInput groups the fields required to register a payment.
type CreatePaymentInput struct {
	CompanyID     int64               `json:"company_id" validate:"required"`
	Date          time.Time           `json:"date" validate:"required"`
	Kind          posting.PaymentKind `json:"kind" validate:"required,oneof=cobro egreso"`
	ThirdPartyID  int64               `json:"third_party_id" validate:"required"`
	InvoiceID     *int64              `json:"invoice_id"`
	BankAccountID *int64              `json:"bank_account_id"`
	Value         decimal.Decimal     `json:"value" validate:"required"`
	Reference     string              `json:"reference" validate:"max=100"`
	Notes         string              `json:"notes"`
	CreatedBy     int64               `json:"created_by" validate:"required"`
}

func (in CreatePaymentInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("treasury: company required")
	}
	if in.ThirdPartyID == 0 {
		return errors.New("treasury: third party required")
	}
	if in.Date.IsZero() {
		return errors.New("treasury: date required")
	}
	if in.Kind != posting.PaymentCollection && in.Kind != posting.PaymentDisbursement {
		return errors.New("treasury: kind must be cobro or egreso")
	}
	if !in.Value.IsPositive() {
		return ErrInvalidValue
	}
	if in.CreatedBy == 0 {
		return errors.New("treasury: creator required")
	}
	return nil
}

// BankAccountForm carries the fields accepted when creating a bank account.
type BankAccountForm struct {
	CompanyID       int64           `json:"company_id" validate:"required"`
	Code            string          `json:"code" validate:"required,max=10"`
	Name            string          `json:"name" validate:"required,max=100"`
	Type            BankAccountType `json:"type" validate:"required,oneof=ahorros corriente caja"`
	AccountNumber   string          `json:"account_number" validate:"max=30"`
	BankName        string          `json:"bank_name" validate:"max=100"`
	LedgerAccountID *int64          `json:"ledger_account_id"`
}

func (in BankAccountForm) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("treasury: company required")
	}
	if in.Code == "" {
		return errors.New("treasury: code required")
	}
	if in.Name == "" {
		return errors.New("treasury: name required")
	}
	switch in.Type {
	case AccountSavings, AccountChecking, AccountCashBox:
	default:
		return errors.New("treasury: invalid account type")
	}
	return nil
}
