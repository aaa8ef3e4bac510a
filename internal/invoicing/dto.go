package invoicing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/posting"
)

// CreateDraftInput groups the fields required to open a draft invoice.
type CreateDraftInput struct {
	CompanyID  int64            `json:"company_id" validate:"required"`
	Date       time.Time        `json:"date" validate:"required"`
	DueDate    *time.Time       `json:"due_date"`
	CustomerID int64            `json:"customer_id" validate:"required"`
	Kind       posting.SaleKind `json:"kind" validate:"required,oneof=contado credito"`
	Notes      string           `json:"notes"`
	CreatedBy  int64            `json:"created_by" validate:"required"`
}

func (in CreateDraftInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("invoicing: company required")
	}
	if in.CustomerID == 0 {
		return errors.New("invoicing: customer required")
	}
	if in.Date.IsZero() {
		return errors.New("invoicing: date required")
	}
	if in.Kind != posting.SaleCash && in.Kind != posting.SaleCredit {
		return errors.New("invoicing: kind must be contado or credito")
	}
	if in.Kind == posting.SaleCredit && in.DueDate == nil {
		return errors.New("invoicing: credit sales require a due date")
	}
	if in.CreatedBy == 0 {
		return errors.New("invoicing: creator required")
	}
	return nil
}

// AddLineInput carries one detail line.
type AddLineInput struct {
	Description string          `json:"description" validate:"required,max=300"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

func (in AddLineInput) Validate() error {
	if in.Description == "" {
		return errors.New("invoicing: line description required")
	}
	if !in.Quantity.IsPositive() || !in.UnitPrice.IsPositive() {
		return ErrLineAmounts
	}
	if in.TaxRate.IsNegative() {
		return errors.New("invoicing: tax rate cannot be negative")
	}
	return nil
}
