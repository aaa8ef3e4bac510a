package invoicing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/posting"
)

// InvoiceStatus enumerates the invoice lifecycle: borrador -> confirmada
// -> anulada.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "borrador"
	StatusConfirmed InvoiceStatus = "confirmada"
	StatusVoid      InvoiceStatus = "anulada"
)

// Invoice is a factura de venta. Totals are derived from the lines; the
// journal entry reference is written back by the posting service on
// confirmation.
type Invoice struct {
	ID          int64            `json:"id"`
	CompanyID   int64            `json:"company_id"`
	Number      string           `json:"number"`
	Date        time.Time        `json:"date"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	CustomerID  int64            `json:"customer_id"`
	Kind        posting.SaleKind `json:"kind"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	Tax         decimal.Decimal  `json:"tax"`
	Total       decimal.Decimal  `json:"total"`
	Status      InvoiceStatus    `json:"status"`
	Notes       string           `json:"notes"`
	CreatedBy   int64            `json:"created_by"`
	ConfirmedBy *int64           `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time       `json:"confirmed_at,omitempty"`
	EntryID     *int64           `json:"entry_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Lines       []InvoiceLine    `json:"lines,omitempty"`
}

// InvoiceLine is a free-text detail line. Amounts are computed from
// quantity, unit price and tax rate at two decimal places.
type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
	Position    int             `json:"position"`
}

// ComputeAmounts derives the line amounts. The tax rate is a percentage
// (19 for Colombian IVA, not 0.19).
func (l *InvoiceLine) ComputeAmounts() {
	l.Subtotal = l.Quantity.Mul(l.UnitPrice).Round(2)
	l.TaxAmount = l.Subtotal.Mul(l.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	l.Total = l.Subtotal.Add(l.TaxAmount)
}

// RecomputeTotals refreshes the invoice totals from its lines.
func (i *Invoice) RecomputeTotals() {
	subtotal, tax := decimal.Zero, decimal.Zero
	for _, line := range i.Lines {
		subtotal = subtotal.Add(line.Subtotal)
		tax = tax.Add(line.TaxAmount)
	}
	i.Subtotal = subtotal
	i.Tax = tax
	i.Total = subtotal.Add(tax)
}

// CanEdit reports whether lines may still be changed.
func (i *Invoice) CanEdit() bool { return i.Status == StatusDraft }

// CanConfirm reports whether the invoice is ready to be finalized.
func (i *Invoice) CanConfirm() bool { return i.Status == StatusDraft && len(i.Lines) > 0 }

// CanVoid reports whether the invoice may be annulled.
func (i *Invoice) CanVoid() bool { return i.Status == StatusConfirmed }
