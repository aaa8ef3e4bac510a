package invoicing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contaverde/contaverde/internal/accounting/journals"
	"github.com/contaverde/contaverde/internal/masterdata/thirdparties"
)

// Poster is the slice of the posting service invoicing depends on.
type Poster interface {
	PostSale(ctx context.Context, invoiceID int64) (journals.Entry, error)
	Reverse(ctx context.Context, entryID, userID int64, reason string) (journals.Entry, error)
}

// CustomerDirectory resolves third parties for customer checks.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (thirdparties.ThirdParty, error)
}

// Service manages the invoice lifecycle. Confirming an invoice hands it to
// the posting service, which writes the journal entry and links it back.
type Service struct {
	repo      Repository
	poster    Poster
	customers CustomerDirectory
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, poster Poster, customers CustomerDirectory, logger *slog.Logger) *Service {
	return &Service{repo: repo, poster: poster, customers: customers, logger: logger, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateDraft opens an empty invoice with the next company number.
func (s *Service) CreateDraft(ctx context.Context, in CreateDraftInput) (Invoice, error) {
	if err := in.Validate(); err != nil {
		return Invoice{}, err
	}
	customer, err := s.customers.Get(ctx, in.CustomerID)
	if err != nil {
		return Invoice{}, err
	}
	if customer.CompanyID != in.CompanyID || !customer.IsCustomer() {
		return Invoice{}, ErrNotACustomer
	}
	var created Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextInvoiceNumber(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		inserted, err := tx.Insert(ctx, Invoice{
			CompanyID:  in.CompanyID,
			Number:     number,
			Date:       in.Date,
			DueDate:    in.DueDate,
			CustomerID: in.CustomerID,
			Kind:       in.Kind,
			Status:     StatusDraft,
			Notes:      in.Notes,
			CreatedBy:  in.CreatedBy,
		})
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return created, nil
}

// AddLine attaches a detail line to a draft invoice and persists the
// recomputed totals.
func (s *Service) AddLine(ctx context.Context, invoiceID int64, in AddLineInput) (Invoice, error) {
	if err := in.Validate(); err != nil {
		return Invoice{}, err
	}
	var invoice Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetWithLinesForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !current.CanEdit() {
			return ErrNotDraft
		}
		line := InvoiceLine{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			Position:    len(current.Lines) + 1,
		}
		line.ComputeAmounts()
		inserted, err := tx.InsertLines(ctx, current.ID, []InvoiceLine{line})
		if err != nil {
			return err
		}
		current.Lines = append(current.Lines, inserted...)
		current.RecomputeTotals()
		if err := tx.UpdateTotals(ctx, current.ID, current.Subtotal, current.Tax, current.Total); err != nil {
			return err
		}
		invoice = current
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// Confirm finalizes the invoice and posts it to the ledger. The two steps
// run in separate transactions: a confirmed invoice whose posting failed
// can be re-confirmed, and the posting service's own idempotence guard
// ensures the entry is only written once.
func (s *Service) Confirm(ctx context.Context, invoiceID, userID int64) (Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetWithLinesForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		switch {
		case current.CanConfirm():
			return tx.SetConfirmed(ctx, current.ID, userID, s.now())
		case current.Status == StatusConfirmed && current.EntryID == nil:
			// posting retry after a partial failure
			return nil
		case current.Status == StatusDraft:
			return ErrNoLines
		default:
			return ErrNotDraft
		}
	})
	if err != nil {
		return Invoice{}, err
	}
	if _, err := s.poster.PostSale(ctx, invoiceID); err != nil {
		s.logger.Error("invoice confirmed but posting failed",
			slog.Int64("invoice_id", invoiceID), slog.Any("error", err))
		return Invoice{}, fmt.Errorf("invoicing: invoice %d confirmed but posting failed: %w", invoiceID, err)
	}
	return s.repo.GetWithLines(ctx, invoiceID)
}

// Void annuls a confirmed invoice by reversing its journal entry.
func (s *Service) Void(ctx context.Context, invoiceID, userID int64, reason string) (Invoice, error) {
	invoice, err := s.repo.GetWithLines(ctx, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if !invoice.CanVoid() {
		return Invoice{}, ErrNotConfirmed
	}
	if invoice.EntryID == nil {
		return Invoice{}, ErrNotPosted
	}
	if reason == "" {
		reason = fmt.Sprintf("Anulación factura %s", invoice.Number)
	}
	if _, err := s.poster.Reverse(ctx, *invoice.EntryID, userID, reason); err != nil {
		return Invoice{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetStatus(ctx, invoiceID, StatusVoid)
	})
	if err != nil {
		return Invoice{}, err
	}
	return s.repo.GetWithLines(ctx, invoiceID)
}

// Get loads an invoice with its lines.
func (s *Service) Get(ctx context.Context, invoiceID int64) (Invoice, error) {
	return s.repo.GetWithLines(ctx, invoiceID)
}

// List returns a page of company invoices, newest first.
func (s *Service) List(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error) {
	return s.repo.ListByCompany(ctx, companyID, limit, offset)
}
