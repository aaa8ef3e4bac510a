package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/journals"
	"github.com/contaverde/contaverde/internal/accounting/posting"
	"github.com/contaverde/contaverde/internal/invoicing"
	"github.com/contaverde/contaverde/internal/masterdata/thirdparties"
)

// Poster is the slice of the posting service treasury depends on.
type Poster interface {
	PostCollection(ctx context.Context, paymentID int64) (journals.Entry, error)
	PostDisbursement(ctx context.Context, paymentID int64) (journals.Entry, error)
	Reverse(ctx context.Context, entryID, userID int64, reason string) (journals.Entry, error)
}

// ThirdPartyDirectory resolves terceros for kind checks.
type ThirdPartyDirectory interface {
	Get(ctx context.Context, id int64) (thirdparties.ThirdParty, error)
}

// InvoiceReader loads invoices when a collection is derived from one.
type InvoiceReader interface {
	Get(ctx context.Context, invoiceID int64) (invoicing.Invoice, error)
}

// Service manages payments and bank accounts. Confirming a payment hands
// it to the posting service and moves the bank account balance.
type Service struct {
	repo     Repository
	poster   Poster
	parties  ThirdPartyDirectory
	invoices InvoiceReader
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, poster Poster, parties ThirdPartyDirectory, invoices InvoiceReader, logger *slog.Logger) *Service {
	return &Service{repo: repo, poster: poster, parties: parties, invoices: invoices, logger: logger, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateBankAccount registers a cuenta bancaria or cash box.
func (s *Service) CreateBankAccount(ctx context.Context, form BankAccountForm) (BankAccount, error) {
	if err := form.Validate(); err != nil {
		return BankAccount{}, err
	}
	return s.repo.CreateBankAccount(ctx, BankAccount{
		CompanyID:       form.CompanyID,
		Code:            form.Code,
		Name:            form.Name,
		Type:            form.Type,
		AccountNumber:   form.AccountNumber,
		BankName:        form.BankName,
		Balance:         decimal.Zero,
		LedgerAccountID: form.LedgerAccountID,
	})
}

// ListBankAccounts returns a company's accounts ordered by name.
func (s *Service) ListBankAccounts(ctx context.Context, companyID int64) ([]BankAccount, error) {
	return s.repo.ListBankAccounts(ctx, companyID)
}

// CreatePayment registers a pending payment with the next company number.
func (s *Service) CreatePayment(ctx context.Context, in CreatePaymentInput) (Payment, error) {
	if err := in.Validate(); err != nil {
		return Payment{}, err
	}
	if err := s.checkThirdParty(ctx, in.CompanyID, in.ThirdPartyID, in.Kind); err != nil {
		return Payment{}, err
	}
	if in.BankAccountID != nil {
		bank, err := s.repo.GetBankAccount(ctx, *in.BankAccountID)
		if err != nil {
			return Payment{}, err
		}
		if bank.CompanyID != in.CompanyID || !bank.Active {
			return Payment{}, ErrBankAccountNotFound
		}
	}
	var created Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextPaymentNumber(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertPayment(ctx, Payment{
			CompanyID:     in.CompanyID,
			Number:        number,
			Date:          in.Date,
			Kind:          in.Kind,
			ThirdPartyID:  in.ThirdPartyID,
			InvoiceID:     in.InvoiceID,
			BankAccountID: in.BankAccountID,
			Value:         in.Value,
			Reference:     in.Reference,
			Notes:         in.Notes,
			Status:        StatusPending,
			CreatedBy:     in.CreatedBy,
		})
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	return created, nil
}

// CollectInvoice derives a pending cobro covering an invoice's total.
func (s *Service) CollectInvoice(ctx context.Context, invoiceID, userID int64, date time.Time, bankAccountID *int64) (Payment, error) {
	invoice, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return Payment{}, err
	}
	if invoice.Status != invoicing.StatusConfirmed {
		return Payment{}, invoicing.ErrNotConfirmed
	}
	if date.IsZero() {
		date = s.now()
	}
	return s.CreatePayment(ctx, CreatePaymentInput{
		CompanyID:     invoice.CompanyID,
		Date:          date,
		Kind:          posting.PaymentCollection,
		ThirdPartyID:  invoice.CustomerID,
		InvoiceID:     &invoice.ID,
		BankAccountID: bankAccountID,
		Value:         invoice.Total,
		Notes:         fmt.Sprintf("Cobro de factura %s", invoice.Number),
		CreatedBy:     userID,
	})
}

// Confirm posts the payment to the ledger and moves the bank balance.
// State change and posting run in separate transactions so a payment
// whose posting failed can be re-confirmed; the posting service's
// idempotence guard keeps the entry unique.
func (s *Service) Confirm(ctx context.Context, paymentID, userID int64) (Payment, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		switch {
		case current.CanConfirm():
			if current.BankAccountID != nil {
				bank, err := tx.GetBankAccountForUpdate(ctx, *current.BankAccountID)
				if err != nil {
					return err
				}
				if current.IsDisbursement() && !bank.HasFunds(current.Value) {
					return ErrInsufficientFunds
				}
				delta := current.Value
				if current.IsDisbursement() {
					delta = delta.Neg()
				}
				if err := tx.MoveBankBalance(ctx, bank.ID, delta); err != nil {
					return err
				}
			}
			return tx.SetPaymentConfirmed(ctx, current.ID, userID, s.now())
		case current.Status == StatusConfirmed && current.EntryID == nil:
			// posting retry after a partial failure; balance already moved
			return nil
		default:
			return ErrNotPending
		}
	})
	if err != nil {
		return Payment{}, err
	}

	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if payment.IsCollection() {
		_, err = s.poster.PostCollection(ctx, paymentID)
	} else {
		_, err = s.poster.PostDisbursement(ctx, paymentID)
	}
	if err != nil {
		s.logger.Error("payment confirmed but posting failed",
			slog.Int64("payment_id", paymentID), slog.Any("error", err))
		return Payment{}, fmt.Errorf("treasury: payment %d confirmed but posting failed: %w", paymentID, err)
	}
	return s.repo.GetPayment(ctx, paymentID)
}

// Void annuls a confirmed payment: its journal entry is reversed and the
// bank balance move is undone.
func (s *Service) Void(ctx context.Context, paymentID, userID int64, reason string) (Payment, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if !payment.CanVoid() {
		return Payment{}, ErrNotConfirmed
	}
	if payment.EntryID == nil {
		return Payment{}, ErrNotPosted
	}
	if reason == "" {
		reason = fmt.Sprintf("Anulación pago %s", payment.Number)
	}
	if _, err := s.poster.Reverse(ctx, *payment.EntryID, userID, reason); err != nil {
		return Payment{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if payment.BankAccountID != nil {
			delta := payment.Value.Neg()
			if payment.IsDisbursement() {
				delta = payment.Value
			}
			if err := tx.MoveBankBalance(ctx, *payment.BankAccountID, delta); err != nil {
				return err
			}
		}
		return tx.SetPaymentStatus(ctx, paymentID, StatusVoid)
	})
	if err != nil {
		return Payment{}, err
	}
	return s.repo.GetPayment(ctx, paymentID)
}

// Get loads a payment.
func (s *Service) Get(ctx context.Context, paymentID int64) (Payment, error) {
	return s.repo.GetPayment(ctx, paymentID)
}

// List returns a page of company payments, optionally filtered by kind.
func (s *Service) List(ctx context.Context, companyID int64, kind string, limit, offset int) ([]Payment, error) {
	return s.repo.ListPayments(ctx, companyID, kind, limit, offset)
}

func (s *Service) checkThirdParty(ctx context.Context, companyID, thirdPartyID int64, kind posting.PaymentKind) error {
	tp, err := s.parties.Get(ctx, thirdPartyID)
	if err != nil {
		return err
	}
	if tp.CompanyID != companyID {
		return ErrWrongThirdParty
	}
	if kind == posting.PaymentCollection && !tp.IsCustomer() {
		return ErrWrongThirdParty
	}
	if kind == posting.PaymentDisbursement && !tp.IsSupplier() {
		return ErrWrongThirdParty
	}
	return nil
}
