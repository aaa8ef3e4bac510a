package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/accounting/journals"
	acctshared "github.com/contaverde/contaverde/internal/accounting/shared"
	internalshared "github.com/contaverde/contaverde/internal/shared"
)

// Service translates finalized business documents into balanced, confirmed
// journal entries, exactly once per document.
type Service struct {
	repo   Repository
	events internalshared.EventSink
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, events internalshared.EventSink) *Service {
	return &Service{repo: repo, events: events, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

type accumulation struct {
	account accounts.Account
	debit   decimal.Decimal
	credit  decimal.Decimal
}

// PostSale derives the journal entry for a finalized sales invoice.
//
// Cash sale:   debit cash (1105), credit income (4135), credit tax (2408).
// Credit sale: debit receivables (1305) instead of cash.
//
// The invoice row is locked before the idempotence check, so concurrent
// calls for the same invoice serialize and the loser returns the winner's
// entry.
func (s *Service) PostSale(ctx context.Context, invoiceID int64) (journals.Entry, error) {
	var (
		entry   journals.Entry
		touched []accumulation
		reused  bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if sale.EntryID != nil {
			existing, err := tx.GetWithLinesForUpdate(ctx, *sale.EntryID)
			if err != nil {
				return err
			}
			entry = existing
			reused = true
			return nil
		}

		debitAccount, err := s.resolveAccount(ctx, tx, sale.CompanyID, saleDebitCode(sale.Kind))
		if err != nil {
			return err
		}
		incomeAccount, err := s.resolveAccount(ctx, tx, sale.CompanyID, accounts.CodeSalesIncome)
		if err != nil {
			return err
		}
		var taxAccount accounts.Account
		hasTax := sale.Tax.IsPositive()
		if hasTax {
			taxAccount, err = s.resolveAccount(ctx, tx, sale.CompanyID, accounts.CodeTaxPayable)
			if err != nil {
				return err
			}
		}

		number, err := tx.NextEntryNumber(ctx, sale.CompanyID)
		if err != nil {
			return err
		}
		draft := journals.Entry{
			CompanyID: sale.CompanyID,
			Number:    number,
			Date:      sale.Date,
			Kind:      journals.KindAutomatic,
			Concept:   fmt.Sprintf("Venta según factura %s - %s", sale.Number, sale.CustomerName),
			Status:    journals.StatusDraft,
			CreatedBy: sale.CreatedBy,
			SourceRef: "FACTURA-" + sale.Number,
		}
		customer := sale.CustomerID

		debitConcept := fmt.Sprintf("Cobro factura %s - %s", sale.Number, sale.CustomerName)
		if sale.Kind == SaleCredit {
			debitConcept = fmt.Sprintf("Venta a crédito factura %s - %s", sale.Number, sale.CustomerName)
		}
		if err := draft.AppendLine(debitAccount, debitConcept, sale.Total, decimal.Zero, &customer); err != nil {
			return err
		}
		if err := draft.AppendLine(incomeAccount, fmt.Sprintf("Venta según factura %s", sale.Number), decimal.Zero, sale.Subtotal, &customer); err != nil {
			return err
		}
		if hasTax {
			if err := draft.AppendLine(taxAccount, fmt.Sprintf("IVA factura %s", sale.Number), decimal.Zero, sale.Tax, &customer); err != nil {
				return err
			}
		}
		if err := draft.Confirm(sale.CreatedBy, s.now()); err != nil {
			return err
		}

		touched = []accumulation{{account: debitAccount, debit: sale.Total, credit: decimal.Zero},
			{account: incomeAccount, debit: decimal.Zero, credit: sale.Subtotal}}
		if hasTax {
			touched = append(touched, accumulation{account: taxAccount, debit: decimal.Zero, credit: sale.Tax})
		}

		persisted, err := s.persist(ctx, tx, draft, touched)
		if err != nil {
			return err
		}
		if err := tx.LinkSaleEntry(ctx, sale.ID, persisted.ID); err != nil {
			return err
		}
		entry = persisted
		return nil
	})
	if err != nil {
		return journals.Entry{}, err
	}
	if !reused {
		s.emitPosted(ctx, entry, touched)
	}
	return entry, nil
}

// PostCollection derives the entry for a customer collection: debit cash,
// credit receivables for the payment value.
func (s *Service) PostCollection(ctx context.Context, paymentID int64) (journals.Entry, error) {
	return s.postPayment(ctx, paymentID, PaymentCollection)
}

// PostDisbursement mirrors PostCollection for supplier payments: debit
// expenses, credit the resolved cash/bank account. A bank account with a
// linked ledger account takes precedence over the generic bank code.
func (s *Service) PostDisbursement(ctx context.Context, paymentID int64) (journals.Entry, error) {
	return s.postPayment(ctx, paymentID, PaymentDisbursement)
}

func (s *Service) postPayment(ctx context.Context, paymentID int64, want PaymentKind) (journals.Entry, error) {
	var (
		entry   journals.Entry
		touched []accumulation
		reused  bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Kind != want {
			return acctshared.ErrWrongPaymentKind
		}
		if payment.EntryID != nil {
			existing, err := tx.GetWithLinesForUpdate(ctx, *payment.EntryID)
			if err != nil {
				return err
			}
			entry = existing
			reused = true
			return nil
		}

		var debitConcept, creditConcept string
		var debitAccount, creditAccount accounts.Account
		switch want {
		case PaymentCollection:
			debitAccount, err = s.resolveAccount(ctx, tx, payment.CompanyID, accounts.CodeCash)
			if err != nil {
				return err
			}
			creditAccount, err = s.resolveAccount(ctx, tx, payment.CompanyID, accounts.CodeReceivables)
			if err != nil {
				return err
			}
			debitConcept = fmt.Sprintf("Cobro de %s", payment.ThirdPartyName)
			creditConcept = fmt.Sprintf("Abono a cuenta de %s", payment.ThirdPartyName)
			if payment.InvoiceNumber != "" {
				creditConcept += fmt.Sprintf(" - Factura %s", payment.InvoiceNumber)
			}
		case PaymentDisbursement:
			debitAccount, err = s.resolveAccount(ctx, tx, payment.CompanyID, accounts.CodeExpenses)
			if err != nil {
				return err
			}
			creditAccount, err = s.resolveCashAccount(ctx, tx, payment)
			if err != nil {
				return err
			}
			debitConcept = fmt.Sprintf("Gasto por %s", payment.ThirdPartyName)
			creditConcept = fmt.Sprintf("Egreso desde %s", creditAccount.Name)
		}

		number, err := tx.NextEntryNumber(ctx, payment.CompanyID)
		if err != nil {
			return err
		}
		concept := fmt.Sprintf("Cobro a cliente %s", payment.ThirdPartyName)
		sourceRef := "COBRO-" + payment.Number
		if want == PaymentDisbursement {
			concept = fmt.Sprintf("Egreso por pago %s - %s", payment.Number, payment.ThirdPartyName)
			sourceRef = "EGRESO-" + payment.Number
		}
		draft := journals.Entry{
			CompanyID: payment.CompanyID,
			Number:    number,
			Date:      payment.Date,
			Kind:      journals.KindAutomatic,
			Concept:   concept,
			Status:    journals.StatusDraft,
			CreatedBy: payment.CreatedBy,
			SourceRef: sourceRef,
		}
		thirdParty := payment.ThirdPartyID
		if err := draft.AppendLine(debitAccount, debitConcept, payment.Value, decimal.Zero, &thirdParty); err != nil {
			return err
		}
		if err := draft.AppendLine(creditAccount, creditConcept, decimal.Zero, payment.Value, &thirdParty); err != nil {
			return err
		}
		if err := draft.Confirm(payment.CreatedBy, s.now()); err != nil {
			return err
		}

		touched = []accumulation{
			{account: debitAccount, debit: payment.Value, credit: decimal.Zero},
			{account: creditAccount, debit: decimal.Zero, credit: payment.Value},
		}
		persisted, err := s.persist(ctx, tx, draft, touched)
		if err != nil {
			return err
		}
		if err := tx.LinkPaymentEntry(ctx, payment.ID, persisted.ID); err != nil {
			return err
		}
		entry = persisted
		return nil
	})
	if err != nil {
		return journals.Entry{}, err
	}
	if !reused {
		s.emitPosted(ctx, entry, touched)
	}
	return entry, nil
}

// Reverse creates a mirrored entry for a confirmed one, accumulates the
// swapped amounts, and marks the original void with a cross-reference.
func (s *Service) Reverse(ctx context.Context, entryID, userID int64, reason string) (journals.Entry, error) {
	if reason == "" {
		reason = "Reversión de asiento"
	}
	var (
		reversal journals.Entry
		touched  []accumulation
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetWithLinesForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if original.Status != journals.StatusConfirmed {
			return acctshared.ErrNotConfirmed
		}

		number, err := tx.NextEntryNumber(ctx, original.CompanyID)
		if err != nil {
			return err
		}
		draft := journals.Entry{
			CompanyID: original.CompanyID,
			Number:    number,
			Date:      s.now(),
			Kind:      journals.KindAutomatic,
			Concept:   "REVERSIÓN - " + original.Concept,
			Notes:     fmt.Sprintf("Motivo: %s. Reversa asiento %s", reason, original.Number),
			Status:    journals.StatusDraft,
			CreatedBy: userID,
			SourceRef: "REV-" + original.Number,
		}
		touched = touched[:0]
		for _, line := range original.Lines {
			account, err := tx.GetAccount(ctx, line.AccountID)
			if err != nil {
				return err
			}
			if err := draft.AppendLine(account, "REVERSIÓN - "+line.Concept, line.Credit, line.Debit, line.ThirdPartyID); err != nil {
				return err
			}
			touched = append(touched, accumulation{account: account, debit: line.Credit, credit: line.Debit})
		}
		if err := draft.Confirm(userID, s.now()); err != nil {
			return err
		}

		persisted, err := s.persist(ctx, tx, draft, touched)
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, original.ID, journals.StatusVoid); err != nil {
			return err
		}
		if err := tx.AppendNote(ctx, original.ID, fmt.Sprintf("Anulado por asiento de reversión %s", persisted.Number)); err != nil {
			return err
		}
		reversal = persisted
		return nil
	})
	if err != nil {
		return journals.Entry{}, err
	}
	s.emitPosted(ctx, reversal, touched)
	s.emitEvent(ctx, internalshared.EventEntryVoided, reversal.CompanyID, userID, "journal_entry", fmt.Sprintf("%d", entryID), map[string]any{
		"reversal_number": reversal.Number,
		"reason":          reason,
	})
	return reversal, nil
}

// persist writes the confirmed aggregate and applies the balance
// accumulations inside the caller's transaction.
func (s *Service) persist(ctx context.Context, tx TxRepository, entry journals.Entry, touched []accumulation) (journals.Entry, error) {
	inserted, err := tx.InsertEntry(ctx, entry)
	if err != nil {
		return journals.Entry{}, err
	}
	lines, err := tx.InsertLines(ctx, inserted.ID, entry.Lines)
	if err != nil {
		return journals.Entry{}, err
	}
	inserted.Lines = lines
	for _, acc := range touched {
		if err := tx.AccumulateAccount(ctx, acc.account.ID, acc.debit, acc.credit); err != nil {
			return journals.Entry{}, err
		}
	}
	return inserted, nil
}

func (s *Service) resolveAccount(ctx context.Context, tx TxRepository, companyID int64, code string) (accounts.Account, error) {
	account, err := tx.GetAccountByCode(ctx, companyID, code)
	if err != nil {
		return accounts.Account{}, &acctshared.MissingAccountError{CompanyID: companyID, Code: code}
	}
	return account, nil
}

// resolveCashAccount picks the credit account for a disbursement: the bank
// account's linked ledger account when configured, otherwise the generic
// bank code.
func (s *Service) resolveCashAccount(ctx context.Context, tx TxRepository, payment PaymentDocument) (accounts.Account, error) {
	if payment.BankAccountID != nil {
		bank, err := tx.GetBankAccount(ctx, *payment.BankAccountID)
		if err != nil {
			return accounts.Account{}, err
		}
		if bank.LedgerAccountID != nil {
			return tx.GetAccount(ctx, *bank.LedgerAccountID)
		}
	}
	return s.resolveAccount(ctx, tx, payment.CompanyID, accounts.CodeBank)
}

func saleDebitCode(kind SaleKind) string {
	if kind == SaleCash {
		return accounts.CodeCash
	}
	return accounts.CodeReceivables
}

func (s *Service) emitPosted(ctx context.Context, entry journals.Entry, touched []accumulation) {
	s.emitEvent(ctx, internalshared.EventEntryConfirmed, entry.CompanyID, entry.CreatedBy, "journal_entry", fmt.Sprintf("%d", entry.ID), map[string]any{
		"number":     entry.Number,
		"source_ref": entry.SourceRef,
	})
	for _, acc := range touched {
		s.emitEvent(ctx, internalshared.EventAccountBalanceChanged, entry.CompanyID, entry.CreatedBy, "account", fmt.Sprintf("%d", acc.account.ID), map[string]any{
			"code":   acc.account.Code,
			"debit":  acc.debit.StringFixed(2),
			"credit": acc.credit.StringFixed(2),
		})
	}
}

func (s *Service) emitEvent(ctx context.Context, name string, companyID, actorID int64, entity, entityID string, meta map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.Emit(ctx, internalshared.DomainEvent{
		Name:      name,
		CompanyID: companyID,
		ActorID:   actorID,
		Entity:    entity,
		EntityID:  entityID,
		Meta:      meta,
		At:        s.now(),
	})
}
