package journals

import (
	"context"
	"fmt"
	"time"

	internalshared "github.com/contaverde/contaverde/internal/shared"
)

// Service manages the manual journal-entry lifecycle. Automatic entries
// derived from invoices and payments are built by the posting package on
// top of the same repository.
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

// CreateDraft opens an empty manual entry with the next company number.
func (s *Service) CreateDraft(ctx context.Context, in CreateDraftInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextEntryNumber(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, Entry{
			CompanyID: in.CompanyID,
			Number:    number,
			Date:      in.Date,
			Kind:      KindManual,
			Concept:   in.Concept,
			Notes:     in.Notes,
			Status:    StatusDraft,
			CreatedBy: in.CreatedBy,
		})
		if err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// AddLine attaches a movement to a draft entry and persists the recomputed
// totals.
func (s *Service) AddLine(ctx context.Context, entryID int64, in AddLineInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetWithLinesForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		account, err := tx.GetAccount(ctx, in.AccountID)
		if err != nil {
			return err
		}
		if err := current.AppendLine(account, in.Concept, in.Debit, in.Credit, in.ThirdPartyID); err != nil {
			return err
		}
		added := current.Lines[len(current.Lines)-1:]
		if _, err := tx.InsertLines(ctx, current.ID, added); err != nil {
			return err
		}
		if err := tx.UpdateTotals(ctx, current.ID, current.TotalDebit, current.TotalCredit); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Confirm locks a balanced draft entry. Running balances are not touched
// here; only the posting service accumulates account balances.
func (s *Service) Confirm(ctx context.Context, entryID, userID int64) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetWithLinesForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := current.Confirm(userID, s.now()); err != nil {
			return err
		}
		if err := tx.ConfirmEntry(ctx, current.ID, userID, *current.ConfirmedAt); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.emit(ctx, internalshared.EventEntryConfirmed, entry, userID, nil)
	return entry, nil
}

// Void marks a confirmed entry void without deleting its lines.
func (s *Service) Void(ctx context.Context, entryID, userID int64, reason string) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetWithLinesForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := current.Void(); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, current.ID, StatusVoid); err != nil {
			return err
		}
		if reason != "" {
			if err := tx.AppendNote(ctx, current.ID, fmt.Sprintf("Anulado: %s", reason)); err != nil {
				return err
			}
		}
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.emit(ctx, internalshared.EventEntryVoided, entry, userID, map[string]any{"reason": reason})
	return entry, nil
}

// Get loads an entry with its lines.
func (s *Service) Get(ctx context.Context, entryID int64) (Entry, error) {
	return s.repo.GetWithLines(ctx, entryID)
}

// List returns a page of company entries, newest first.
func (s *Service) List(ctx context.Context, companyID int64, limit, offset int) ([]Entry, error) {
	return s.repo.ListByCompany(ctx, companyID, limit, offset)
}

// IsBalanced is the pure balance predicate exposed for collaborators.
func IsBalanced(e Entry) bool { return e.IsBalanced() }

func (s *Service) emit(ctx context.Context, name string, entry Entry, actorID int64, meta map[string]any) {
	if s.events == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["number"] = entry.Number
	_ = s.events.Emit(ctx, internalshared.DomainEvent{
		Name:      name,
		CompanyID: entry.CompanyID,
		ActorID:   actorID,
		Entity:    "journal_entry",
		EntityID:  fmt.Sprintf("%d", entry.ID),
		Meta:      meta,
		At:        s.now(),
	})
}
