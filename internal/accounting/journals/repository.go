package journals

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/accounting/shared"
)

const entryColumns = `id, company_id, number, entry_date, kind, concept, notes, total_debit, total_credit, status, created_by, confirmed_by, confirmed_at, source_ref, created_at, updated_at`

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	GetWithLines(ctx context.Context, entryID int64) (Entry, error)
	ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available within a transaction.
// Account reads are included here so line validation and balance
// accumulation share the posting transaction.
type TxRepository interface {
	NextEntryNumber(ctx context.Context, companyID int64) (string, error)
	InsertEntry(ctx context.Context, e Entry) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []Line) ([]Line, error)
	GetWithLinesForUpdate(ctx context.Context, entryID int64) (Entry, error)
	UpdateTotals(ctx context.Context, entryID int64, debit, credit decimal.Decimal) error
	ConfirmEntry(ctx context.Context, entryID, confirmedBy int64, at time.Time) error
	UpdateStatus(ctx context.Context, entryID int64, status EntryStatus) error
	AppendNote(ctx context.Context, entryID int64, note string) error
	GetAccount(ctx context.Context, accountID int64) (accounts.Account, error)
	GetAccountByCode(ctx context.Context, companyID int64, code string) (accounts.Account, error)
	AccumulateAccount(ctx context.Context, accountID int64, debit, credit decimal.Decimal) error
}

type repository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository builds the pgx-backed repository. The logger surfaces
// numbering resets caused by malformed legacy data.
func NewRepository(db *pgxpool.Pool, logger *slog.Logger) Repository {
	return &repository{db: db, logger: logger}
}

func scanEntry(r pgx.Row) (Entry, error) {
	var e Entry
	err := r.Scan(&e.ID, &e.CompanyID, &e.Number, &e.Date, &e.Kind, &e.Concept, &e.Notes, &e.TotalDebit, &e.TotalCredit, &e.Status, &e.CreatedBy, &e.ConfirmedBy, &e.ConfirmedAt, &e.SourceRef, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrEntryNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *repository) GetWithLines(ctx context.Context, entryID int64) (Entry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		return Entry{}, err
	}
	entry.Lines, err = queryLines(ctx, r.db, entryID)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE company_id=$1 ORDER BY entry_date DESC, number DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Number, &e.Date, &e.Kind, &e.Concept, &e.Notes, &e.TotalDebit, &e.TotalCredit, &e.Status, &e.CreatedBy, &e.ConfirmedBy, &e.ConfirmedAt, &e.SourceRef, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx, logger: r.logger}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, entryID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, concept, debit, credit, position, third_party_id FROM journal_lines WHERE entry_id=$1 ORDER BY position`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Concept, &l.Debit, &l.Credit, &l.Position, &l.ThirdPartyID); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx     pgx.Tx
	logger *slog.Logger
}

// NewTxRepository wraps an open transaction. The posting package embeds it
// to share entry and account operations inside its own transactions.
func NewTxRepository(tx pgx.Tx, logger *slog.Logger) TxRepository {
	return &txRepository{tx: tx, logger: logger}
}

// NextEntryNumber serializes number generation per company by locking the
// current maximum row. The unique (company_id, number) constraint backstops
// the first entry of a company, where there is no row to lock.
func (r *txRepository) NextEntryNumber(ctx context.Context, companyID int64) (string, error) {
	var last string
	err := r.tx.QueryRow(ctx, `SELECT number FROM journal_entries WHERE company_id=$1 ORDER BY number DESC LIMIT 1 FOR UPDATE`, companyID).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	next, reset := NextNumber(last)
	if reset && r.logger != nil {
		r.logger.Warn("entry numbering reset on unparsable maximum",
			slog.Int64("company_id", companyID),
			slog.String("last_number", last),
		)
	}
	return next, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, number, entry_date, kind, concept, notes, total_debit, total_credit, status, created_by, confirmed_by, confirmed_at, source_ref)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING id, created_at, updated_at`,
		e.CompanyID, e.Number, e.Date, e.Kind, e.Concept, e.Notes, e.TotalDebit, e.TotalCredit, e.Status, e.CreatedBy, e.ConfirmedBy, e.ConfirmedAt, e.SourceRef)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Entry{}, errors.New("journals: entry number collision, retry posting")
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		line.EntryID = entryID
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, concept, debit, credit, position, third_party_id)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
			entryID, line.AccountID, line.Concept, line.Debit, line.Credit, line.Position, line.ThirdPartyID).Scan(&line.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func (r *txRepository) GetWithLinesForUpdate(ctx context.Context, entryID int64) (Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, entryID))
	if err != nil {
		return Entry{}, err
	}
	entry.Lines, err = queryLines(ctx, r.tx, entryID)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) UpdateTotals(ctx context.Context, entryID int64, debit, credit decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET total_debit=$2, total_credit=$3, updated_at=NOW() WHERE id=$1`, entryID, debit, credit)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) ConfirmEntry(ctx context.Context, entryID, confirmedBy int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='confirmed', confirmed_by=$2, confirmed_at=$3, updated_at=NOW() WHERE id=$1`, entryID, confirmedBy, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, entryID int64, status EntryStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, entryID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) AppendNote(ctx context.Context, entryID int64, note string) error {
	_, err := r.tx.Exec(ctx, `UPDATE journal_entries SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END, updated_at=NOW() WHERE id=$1`, entryID, note)
	return err
}

// GetAccount duplicates a read from the accounts repository; it is needed
// here so line validation runs in the journal transaction context.
func (r *txRepository) GetAccount(ctx context.Context, accountID int64) (accounts.Account, error) {
	return scanTxAccount(r.tx.QueryRow(ctx, `SELECT id, company_id, code, name, description, side, class, level, parent_id, accepts_postings, opening_balance, debit_total, credit_total, active, created_at, updated_at FROM accounts WHERE id=$1 AND active`, accountID))
}

func (r *txRepository) GetAccountByCode(ctx context.Context, companyID int64, code string) (accounts.Account, error) {
	return scanTxAccount(r.tx.QueryRow(ctx, `SELECT id, company_id, code, name, description, side, class, level, parent_id, accepts_postings, opening_balance, debit_total, credit_total, active, created_at, updated_at FROM accounts WHERE company_id=$1 AND code=$2 AND active`, companyID, code))
}

func scanTxAccount(row pgx.Row) (accounts.Account, error) {
	var a accounts.Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Description, &a.Side, &a.Class, &a.Level, &a.ParentID, &a.AcceptsPostings, &a.OpeningBalance, &a.DebitTotal, &a.CreditTotal, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) AccumulateAccount(ctx context.Context, accountID int64, debit, credit decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET debit_total = debit_total + $2, credit_total = credit_total + $3, updated_at = NOW() WHERE id=$1`, accountID, debit, credit)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
