package invoicing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaverde/contaverde/internal/accounting/journals"
	"github.com/contaverde/contaverde/internal/accounting/posting"
	"github.com/contaverde/contaverde/internal/masterdata/shared"
	"github.com/contaverde/contaverde/internal/masterdata/thirdparties"
)

type mockRepository struct {
	invoices   map[int64]*Invoice
	nextID     int64
	nextLineID int64
	lastNumber map[int64]string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		invoices:   make(map[int64]*Invoice),
		nextID:     1,
		nextLineID: 1,
		lastNumber: make(map[int64]string),
	}
}

func (m *mockRepository) GetWithLines(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return *inv, nil
}

func (m *mockRepository) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.CompanyID == companyID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTx{mock: m})
}

type mockTx struct {
	mock *mockRepository
}

func (t *mockTx) NextInvoiceNumber(ctx context.Context, companyID int64) (string, error) {
	next, _ := journals.NextNumber(t.mock.lastNumber[companyID])
	t.mock.lastNumber[companyID] = next
	return next, nil
}

func (t *mockTx) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	inv.ID = t.mock.nextID
	t.mock.nextID++
	stored := inv
	stored.Lines = nil
	t.mock.invoices[inv.ID] = &stored
	return inv, nil
}

func (t *mockTx) InsertLines(ctx context.Context, invoiceID int64, lines []InvoiceLine) ([]InvoiceLine, error) {
	inv, ok := t.mock.invoices[invoiceID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]InvoiceLine, 0, len(lines))
	for _, line := range lines {
		line.ID = t.mock.nextLineID
		t.mock.nextLineID++
		line.InvoiceID = invoiceID
		inv.Lines = append(inv.Lines, line)
		out = append(out, line)
	}
	return out, nil
}

func (t *mockTx) GetWithLinesForUpdate(ctx context.Context, id int64) (Invoice, error) {
	return t.mock.GetWithLines(ctx, id)
}

func (t *mockTx) UpdateTotals(ctx context.Context, id int64, subtotal, tax, total decimal.Decimal) error {
	inv, ok := t.mock.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Subtotal = subtotal
	inv.Tax = tax
	inv.Total = total
	return nil
}

func (t *mockTx) SetConfirmed(ctx context.Context, id, confirmedBy int64, at time.Time) error {
	inv, ok := t.mock.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = StatusConfirmed
	inv.ConfirmedBy = &confirmedBy
	inv.ConfirmedAt = &at
	return nil
}

func (t *mockTx) SetStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	inv, ok := t.mock.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	return nil
}

type mockPoster struct {
	repo        *mockRepository
	postCalls   int
	reversals   []int64
	postErr     error
	nextEntryID int64
}

func (m *mockPoster) PostSale(ctx context.Context, invoiceID int64) (journals.Entry, error) {
	m.postCalls++
	if m.postErr != nil {
		return journals.Entry{}, m.postErr
	}
	inv := m.repo.invoices[invoiceID]
	if inv.EntryID != nil {
		return journals.Entry{ID: *inv.EntryID, Status: journals.StatusConfirmed}, nil
	}
	m.nextEntryID++
	entryID := m.nextEntryID
	inv.EntryID = &entryID
	return journals.Entry{ID: entryID, Status: journals.StatusConfirmed}, nil
}

func (m *mockPoster) Reverse(ctx context.Context, entryID, userID int64, reason string) (journals.Entry, error) {
	m.reversals = append(m.reversals, entryID)
	return journals.Entry{ID: entryID + 100, Status: journals.StatusConfirmed}, nil
}

type mockCustomers struct {
	parties map[int64]thirdparties.ThirdParty
}

func (m *mockCustomers) Get(ctx context.Context, id int64) (thirdparties.ThirdParty, error) {
	tp, ok := m.parties[id]
	if !ok {
		return thirdparties.ThirdParty{}, shared.ErrNotFound
	}
	return tp, nil
}

func newTestService() (*Service, *mockRepository, *mockPoster) {
	repo := newMockRepository()
	poster := &mockPoster{repo: repo}
	customers := &mockCustomers{parties: map[int64]thirdparties.ThirdParty{
		42: {ID: 42, CompanyID: 1, Kind: thirdparties.KindCustomer, Name: "Distribuciones El Roble", Active: true},
		51: {ID: 51, CompanyID: 1, Kind: thirdparties.KindSupplier, Name: "Papelería Central", Active: true},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, poster, customers, logger)
	svc.WithNow(func() time.Time {
		return time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
	})
	return svc, repo, poster
}

func draftInput() CreateDraftInput {
	return CreateDraftInput{
		CompanyID:  1,
		Date:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CustomerID: 42,
		Kind:       posting.SaleCash,
		CreatedBy:  9,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateDraftInvoice(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)
	second, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)

	assert.Equal(t, "000001", first.Number)
	assert.Equal(t, "000002", second.Number)
	assert.Equal(t, StatusDraft, first.Status)
}

func TestCreateDraftRejectsSupplier(t *testing.T) {
	svc, _, _ := newTestService()

	in := draftInput()
	in.CustomerID = 51
	_, err := svc.CreateDraft(context.Background(), in)
	assert.ErrorIs(t, err, ErrNotACustomer)
}

func TestCreateDraftCreditRequiresDueDate(t *testing.T) {
	svc, _, _ := newTestService()

	in := draftInput()
	in.Kind = posting.SaleCredit
	_, err := svc.CreateDraft(context.Background(), in)
	require.Error(t, err)

	due := in.Date.AddDate(0, 1, 0)
	in.DueDate = &due
	_, err = svc.CreateDraft(context.Background(), in)
	assert.NoError(t, err)
}

func TestAddLineComputesTotals(t *testing.T) {
	svc, _, _ := newTestService()

	inv, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)

	inv, err = svc.AddLine(context.Background(), inv.ID, AddLineInput{
		Description: "Bulto de cemento", Quantity: dec("10"), UnitPrice: dec("10000"), TaxRate: dec("19"),
	})
	require.NoError(t, err)

	require.Len(t, inv.Lines, 1)
	assert.True(t, inv.Lines[0].Subtotal.Equal(dec("100000")))
	assert.True(t, inv.Lines[0].TaxAmount.Equal(dec("19000")))
	assert.True(t, inv.Subtotal.Equal(dec("100000")))
	assert.True(t, inv.Tax.Equal(dec("19000")))
	assert.True(t, inv.Total.Equal(dec("119000")))
}

func TestAddLineRequiresDraft(t *testing.T) {
	svc, repo, _ := newTestService()

	inv, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)
	repo.invoices[inv.ID].Status = StatusConfirmed

	_, err = svc.AddLine(context.Background(), inv.ID, AddLineInput{
		Description: "Extra", Quantity: dec("1"), UnitPrice: dec("100"),
	})
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestConfirmPostsInvoice(t *testing.T) {
	svc, repo, poster := newTestService()

	inv, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), inv.ID, AddLineInput{
		Description: "Bulto de cemento", Quantity: dec("10"), UnitPrice: dec("10000"), TaxRate: dec("19"),
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), inv.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.EntryID)
	assert.Equal(t, 1, poster.postCalls)
	require.NotNil(t, repo.invoices[inv.ID].ConfirmedBy)
	assert.Equal(t, int64(9), *repo.invoices[inv.ID].ConfirmedBy)
}

func TestConfirmEmptyInvoice(t *testing.T) {
	svc, _, poster := newTestService()

	inv, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), inv.ID, 9)
	assert.ErrorIs(t, err, ErrNoLines)
	assert.Zero(t, poster.postCalls)
}

func TestConfirmRetriesAfterPostingFailure(t *testing.T) {
	svc, repo, poster := newTestService()

	inv, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), inv.ID, AddLineInput{
		Description: "Bulto de cemento", Quantity: dec("1"), UnitPrice: dec("50000"),
	})
	require.NoError(t, err)

	poster.postErr = errors.New("db down")
	_, err = svc.Confirm(context.Background(), inv.ID, 9)
	require.Error(t, err)
	// the invoice stays confirmed, waiting for a posting retry
	assert.Equal(t, StatusConfirmed, repo.invoices[inv.ID].Status)
	assert.Nil(t, repo.invoices[inv.ID].EntryID)

	poster.postErr = nil
	confirmed, err := svc.Confirm(context.Background(), inv.ID, 9)
	require.NoError(t, err)
	require.NotNil(t, confirmed.EntryID)
	assert.Equal(t, 2, poster.postCalls)
}

func TestVoidReversesEntry(t *testing.T) {
	svc, _, poster := newTestService()

	inv, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)
	_, err = svc.AddLine(context.Background(), inv.ID, AddLineInput{
		Description: "Bulto de cemento", Quantity: dec("1"), UnitPrice: dec("50000"),
	})
	require.NoError(t, err)
	confirmed, err := svc.Confirm(context.Background(), inv.ID, 9)
	require.NoError(t, err)

	voided, err := svc.Void(context.Background(), inv.ID, 11, "factura duplicada")
	require.NoError(t, err)
	assert.Equal(t, StatusVoid, voided.Status)
	require.Len(t, poster.reversals, 1)
	assert.Equal(t, *confirmed.EntryID, poster.reversals[0])

	// voiding a draft is rejected
	draft, err := svc.CreateDraft(context.Background(), draftInput())
	require.NoError(t, err)
	_, err = svc.Void(context.Background(), draft.ID, 11, "")
	assert.ErrorIs(t, err, ErrNotConfirmed)
}
