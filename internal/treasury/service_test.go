package treasury

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaverde/contaverde/internal/accounting/journals"
	"github.com/contaverde/contaverde/internal/accounting/posting"
	"github.com/contaverde/contaverde/internal/invoicing"
	"github.com/contaverde/contaverde/internal/masterdata/thirdparties"
)

// ============================================================
// MOCK REPOSITORY
// ============================================================

type mockRepository struct {
	mu       sync.Mutex
	payments map[int64]*Payment
	banks    map[int64]*BankAccount
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		payments: make(map[int64]*Payment),
		banks:    make(map[int64]*BankAccount),
	}
}

func (m *mockRepository) addBank(b BankAccount) *BankAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	b.Active = true
	m.banks[b.ID] = &b
	return m.banks[b.ID]
}

func (m *mockRepository) GetPayment(_ context.Context, id int64) (Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	return *p, nil
}

func (m *mockRepository) ListPayments(_ context.Context, companyID int64, kind string, _, _ int) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Payment
	for _, p := range m.payments {
		if p.CompanyID != companyID {
			continue
		}
		if kind != "" && string(p.Kind) != kind {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepository) GetBankAccount(_ context.Context, id int64) (BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.banks[id]
	if !ok {
		return BankAccount{}, ErrBankAccountNotFound
	}
	return *b, nil
}

func (m *mockRepository) ListBankAccounts(_ context.Context, companyID int64) ([]BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BankAccount
	for _, b := range m.banks {
		if b.CompanyID == companyID && b.Active {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateBankAccount(_ context.Context, b BankAccount) (BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	b.Active = true
	m.banks[b.ID] = &b
	return b, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTx{repo: m})
}

type mockTx struct {
	repo *mockRepository
}

func (t *mockTx) NextPaymentNumber(_ context.Context, companyID int64) (string, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	var last string
	for _, p := range t.repo.payments {
		if p.CompanyID == companyID && p.Number > last {
			last = p.Number
		}
	}
	next, _ := journals.NextNumber(last)
	return next, nil
}

func (t *mockTx) InsertPayment(_ context.Context, p Payment) (Payment, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	t.repo.nextID++
	p.ID = t.repo.nextID
	t.repo.payments[p.ID] = &p
	return p, nil
}

func (t *mockTx) GetPaymentForUpdate(_ context.Context, id int64) (Payment, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	p, ok := t.repo.payments[id]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	return *p, nil
}

func (t *mockTx) SetPaymentConfirmed(_ context.Context, id, confirmedBy int64, at time.Time) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	p, ok := t.repo.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = StatusConfirmed
	p.ConfirmedBy = &confirmedBy
	p.ConfirmedAt = &at
	return nil
}

func (t *mockTx) SetPaymentStatus(_ context.Context, id int64, status PaymentStatus) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	p, ok := t.repo.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = status
	return nil
}

func (t *mockTx) GetBankAccountForUpdate(_ context.Context, id int64) (BankAccount, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	b, ok := t.repo.banks[id]
	if !ok {
		return BankAccount{}, ErrBankAccountNotFound
	}
	return *b, nil
}

func (t *mockTx) MoveBankBalance(_ context.Context, bankAccountID int64, delta decimal.Decimal) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	b, ok := t.repo.banks[bankAccountID]
	if !ok {
		return ErrBankAccountNotFound
	}
	b.Balance = b.Balance.Add(delta)
	return nil
}

// ============================================================
// MOCK COLLABORATORS
// ============================================================

type mockPoster struct {
	repo          *mockRepository
	nextEntryID   int64
	err           error
	collections   int
	disbursements int
	reversed      []int64
}

func (m *mockPoster) assign(paymentID int64) (journals.Entry, error) {
	if m.err != nil {
		return journals.Entry{}, m.err
	}
	m.repo.mu.Lock()
	defer m.repo.mu.Unlock()
	p := m.repo.payments[paymentID]
	if p.EntryID != nil {
		return journals.Entry{ID: *p.EntryID}, nil
	}
	m.nextEntryID++
	id := m.nextEntryID
	p.EntryID = &id
	return journals.Entry{ID: id}, nil
}

func (m *mockPoster) PostCollection(_ context.Context, paymentID int64) (journals.Entry, error) {
	m.collections++
	return m.assign(paymentID)
}

func (m *mockPoster) PostDisbursement(_ context.Context, paymentID int64) (journals.Entry, error) {
	m.disbursements++
	return m.assign(paymentID)
}

func (m *mockPoster) Reverse(_ context.Context, entryID, _ int64, _ string) (journals.Entry, error) {
	m.reversed = append(m.reversed, entryID)
	return journals.Entry{ID: entryID + 1000}, nil
}

type mockDirectory struct {
	parties map[int64]thirdparties.ThirdParty
}

func (m *mockDirectory) Get(_ context.Context, id int64) (thirdparties.ThirdParty, error) {
	tp, ok := m.parties[id]
	if !ok {
		return thirdparties.ThirdParty{}, ErrWrongThirdParty
	}
	return tp, nil
}

type mockInvoices struct {
	invoices map[int64]invoicing.Invoice
}

func (m *mockInvoices) Get(_ context.Context, id int64) (invoicing.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return invoicing.Invoice{}, invoicing.ErrNotFound
	}
	return inv, nil
}

// ============================================================
// FIXTURES
// ============================================================

const testCompanyID = int64(7)

func money(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newTestService() (*Service, *mockRepository, *mockPoster) {
	repo := newMockRepository()
	poster := &mockPoster{repo: repo}
	dir := &mockDirectory{parties: map[int64]thirdparties.ThirdParty{
		42: {ID: 42, CompanyID: testCompanyID, Kind: thirdparties.KindCustomer, Name: "Distribuciones El Roble"},
		51: {ID: 51, CompanyID: testCompanyID, Kind: thirdparties.KindSupplier, Name: "Papelería Central"},
		60: {ID: 60, CompanyID: testCompanyID, Kind: thirdparties.KindBoth, Name: "Comercial Andina"},
		99: {ID: 99, CompanyID: 2, Kind: thirdparties.KindCustomer, Name: "Otro NIT"},
	}}
	invTotal := money("119000.00")
	invoices := &mockInvoices{invoices: map[int64]invoicing.Invoice{
		11: {ID: 11, CompanyID: testCompanyID, Number: "000003", CustomerID: 42,
			Status: invoicing.StatusConfirmed, Total: invTotal},
		12: {ID: 12, CompanyID: testCompanyID, Number: "000004", CustomerID: 42,
			Status: invoicing.StatusDraft, Total: invTotal},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, poster, dir, invoices, logger)
	svc.WithNow(func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) })
	return svc, repo, poster
}

func collectionInput() CreatePaymentInput {
	return CreatePaymentInput{
		CompanyID:    testCompanyID,
		Date:         time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Kind:         posting.PaymentCollection,
		ThirdPartyID: 42,
		Value:        money("50000.00"),
		Reference:    "consignación 1234",
		CreatedBy:    9,
	}
}

func disbursementInput() CreatePaymentInput {
	in := collectionInput()
	in.Kind = posting.PaymentDisbursement
	in.ThirdPartyID = 51
	in.Value = money("80000.00")
	return in
}

// ============================================================
// TESTS
// ============================================================

func TestCreatePaymentNumbersSequentially(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.CreatePayment(ctx, collectionInput())
	require.NoError(t, err)
	second, err := svc.CreatePayment(ctx, collectionInput())
	require.NoError(t, err)

	assert.Equal(t, "000001", first.Number)
	assert.Equal(t, "000002", second.Number)
	assert.Equal(t, StatusPending, first.Status)
	assert.Nil(t, first.EntryID)
}

func TestCreatePaymentThirdPartyKindMismatch(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := collectionInput()
	in.ThirdPartyID = 51 // proveedor
	_, err := svc.CreatePayment(ctx, in)
	assert.ErrorIs(t, err, ErrWrongThirdParty)

	in = disbursementInput()
	in.ThirdPartyID = 42 // cliente
	_, err = svc.CreatePayment(ctx, in)
	assert.ErrorIs(t, err, ErrWrongThirdParty)
}

func TestCreatePaymentThirdPartyBothKinds(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := collectionInput()
	in.ThirdPartyID = 60
	_, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)

	in = disbursementInput()
	in.ThirdPartyID = 60
	_, err = svc.CreatePayment(ctx, in)
	require.NoError(t, err)
}

func TestCreatePaymentThirdPartyOtherCompany(t *testing.T) {
	svc, _, _ := newTestService()
	in := collectionInput()
	in.ThirdPartyID = 99
	_, err := svc.CreatePayment(context.Background(), in)
	assert.ErrorIs(t, err, ErrWrongThirdParty)
}

func TestCreatePaymentRejectsNonPositiveValue(t *testing.T) {
	svc, _, _ := newTestService()
	in := collectionInput()
	in.Value = decimal.Zero
	_, err := svc.CreatePayment(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidValue)

	in.Value = money("-10.00")
	_, err = svc.CreatePayment(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestCreatePaymentBankAccountOtherCompany(t *testing.T) {
	svc, repo, _ := newTestService()
	bank := repo.addBank(BankAccount{CompanyID: 2, Code: "BC1", Name: "Cuenta ajena", Type: AccountChecking})

	in := collectionInput()
	in.BankAccountID = &bank.ID
	_, err := svc.CreatePayment(context.Background(), in)
	assert.ErrorIs(t, err, ErrBankAccountNotFound)
}

func TestConfirmCollectionPostsAndMovesBalance(t *testing.T) {
	svc, repo, poster := newTestService()
	ctx := context.Background()
	bank := repo.addBank(BankAccount{CompanyID: testCompanyID, Code: "BC1", Name: "Bancolombia", Type: AccountChecking, Balance: money("100000.00")})

	in := collectionInput()
	in.BankAccountID = &bank.ID
	created, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, created.ID, 9)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.EntryID)
	require.NotNil(t, confirmed.ConfirmedBy)
	assert.Equal(t, int64(9), *confirmed.ConfirmedBy)
	assert.Equal(t, 1, poster.collections)
	assert.Equal(t, 0, poster.disbursements)

	got, err := repo.GetBankAccount(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(money("150000.00")), "balance %s", got.Balance)
}

func TestConfirmDisbursementMovesBalanceDown(t *testing.T) {
	svc, repo, poster := newTestService()
	ctx := context.Background()
	bank := repo.addBank(BankAccount{CompanyID: testCompanyID, Code: "BC1", Name: "Bancolombia", Type: AccountChecking, Balance: money("100000.00")})

	in := disbursementInput()
	in.BankAccountID = &bank.ID
	created, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, created.ID, 9)
	require.NoError(t, err)
	require.NotNil(t, confirmed.EntryID)
	assert.Equal(t, 1, poster.disbursements)

	got, err := repo.GetBankAccount(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(money("20000.00")), "balance %s", got.Balance)
}

func TestConfirmDisbursementInsufficientFunds(t *testing.T) {
	svc, repo, poster := newTestService()
	ctx := context.Background()
	bank := repo.addBank(BankAccount{CompanyID: testCompanyID, Code: "BC1", Name: "Bancolombia", Type: AccountChecking, Balance: money("10000.00")})

	in := disbursementInput()
	in.BankAccountID = &bank.ID
	created, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, created.ID, 9)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 0, poster.disbursements)

	got, err := repo.GetPayment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	bankAfter, err := repo.GetBankAccount(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bankAfter.Balance.Equal(money("10000.00")))
}

func TestConfirmRetriesAfterPostingFailure(t *testing.T) {
	svc, repo, poster := newTestService()
	ctx := context.Background()
	bank := repo.addBank(BankAccount{CompanyID: testCompanyID, Code: "BC1", Name: "Bancolombia", Type: AccountChecking, Balance: money("100000.00")})

	in := collectionInput()
	in.BankAccountID = &bank.ID
	created, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)

	poster.err = errors.New("ledger unavailable")
	_, err = svc.Confirm(ctx, created.ID, 9)
	require.Error(t, err)

	// confirmed without an entry; balance moved exactly once
	got, err := repo.GetPayment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Nil(t, got.EntryID)

	poster.err = nil
	confirmed, err := svc.Confirm(ctx, created.ID, 9)
	require.NoError(t, err)
	require.NotNil(t, confirmed.EntryID)
	assert.Equal(t, 2, poster.collections)

	bankAfter, err := repo.GetBankAccount(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, bankAfter.Balance.Equal(money("150000.00")), "balance %s", bankAfter.Balance)
}

func TestConfirmAlreadyPostedFails(t *testing.T) {
	svc, _, poster := newTestService()
	ctx := context.Background()

	created, err := svc.CreatePayment(ctx, collectionInput())
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, created.ID, 9)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, created.ID, 9)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Equal(t, 1, poster.collections)
}

func TestVoidReversesEntryAndRestoresBalance(t *testing.T) {
	svc, repo, poster := newTestService()
	ctx := context.Background()
	bank := repo.addBank(BankAccount{CompanyID: testCompanyID, Code: "BC1", Name: "Bancolombia", Type: AccountChecking, Balance: money("100000.00")})

	in := disbursementInput()
	in.BankAccountID = &bank.ID
	created, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)
	confirmed, err := svc.Confirm(ctx, created.ID, 9)
	require.NoError(t, err)

	voided, err := svc.Void(ctx, created.ID, 9, "pago duplicado")
	require.NoError(t, err)

	assert.Equal(t, StatusVoid, voided.Status)
	require.Len(t, poster.reversed, 1)
	assert.Equal(t, *confirmed.EntryID, poster.reversed[0])

	got, err := repo.GetBankAccount(ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(money("100000.00")), "balance %s", got.Balance)
}

func TestVoidRequiresConfirmed(t *testing.T) {
	svc, _, poster := newTestService()
	ctx := context.Background()

	created, err := svc.CreatePayment(ctx, collectionInput())
	require.NoError(t, err)

	_, err = svc.Void(ctx, created.ID, 9, "")
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, poster.reversed)
}

func TestCollectInvoiceCreatesPendingCobro(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	payment, err := svc.CollectInvoice(ctx, 11, 9, time.Time{}, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, payment.Status)
	assert.Equal(t, posting.PaymentCollection, payment.Kind)
	assert.Equal(t, int64(42), payment.ThirdPartyID)
	require.NotNil(t, payment.InvoiceID)
	assert.Equal(t, int64(11), *payment.InvoiceID)
	assert.True(t, payment.Value.Equal(money("119000.00")))
	assert.Equal(t, "Cobro de factura 000003", payment.Notes)
	assert.False(t, payment.Date.IsZero())
}

func TestCollectInvoiceRequiresConfirmedInvoice(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CollectInvoice(context.Background(), 12, 9, time.Time{}, nil)
	assert.ErrorIs(t, err, invoicing.ErrNotConfirmed)
}
