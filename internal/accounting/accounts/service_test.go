package accounts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaverde/contaverde/internal/accounting/shared"
)

type mockRepository struct {
	accounts map[int64]Account
	byCode   map[string]int64
	nextID   int64

	// confirmed line sums keyed by account id, used by the as-of path
	lineSums map[int64][2]decimal.Decimal
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts: make(map[int64]Account),
		byCode:   make(map[string]int64),
		nextID:   1,
		lineSums: make(map[int64][2]decimal.Decimal),
	}
}

func codeKey(companyID int64, code string) string {
	return fmt.Sprintf("%d:%s", companyID, code)
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (m *mockRepository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	id, ok := m.byCode[codeKey(companyID, code)]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	a := m.accounts[id]
	if !a.Active {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (m *mockRepository) ListByCompany(ctx context.Context, companyID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepository) SumConfirmedLines(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	sums := m.lineSums[accountID]
	return sums[0], sums[1], nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTx{mock: m})
}

type mockTx struct {
	mock *mockRepository
}

func (t *mockTx) Insert(ctx context.Context, a Account) (Account, error) {
	key := codeKey(a.CompanyID, a.Code)
	if _, exists := t.mock.byCode[key]; exists {
		return Account{}, shared.ErrDuplicateCode
	}
	a.ID = t.mock.nextID
	t.mock.nextID++
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	t.mock.accounts[a.ID] = a
	t.mock.byCode[key] = a.ID
	return a, nil
}

func (t *mockTx) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	return t.mock.GetByCode(ctx, companyID, code)
}

func (t *mockTx) HasActivePostingChildren(ctx context.Context, parentID int64) (bool, error) {
	for _, a := range t.mock.accounts {
		if a.ParentID != nil && *a.ParentID == parentID && a.Active && a.AcceptsPostings {
			return true, nil
		}
	}
	return false, nil
}

func (t *mockTx) Accumulate(ctx context.Context, accountID int64, debit, credit decimal.Decimal) error {
	a, ok := t.mock.accounts[accountID]
	if !ok {
		return shared.ErrAccountNotFound
	}
	a.DebitTotal = a.DebitTotal.Add(debit)
	a.CreditTotal = a.CreditTotal.Add(credit)
	t.mock.accounts[accountID] = a
	return nil
}

func newAccountInput(code, parentCode string, postings bool) CreateInput {
	return CreateInput{
		CompanyID:       1,
		Code:            code,
		Name:            "CUENTA " + code,
		Side:            SideDebit,
		Class:           ClassAsset,
		ParentCode:      parentCode,
		AcceptsPostings: postings,
	}
}

func TestCreateAccount(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	root, err := svc.Create(context.Background(), newAccountInput("1", "", false))
	require.NoError(t, err)
	assert.Equal(t, 1, root.Level)
	assert.Nil(t, root.ParentID)
	assert.True(t, root.Active)

	child, err := svc.Create(context.Background(), newAccountInput("11", "1", false))
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	_, err := svc.Create(context.Background(), newAccountInput("1105", "", true))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), newAccountInput("1105", "", true))
	assert.ErrorIs(t, err, shared.ErrDuplicateCode)
}

func TestCreateAccountCodePrefix(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	_, err := svc.Create(context.Background(), newAccountInput("11", "", false))
	require.NoError(t, err)

	// child code must extend the parent code
	_, err = svc.Create(context.Background(), newAccountInput("2405", "11", true))
	assert.ErrorIs(t, err, shared.ErrHierarchy)
}

func TestCreateAccountUnderPostingParent(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	_, err := svc.Create(context.Background(), newAccountInput("1105", "", true))
	require.NoError(t, err)

	// first child under a posting parent is allowed (the parent becomes a branch)
	_, err = svc.Create(context.Background(), newAccountInput("110505", "1105", true))
	require.NoError(t, err)

	// but once a posting child exists, a sibling posting leaf is a conflict
	_, err = svc.Create(context.Background(), newAccountInput("110510", "1105", true))
	assert.ErrorIs(t, err, shared.ErrHierarchy)
}

func TestCreateAccountMissingParent(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	_, err := svc.Create(context.Background(), newAccountInput("1105", "11", true))
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestCreateAccountValidation(t *testing.T) {
	svc := NewService(newMockRepository())

	in := newAccountInput("11A5", "", true)
	_, err := svc.Create(context.Background(), in)
	assert.Error(t, err)

	in = newAccountInput("1105", "", true)
	in.Side = "X"
	_, err = svc.Create(context.Background(), in)
	assert.Error(t, err)
}

func TestBalanceFromAccumulators(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	created, err := svc.Create(context.Background(), newAccountInput("1105", "", true))
	require.NoError(t, err)
	require.NoError(t, svc.Accumulate(context.Background(), created.ID, dec("300"), dec("100")))

	res, err := svc.Balance(context.Background(), created.ID, nil)
	require.NoError(t, err)
	assert.True(t, res.Signed.Equal(dec("200")))
	assert.True(t, res.Debtor.Equal(dec("200")))
	assert.True(t, res.Creditor.IsZero())
}

func TestBalanceAsOf(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	created, err := svc.Create(context.Background(), newAccountInput("1105", "", true))
	require.NoError(t, err)
	// running accumulators include later movements
	require.NoError(t, svc.Accumulate(context.Background(), created.ID, dec("500"), dec("0")))
	// but the cut-off query only sees what was confirmed by the date
	m.lineSums[created.ID] = [2]decimal.Decimal{dec("120"), dec("20")}

	asOf := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	res, err := svc.Balance(context.Background(), created.ID, &asOf)
	require.NoError(t, err)
	assert.True(t, res.Signed.Equal(dec("100")))
}

func TestLookupByCodeIgnoresInactive(t *testing.T) {
	m := newMockRepository()
	svc := NewService(m)

	created, err := svc.Create(context.Background(), newAccountInput("1105", "", true))
	require.NoError(t, err)

	got, err := svc.LookupByCode(context.Background(), 1, "1105")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	inactive := m.accounts[created.ID]
	inactive.Active = false
	m.accounts[created.ID] = inactive

	_, err = svc.LookupByCode(context.Background(), 1, "1105")
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}
