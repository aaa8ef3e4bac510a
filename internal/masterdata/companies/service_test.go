package companies

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/masterdata/shared"
	internalshared "github.com/contaverde/contaverde/internal/shared"
)

type mockRepository struct {
	companies map[int64]Company
	byNIT     map[string]int64
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		companies: make(map[int64]Company),
		byNIT:     make(map[string]int64),
		nextID:    1,
	}
}

func (m *mockRepository) List(ctx context.Context, filters shared.ListFilters) ([]Company, int, error) {
	var out []Company
	for _, c := range m.companies {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return Company{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) Create(ctx context.Context, company Company) (Company, error) {
	if _, exists := m.byNIT[company.NIT]; exists {
		return Company{}, shared.ErrDuplicate
	}
	company.ID = m.nextID
	m.nextID++
	company.Active = true
	m.companies[company.ID] = company
	m.byNIT[company.NIT] = company.ID
	return company, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, company Company) error {
	existing, ok := m.companies[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.NIT = company.NIT
	existing.Name = company.Name
	existing.Address = company.Address
	m.companies[id] = existing
	return nil
}

func (m *mockRepository) Deactivate(ctx context.Context, id int64) error {
	existing, ok := m.companies[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Active = false
	m.companies[id] = existing
	return nil
}

type mockSeeder struct {
	seeded map[int64]int
	err    error
}

func (m *mockSeeder) SeedBasicChart(ctx context.Context, companyID int64) (map[string]accounts.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.seeded == nil {
		m.seeded = make(map[int64]int)
	}
	m.seeded[companyID]++
	return map[string]accounts.Account{}, nil
}

type recordingSink struct {
	events []internalshared.DomainEvent
}

func (s *recordingSink) Emit(_ context.Context, event internalshared.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateCompanySeedsChart(t *testing.T) {
	repo := newMockRepository()
	seeder := &mockSeeder{}
	svc := NewService(repo, seeder, nil, discardLogger())

	created, err := svc.Create(context.Background(), CompanyForm{NIT: "900123456-7", Name: "Comercial La Sabana SAS"})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, 1, seeder.seeded[created.ID])
}

func TestCreateCompanyEmitsChartSeeded(t *testing.T) {
	repo := newMockRepository()
	sink := &recordingSink{}
	svc := NewService(repo, &mockSeeder{}, sink, discardLogger())

	created, err := svc.Create(context.Background(), CompanyForm{NIT: "900123456-7", Name: "Comercial La Sabana SAS"})
	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, internalshared.EventChartSeeded, sink.events[0].Name)
	assert.Equal(t, created.ID, sink.events[0].CompanyID)
	assert.Equal(t, "company", sink.events[0].Entity)

	// The retry endpoint emits too.
	require.NoError(t, svc.SeedChart(context.Background(), created.ID))
	assert.Len(t, sink.events, 2)
}

func TestCreateCompanySeedFailureSurfaces(t *testing.T) {
	repo := newMockRepository()
	seeder := &mockSeeder{err: errors.New("boom")}
	svc := NewService(repo, seeder, nil, discardLogger())

	_, err := svc.Create(context.Background(), CompanyForm{NIT: "900123456-7", Name: "Comercial La Sabana SAS"})
	require.Error(t, err)
	// the company itself is created; the seed can be retried
	assert.Len(t, repo.companies, 1)

	seeder.err = nil
	require.NoError(t, svc.SeedChart(context.Background(), 1))
	assert.Equal(t, 1, seeder.seeded[1])
}

func TestCreateCompanyValidation(t *testing.T) {
	svc := NewService(newMockRepository(), &mockSeeder{}, nil, discardLogger())

	_, err := svc.Create(context.Background(), CompanyForm{Name: "Sin NIT"})
	assert.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(context.Background(), CompanyForm{NIT: "NIT-ABC", Name: "NIT inválido"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateCompanyDuplicateNIT(t *testing.T) {
	svc := NewService(newMockRepository(), &mockSeeder{}, nil, discardLogger())

	_, err := svc.Create(context.Background(), CompanyForm{NIT: "900123456-7", Name: "Primera"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CompanyForm{NIT: "900123456-7", Name: "Segunda"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeactivateCompany(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockSeeder{}, nil, discardLogger())

	created, err := svc.Create(context.Background(), CompanyForm{NIT: "900123456-7", Name: "Comercial"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.ErrorIs(t, svc.Deactivate(context.Background(), 999), shared.ErrNotFound)
}
