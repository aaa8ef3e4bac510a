package companies

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contaverde/contaverde/internal/accounting/accounts"
	"github.com/contaverde/contaverde/internal/masterdata/shared"
	internalshared "github.com/contaverde/contaverde/internal/shared"
)

// ChartSeeder bootstraps the standard chart of accounts for a company.
type ChartSeeder interface {
	SeedBasicChart(ctx context.Context, companyID int64) (map[string]accounts.Account, error)
}

type Service struct {
	repo   Repository
	seeder ChartSeeder
	events internalshared.EventSink
	logger *slog.Logger
}

func NewService(repo Repository, seeder ChartSeeder, events internalshared.EventSink, logger *slog.Logger) *Service {
	return &Service{repo: repo, seeder: seeder, events: events, logger: logger}
}

func (s *Service) emitSeeded(ctx context.Context, companyID int64, count int) {
	if s.events == nil {
		return
	}
	_ = s.events.Emit(ctx, internalshared.DomainEvent{
		Name:      internalshared.EventChartSeeded,
		CompanyID: companyID,
		Entity:    "company",
		EntityID:  fmt.Sprintf("%d", companyID),
		Meta:      map[string]any{"accounts": count},
	})
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Company, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Company, error) {
	if id <= 0 {
		return Company{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Create registers the company and then seeds its chart of accounts as an
// explicit step. If seeding fails the company is still created; SeedChart
// can be retried on its own.
func (s *Service) Create(ctx context.Context, form CompanyForm) (Company, error) {
	if err := s.validate(form); err != nil {
		return Company{}, err
	}
	created, err := s.repo.Create(ctx, Company{NIT: form.NIT, Name: form.Name, Address: form.Address})
	if err != nil {
		return Company{}, err
	}
	seeded, err := s.seeder.SeedBasicChart(ctx, created.ID)
	if err != nil {
		s.logger.Error("chart seeding failed for new company",
			slog.Int64("company_id", created.ID), slog.Any("error", err))
		return created, fmt.Errorf("companies: company %d created but chart seeding failed: %w", created.ID, err)
	}
	s.emitSeeded(ctx, created.ID, len(seeded))
	return created, nil
}

// SeedChart retries the chart bootstrap for an existing company.
func (s *Service) SeedChart(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	seeded, err := s.seeder.SeedBasicChart(ctx, id)
	if err != nil {
		return err
	}
	s.emitSeeded(ctx, id, len(seeded))
	return nil
}

func (s *Service) Update(ctx context.Context, id int64, form CompanyForm) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(form); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, Company{NIT: form.NIT, Name: form.Name, Address: form.Address})
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}
