package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// Service builds financial reports from the ledger. Built reports are
// cached in Redis under a version that posting bumps; concurrent requests
// for the same report collapse into one build via singleflight.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

const dateLayout = "2006-01-02"

// TrialBalance builds the balance de prueba at the cut-off date.
func (s *Service) TrialBalance(ctx context.Context, companyID int64, asOf time.Time) (TrialBalance, error) {
	key := []string{"reports", "tb", strconv.FormatInt(companyID, 10), asOf.Format(dateLayout)}
	return fetch[TrialBalance](ctx, s, key, func(ctx context.Context) (any, error) {
		balances, err := s.repo.BalancesAsOf(ctx, companyID, asOf)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(balances), nil
	})
}

// IncomeStatement builds the estado de resultados over [from, to].
func (s *Service) IncomeStatement(ctx context.Context, companyID int64, from, to time.Time) (IncomeStatement, error) {
	key := []string{"reports", "pl", strconv.FormatInt(companyID, 10), from.Format(dateLayout), to.Format(dateLayout)}
	return fetch[IncomeStatement](ctx, s, key, func(ctx context.Context) (any, error) {
		balances, err := s.repo.MovementsBetween(ctx, companyID, from, to)
		if err != nil {
			return nil, err
		}
		return BuildIncomeStatement(balances), nil
	})
}

// BalanceSheet builds the balance general at the cut-off date.
func (s *Service) BalanceSheet(ctx context.Context, companyID int64, asOf time.Time) (BalanceSheet, error) {
	key := []string{"reports", "bs", strconv.FormatInt(companyID, 10), asOf.Format(dateLayout)}
	return fetch[BalanceSheet](ctx, s, key, func(ctx context.Context) (any, error) {
		balances, err := s.repo.BalancesAsOf(ctx, companyID, asOf)
		if err != nil {
			return nil, err
		}
		bs := BuildBalanceSheet(balances)
		if !bs.Balanced() {
			s.logger.Warn("balance sheet does not close",
				slog.Int64("company_id", companyID),
				slog.String("assets", bs.TotalAssets.StringFixed(2)),
				slog.String("liabilities_equity", bs.TotalLiabilities.Add(bs.TotalEquity).StringFixed(2)))
		}
		return bs, nil
	})
}

// Invalidate drops every cached report after a ledger change.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func fetch[T any](ctx context.Context, s *Service, keyParts []string, build func(context.Context) (any, error)) (T, error) {
	var zero T
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		s.logger.Warn("report cache unavailable, building directly", slog.Any("error", err))
		value, buildErr := build(ctx)
		if buildErr != nil {
			return zero, buildErr
		}
		out, ok := value.(T)
		if !ok {
			return zero, fmt.Errorf("reports: unexpected report type %T", value)
		}
		return out, nil
	}
	ch := s.group.DoChan(key, func() (any, error) {
		var out T
		if err := s.cache.FetchJSON(ctx, key, &out, build); err != nil {
			return nil, err
		}
		return out, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
