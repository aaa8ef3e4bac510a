package reports

import (
	"context"
	"log/slog"

	"github.com/contaverde/contaverde/internal/shared"
)

// InvalidatingSink decorates an event sink so that any confirmed or
// voided entry bumps the report cache version.
type InvalidatingSink struct {
	inner  shared.EventSink
	cache  *Cache
	logger *slog.Logger
}

func NewInvalidatingSink(inner shared.EventSink, cache *Cache, logger *slog.Logger) *InvalidatingSink {
	return &InvalidatingSink{inner: inner, cache: cache, logger: logger}
}

func (s *InvalidatingSink) Emit(ctx context.Context, event shared.DomainEvent) error {
	if event.Name == shared.EventEntryConfirmed || event.Name == shared.EventEntryVoided {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	return s.inner.Emit(ctx, event)
}
