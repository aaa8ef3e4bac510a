package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	events     []Event
	lastLimit  int
	lastOffset int
}

func (r *stubRepo) Timeline(_ context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	r.lastLimit = limit
	r.lastOffset = offset
	var out []Event
	for _, ev := range r.events {
		if ev.CompanyID != filters.CompanyID {
			continue
		}
		if filters.Entity != "" && ev.Entity != filters.Entity {
			continue
		}
		out = append(out, ev)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func seedEvents(n int) []Event {
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, Event{
			ID:         int64(i + 1),
			Name:       "entry.confirmed",
			CompanyID:  1,
			Entity:     "journal_entry",
			EntityID:   "42",
			OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		})
	}
	return events
}

func TestTimelinePagesWithNextMarker(t *testing.T) {
	repo := &stubRepo{events: seedEvents(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{CompanyID: 1})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 20)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
	// One extra row is requested to probe for the next page.
	assert.Equal(t, 21, repo.lastLimit)

	result, err = svc.Timeline(context.Background(), TimelineFilters{CompanyID: 1, Page: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 5)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.PrevPage)
	assert.Equal(t, 20, repo.lastOffset)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &stubRepo{events: seedEvents(60)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{CompanyID: 1, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 50)
	assert.Equal(t, 50, result.Paging.PageSize)
}

func TestTimelineRequiresCompany(t *testing.T) {
	svc := NewService(&stubRepo{})

	_, err := svc.Timeline(context.Background(), TimelineFilters{})
	assert.ErrorIs(t, err, ErrCompanyRequired)
}

func TestTimelineFiltersByEntity(t *testing.T) {
	events := seedEvents(3)
	events[1].Entity = "payment"
	repo := &stubRepo{events: events}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{CompanyID: 1, Entity: "payment"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "payment", result.Rows[0].Entity)
}
