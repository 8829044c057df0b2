package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	entries []Entry
}

func (m *mockRepository) matching(f Filters) []Entry {
	var out []Entry
	for _, e := range m.entries {
		if f.ActorID != 0 && e.ActorID != f.ActorID {
			continue
		}
		if f.Entity != "" && e.Entity != f.Entity {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if !f.From.IsZero() && e.OccurredAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.OccurredAt.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	// Newest first, same as the SQL ordering.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (m *mockRepository) List(ctx context.Context, f Filters, limit, offset int) ([]Entry, error) {
	matched := m.matching(f)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *mockRepository) Count(ctx context.Context, f Filters) (int, error) {
	return len(m.matching(f)), nil
}

func seedRepository(n int) *mockRepository {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := &mockRepository{}
	for i := 0; i < n; i++ {
		m.entries = append(m.entries, Entry{
			ID:         int64(i + 1),
			ActorID:    int64(i%3 + 1),
			Action:     "role.create",
			Entity:     "role",
			EntityID:   "1",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return m
}

func TestListNewestFirst(t *testing.T) {
	svc := NewService(seedRepository(5))

	entries, paging, err := svc.List(context.Background(), Filters{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, int64(5), entries[0].ID)
	assert.Equal(t, int64(1), entries[4].ID)
	assert.Equal(t, 5, paging.Total)
	assert.Equal(t, 1, paging.TotalPages)
}

func TestListPagesThroughTrail(t *testing.T) {
	svc := NewService(seedRepository(45))

	first, paging, err := svc.List(context.Background(), Filters{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, first, 20)
	assert.Equal(t, 45, paging.Total)
	assert.Equal(t, 3, paging.TotalPages)

	last, _, err := svc.List(context.Background(), Filters{}, 3, 20)
	require.NoError(t, err)
	require.Len(t, last, 5)
	assert.Equal(t, int64(5), last[0].ID)
}

func TestListClampsPerPage(t *testing.T) {
	svc := NewService(seedRepository(120))

	entries, paging, err := svc.List(context.Background(), Filters{}, 1, 500)
	require.NoError(t, err)
	assert.Len(t, entries, maxPerPage)
	assert.Equal(t, maxPerPage, paging.PerPage)

	entries, paging, err = svc.List(context.Background(), Filters{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, defaultPerPage)
	assert.Equal(t, 1, paging.Page)
}

func TestListFiltersByActor(t *testing.T) {
	svc := NewService(seedRepository(9))

	entries, paging, err := svc.List(context.Background(), Filters{ActorID: 2}, 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 3, paging.Total)
	for _, e := range entries {
		assert.Equal(t, int64(2), e.ActorID)
	}
}

func TestListFiltersByWindow(t *testing.T) {
	repo := seedRepository(10)
	svc := NewService(repo)

	from := repo.entries[4].OccurredAt
	to := repo.entries[6].OccurredAt
	entries, _, err := svc.List(context.Background(), Filters{From: from, To: to}, 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(7), entries[0].ID)
	assert.Equal(t, int64(5), entries[2].ID)
}
