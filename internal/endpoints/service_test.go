package endpoints

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgate/opsgate/internal/shared"
)

type mockRepository struct {
	defs   map[int64]Definition
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{defs: make(map[int64]Definition), nextID: 1}
}

func (m *mockRepository) pathTaken(path string, exceptID int64) bool {
	for _, d := range m.defs {
		if d.Path == path && d.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *mockRepository) List(ctx context.Context) ([]Definition, error) {
	out := make([]Definition, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Definition, error) {
	d, ok := m.defs[id]
	if !ok {
		return Definition{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *mockRepository) Create(ctx context.Context, def Definition) (Definition, error) {
	if m.pathTaken(def.Path, 0) {
		return Definition{}, fmt.Errorf("%w: endpoint path %s already registered", shared.ErrConflict, def.Path)
	}
	def.ID = m.nextID
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt
	m.nextID++
	m.defs[def.ID] = def
	return def, nil
}

func (m *mockRepository) Update(ctx context.Context, def Definition) (Definition, error) {
	existing, ok := m.defs[def.ID]
	if !ok {
		return Definition{}, shared.ErrNotFound
	}
	if m.pathTaken(def.Path, def.ID) {
		return Definition{}, fmt.Errorf("%w: endpoint path %s already registered", shared.ErrConflict, def.Path)
	}
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now()
	m.defs[def.ID] = def
	return def, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.defs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.defs, id)
	return nil
}

func TestCreateNormalizesPathAndMethod(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	def, err := svc.Create(context.Background(), Definition{
		Path:   "reports/stalled-orders/",
		Method: "post",
	})
	require.NoError(t, err)
	assert.Equal(t, "/reports/stalled-orders", def.Path)
	assert.Equal(t, "POST", def.Method)
}

func TestCreateDuplicatePathConflicts(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), Definition{Path: "/reports/daily", Method: "GET"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Definition{Path: "reports/daily", Method: "POST"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateUnknownIDNotFound(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Update(context.Background(), Definition{ID: 99, Path: "/x", Method: "GET"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateOntoExistingPathConflicts(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	first, err := svc.Create(context.Background(), Definition{Path: "/a", Method: "GET"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), Definition{Path: "/b", Method: "GET"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), Definition{ID: second.ID, Path: first.Path, Method: "GET"})
	require.ErrorIs(t, err, shared.ErrConflict)

	// Keeping its own path is not a conflict.
	updated, err := svc.Update(context.Background(), Definition{ID: second.ID, Path: second.Path, Method: "DELETE"})
	require.NoError(t, err)
	assert.Equal(t, "DELETE", updated.Method)
}

func TestDeleteUnknownIDNotFound(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	err := svc.Delete(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListReturnsCreationOrder(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	for _, p := range []string{"/c", "/a", "/b"} {
		_, err := svc.Create(context.Background(), Definition{Path: p, Method: "GET"})
		require.NoError(t, err)
	}

	defs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, "/c", defs[0].Path)
	assert.Equal(t, "/a", defs[1].Path)
	assert.Equal(t, "/b", defs[2].Path)
}
