package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"go-dashboards/pkg/filters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_DisabledByDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	enabled, err := s.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, s.Save(ctx, "sales", filters.Values{"REGION": "south"}))

	require.NoError(t, s.SetEnabled(ctx, true))
	values, err := s.Load(ctx, "sales")
	require.NoError(t, err)
	assert.Nil(t, values, "nothing is written while saving is off")
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetEnabled(ctx, true))

	require.NoError(t, s.Save(ctx, "sales", filters.Values{"REGION": "south", "n": 3.0, "tags": []any{"a"}}))
	require.NoError(t, s.Save(ctx, "sales", filters.Values{"REGION": "north"}))

	values, err := s.Load(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, filters.Values{"REGION": "north"}, values, "last write wins")

	missing, err := s.Load(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.SetEnabled(ctx, false))
	values, err = s.Load(ctx, "sales")
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestStore_Forget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetEnabled(ctx, true))
	require.NoError(t, s.Save(ctx, "sales", filters.Values{"q": "x"}))

	require.NoError(t, s.Forget(ctx, "sales"))
	values, err := s.Load(ctx, "sales")
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestStore_PersistsOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dashview.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetEnabled(ctx, true))
	require.NoError(t, s.Save(ctx, "sales", filters.Values{"q": "x"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	values, err := s.Load(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, filters.Values{"q": "x"}, values)
}
