package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository("habitkeeper:habits")

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	payload := []byte(`[{"id":"a"}]`)
	require.NoError(t, repo.Save(ctx, payload))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))

	// returned slices are copies
	got[0] = 'x'
	again, _ := repo.Load(ctx)
	assert.Equal(t, byte('['), again[0])
}

func TestFileRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	repo := NewFileRepository(dir, "habitkeeper:habits", zap.NewNop())

	assert.Equal(t, filepath.Join(dir, "habitkeeper_habits.json"), repo.Path())
	assert.NoError(t, repo.Ping(ctx))

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, []byte(`[]`)))
	require.NoError(t, repo.Save(ctx, []byte(`[{"id":"b"}]`)))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
