package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveReadDelete(t *testing.T) {
	dir := t.TempDir()
	fs := NewLocalFileStorage(dir, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "nested/data.json", []byte(`{"a":1}`)))
	assert.True(t, fs.Exists(ctx, "nested/data.json"))

	got, err := fs.Read(ctx, "nested/data.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, fs.Save(ctx, "nested/data.json", []byte(`{"a":2}`)))
	got, err = fs.Read(ctx, "nested/data.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, fs.Delete(ctx, "nested/data.json"))
	assert.False(t, fs.Exists(ctx, "nested/data.json"))
	assert.NoError(t, fs.Delete(ctx, "nested/data.json"), "delete is idempotent")
}

func TestLocalFileStorage_RejectsEscapingPaths(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	assert.Error(t, fs.Save(ctx, "../outside.json", []byte("x")))
	_, err := fs.Read(ctx, "../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, fs.Delete(ctx, "../outside.json"))
}

func TestLocalFileStorage_ReadMissing(t *testing.T) {
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	_, err := fs.Read(context.Background(), "missing.json")
	assert.Error(t, err)
}
