package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	bs, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	content := []byte("some raw bytes")
	path, err := bs.Write(ctx, content)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	got, err := bs.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalBlobStoreGeneratedNames(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	bs, err := NewLocalBlobStore(root)
	require.NoError(t, err)

	// Same content twice still lands under distinct opaque names.
	first, err := bs.Write(ctx, []byte("dup"))
	require.NoError(t, err)
	second, err := bs.Write(ctx, []byte("dup"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, root, filepath.Dir(first))
}

func TestLocalBlobStoreReadMissing(t *testing.T) {
	ctx := context.Background()
	bs, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	_, err = bs.Read(ctx, filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "content")
	_, err := NewLocalBlobStore(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalBlobStoreWriteTo(t *testing.T) {
	ctx := context.Background()
	bs, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	path, err := bs.Write(ctx, []byte("original"))
	require.NoError(t, err)

	variant := VariantPath(path, 250)
	require.NoError(t, bs.WriteTo(ctx, variant, []byte("resized")))

	got, err := bs.Read(ctx, variant)
	require.NoError(t, err)
	assert.Equal(t, []byte("resized"), got)

	// The original is untouched.
	got, err = bs.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".blob-"), "leftover temp file %s", e.Name())
	}
}

func TestVariantPath(t *testing.T) {
	assert.Equal(t, "/tmp/files_manager/abc_100", VariantPath("/tmp/files_manager/abc", 100))
	assert.Equal(t, "key_500", VariantPath("key", 500))
}
