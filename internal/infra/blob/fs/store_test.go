package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chvcore/internal/blob/core"
)

func TestPutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, core.DriverFilesystem, s.Driver())

	first, err := s.Put(ctx, "snapshots/chv_offline_data", strings.NewReader(`{"v":1}`), core.PutOptions{ContentType: "application/json"})
	require.NoError(t, err)
	second, err := s.Put(ctx, "snapshots/chv_offline_data", strings.NewReader(`{"v":2}`), core.PutOptions{ContentType: "application/json"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ETag, second.ETag)

	info, rc, err := s.Get(ctx, "snapshots/chv_offline_data")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(body))
	assert.Equal(t, "application/json", info.ContentType)
	assert.EqualValues(t, 7, info.Size)
	assert.Equal(t, "http://local.blob/snapshots/chv_offline_data", info.URL)
}

func TestRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "../escape", "/abs", "x.meta"} {
		_, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{})
		assert.Error(t, err, key)
	}
}

func TestMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)

	_, _, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Head(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Put(ctx, "exports/w1/file.csv", strings.NewReader("a,b"), core.PutOptions{})
	require.NoError(t, err)
	existed, err := s.Delete(ctx, "exports/w1/file.csv")
	require.NoError(t, err)
	assert.True(t, existed)
	_, statErr := os.Stat(filepath.Join(root, "exports", "w1", "file.csv.meta"))
	assert.True(t, os.IsNotExist(statErr))

	existed, err = s.Delete(ctx, "exports/w1/file.csv")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestListByPrefix(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	for _, k := range []string{"exports/w1/b.json", "exports/w1/a.json", "exports/w2/c.json"} {
		_, err := s.Put(ctx, k, strings.NewReader("{}"), core.PutOptions{})
		require.NoError(t, err)
	}
	infos, err := s.List(ctx, "exports/w1/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "exports/w1/a.json", infos[0].Key)

	url, err := s.PresignURL(ctx, "exports/w1/a.json", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://local.blob/exports/w1/a.json", url)
}
