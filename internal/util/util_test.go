package util

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHuman(t *testing.T) {
	assert.Equal(t, "0 B", Human(0))
	assert.Equal(t, "512 B", Human(512))
	assert.Equal(t, "1.00 KB", Human(1024))
	assert.Equal(t, "1.50 MB", Human(3<<19))
	assert.Equal(t, "2.00 GB", Human(2<<30))
}

func TestCreateCBZOrdersPages(t *testing.T) {
	dir := t.TempDir()

	// written out of order on purpose
	names := []string{"p002.jpg", "p001.jpg", "p003.jpg"}
	files := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		files = append(files, path)
	}

	output := filepath.Join(dir, "chapter.cbz")
	require.NoError(t, CreateCBZ(files, output))

	r, err := zip.OpenReader(output)
	require.NoError(t, err)
	defer r.Close()

	var got []string
	for _, f := range r.File {
		got = append(got, f.Name)
	}
	assert.Equal(t, []string{"p001.jpg", "p002.jpg", "p003.jpg"}, got)
}

func TestCreateCBZMissingPage(t *testing.T) {
	dir := t.TempDir()
	err := CreateCBZ([]string{filepath.Join(dir, "nope.jpg")}, filepath.Join(dir, "out.cbz"))
	require.Error(t, err)
}

func TestCleanupPartialChapters(t *testing.T) {
	dir := t.TempDir()

	partial := filepath.Join(dir, "100", "200.part")
	complete := filepath.Join(dir, "100", "201")
	require.NoError(t, os.MkdirAll(partial, 0755))
	require.NoError(t, os.MkdirAll(complete, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(partial, "p001.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(complete, "p001.jpg"), []byte("x"), 0644))

	CleanupPartialChapters(dir, zap.NewNop())

	_, err := os.Stat(partial)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(complete, "p001.jpg"))
	assert.NoError(t, err)
}

func TestRemoveIfEmpty(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	require.NoError(t, os.MkdirAll(empty, 0755))
	require.NoError(t, os.MkdirAll(full, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(full, "keep"), nil, 0644))

	RemoveIfEmpty(empty)
	RemoveIfEmpty(full)

	_, err := os.Stat(empty)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(full)
	assert.NoError(t, err)
}
