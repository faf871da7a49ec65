package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	n, err := store.Save("user-1/doc.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	f, err := store.Open("user-1/doc.txt")
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	require.NoError(t, store.Delete("user-1/doc.txt"))

	_, err = store.Open("user-1/doc.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("nope.txt"))
}

func TestRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	keys := []string{
		"",
		".",
		"..",
		"../outside.txt",
		"a/../../outside.txt",
		"/etc/passwd",
	}

	for _, key := range keys {
		_, err := store.Save(key, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, "key %q", key)

		_, err = store.Open(key)
		assert.ErrorIs(t, err, ErrInvalidPath, "key %q", key)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("doc.txt", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Save("doc.txt", strings.NewReader("second"))
	require.NoError(t, err)

	f, err := store.Open("doc.txt")
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}
