package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()

	_, err := db.Get([]byte("missing"))
	require.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, db.Put([]byte("a"), []byte("1")))
	got, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	ok, err := db.Has([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Delete([]byte("a")))
	ok, err = db.Has([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte("payload")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'x'

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}

func TestLevelDBRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db, err := NewLevelDB(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	require.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, db.Put([]byte("pool/0"), []byte(`{"id":0}`)))
	got, err := db.Get([]byte("pool/0"))
	require.NoError(t, err)
	require.Equal(t, []byte(`{"id":0}`), got)

	require.NoError(t, db.Delete([]byte("pool/0")))
	ok, err := db.Has([]byte("pool/0"))
	require.NoError(t, err)
	require.False(t, ok)
}
