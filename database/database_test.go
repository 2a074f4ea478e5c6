package database

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) DB {
	t.Helper()
	db, err := NewInMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSetGetHasDelete(t *testing.T) {
	db := newTestDB(t)
	ns := []byte("ns-")

	require.NoError(t, db.Set(ns, []Object{{Key: []byte("a"), Value: []byte("1")}}))

	v, err := db.Get(ns, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	ok, err := db.Has(ns, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, db.Delete(ns, []byte("a")))
	ok, err = db.Has(ns, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.Get(ns, []byte("a"))
	assert.True(t, IsNotFound(err))
}

func TestReadIteratorCopyOrder(t *testing.T) {
	db := newTestDB(t)
	ns := []byte("it-")
	require.NoError(t, db.Set(ns, []Object{
		{Key: []byte("1"), Value: []byte("one")},
		{Key: []byte("2"), Value: []byte("two")},
		{Key: []byte("3"), Value: []byte("three")},
	}))
	require.NoError(t, db.Set([]byte("other-"), []Object{{Key: []byte("x"), Value: []byte("x")}}))

	collect := func(reverse bool, limit int) []string {
		var out []string
		err := db.ReadIteratorCopy(ns, reverse, func(k, v []byte) (bool, error) {
			out = append(out, string(v))
			return len(out) >= limit, nil
		})
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, []string{"one", "two", "three"}, collect(false, 10))
	assert.Equal(t, []string{"three", "two", "one"}, collect(true, 10))
	assert.Equal(t, []string{"three", "two"}, collect(true, 2))
}

func TestDeleteNamespace(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Set([]byte("a-"), []Object{{Key: []byte("1"), Value: []byte("x")}, {Key: []byte("2"), Value: []byte("y")}}))
	require.NoError(t, db.Set([]byte("b-"), []Object{{Key: []byte("1"), Value: []byte("z")}}))

	require.NoError(t, db.DeleteNamespace([]byte("a-")))

	count := 0
	require.NoError(t, db.ReadIteratorCopy([]byte("a-"), false, func(k, v []byte) (bool, error) {
		count++
		return false, nil
	}))
	assert.Zero(t, count)

	ok, err := db.Has([]byte("b-"), []byte("1"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateULIDMonotonic(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	var prev ulid.ULID
	for i := 0; i < 50; i++ {
		raw, err := db.CreateULID(now)
		require.NoError(t, err)
		var id ulid.ULID
		require.NoError(t, id.UnmarshalBinary(raw))
		if i > 0 {
			assert.Equal(t, 1, id.Compare(prev))
		}
		prev = id
	}

	// an earlier timestamp still sorts after the last id
	raw, err := db.CreateULID(now.Add(-time.Hour))
	require.NoError(t, err)
	var id ulid.ULID
	require.NoError(t, id.UnmarshalBinary(raw))
	assert.Equal(t, 1, id.Compare(prev))
}
