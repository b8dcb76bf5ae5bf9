package boltengine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexidb/lexidb/internal/logging"
	"github.com/lexidb/lexidb/storage"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	e, err := Open(path, false, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	return e
}

func TestGetPutDelete(t *testing.T) {
	e := openTestEngine(t)

	_, ok, err := e.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, e.Put([]byte("k"), []byte("v")))
	v, ok, err := e.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	found, err := e.Exists([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, e.Delete([]byte("k")))
	_, ok, err = e.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWriteBatchIsAtomic(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("1")))

	ops := []storage.WriteOp{
		storage.Put([]byte("b"), []byte("2")),
		storage.Delete([]byte("a")),
		storage.Put([]byte("c"), []byte("3")),
	}
	require.NoError(t, e.WriteBatch(context.Background(), ops, true))

	_, ok, _ := e.Get([]byte("a"))
	require.False(t, ok)
	v, ok, _ := e.Get([]byte("b"))
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
	v, ok, _ = e.Get([]byte("c"))
	require.True(t, ok)
	require.Equal(t, []byte("3"), v)
}

func TestSnapshotSurvivesSubsequentWrites(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Put([]byte("k"), []byte("before")))

	snap, err := e.Snapshot()
	require.NoError(t, err)
	defer snap.Release()

	require.NoError(t, e.Put([]byte("k"), []byte("after")))

	v, ok, err := snap.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("before"), v, "snapshot must not observe writes made after it was taken")

	v2, ok, err := e.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("after"), v2)
}

func TestIteratorWalksInAscendingOrder(t *testing.T) {
	e := openTestEngine(t)
	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, e.Put([]byte(k), []byte(k)))
	}

	it, err := e.Iterator()
	require.NoError(t, err)
	defer it.Close()

	require.NoError(t, it.Seek(nil))
	var seen []string
	for it.Valid() {
		seen = append(seen, string(it.Key()))
		require.NoError(t, it.Next())
	}
	require.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestIterFromRespectsPrefixAndEarlyStop(t *testing.T) {
	e := openTestEngine(t)
	for _, k := range []string{"t1/a", "t1/b", "t1/c", "t2/a"} {
		require.NoError(t, e.Put([]byte(k), []byte("v")))
	}

	var seen []string
	err := e.IterFrom([]byte("t1/"), func(key, value []byte) (bool, error) {
		if len(key) < 3 || string(key[:3]) != "t1/" {
			return false, nil
		}
		seen = append(seen, string(key))
		return len(seen) < 2, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"t1/a", "t1/b"}, seen)
}

func TestApproximateSizeCountsKeysAndValuesInRange(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Put([]byte("a"), []byte("12345")))
	require.NoError(t, e.Put([]byte("b"), []byte("67890")))

	size, err := e.ApproximateSize([]byte("a"), []byte("c"))
	require.NoError(t, err)
	require.Equal(t, uint64(1+5+1+5), size)
}
