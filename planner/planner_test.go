package planner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexidb/lexidb/internal/metrics"
	"github.com/lexidb/lexidb/storage/boltengine"
	"github.com/lexidb/lexidb/txn"
)

func newTestSetup(t *testing.T) (*boltengine.Engine, *txn.Manager) {
	t.Helper()
	eng, err := boltengine.Open(filepath.Join(t.TempDir(), "test.db"), false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, eng.Close()) })
	return eng, txn.NewManager(eng, nil, nil)
}

func seedUsers(t *testing.T, mgr *txn.Manager, ksID uint32) {
	t.Helper()
	ctx := context.Background()
	tx, err := mgr.Begin(ctx, ksID, txn.ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("users", "alice", map[string]txn.ColumnValue{
		"name": {Value: []byte("Alice")},
		"age":  {Value: []byte("30")},
	})
	tx.PutColumns("users", "bob", map[string]txn.ColumnValue{
		"name": {Value: []byte("Bob")},
	})
	tx.PutColumns("users", "carol", map[string]txn.ColumnValue{
		"name": {Value: []byte("Carol")},
	})
	require.NoError(t, tx.Commit(ctx))
}

func TestGetSliceFullRange(t *testing.T) {
	_, mgr := newTestSetup(t)
	seedUsers(t, mgr, 1)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, txn.ReadCommitted)
	require.NoError(t, err)
	defer tx.Commit(ctx)

	result, err := GetSlice(ctx, tx, "users", Range(nil, nil), SelectAll(), 0, 0, true, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	require.Equal(t, []byte("alice"), result.Rows[0].Key)
	require.Equal(t, []byte("bob"), result.Rows[1].Key)
	require.Equal(t, []byte("carol"), result.Rows[2].Key)
}

func TestGetSliceMaxKeysLimitsResult(t *testing.T) {
	_, mgr := newTestSetup(t)
	seedUsers(t, mgr, 1)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, txn.ReadCommitted)
	require.NoError(t, err)
	defer tx.Commit(ctx)

	result, err := GetSlice(ctx, tx, "users", Range(nil, nil), SelectAll(), 2, 0, true, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.Equal(t, []byte("bob"), result.LastKey)
}

func TestGetSliceValuesProjection(t *testing.T) {
	_, mgr := newTestSetup(t)
	seedUsers(t, mgr, 1)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, txn.ReadCommitted)
	require.NoError(t, err)
	defer tx.Commit(ctx)

	result, err := GetSliceValues(ctx, tx, "users", Keys([][]byte{[]byte("alice")}), [][]byte{[]byte("name")}, 0, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Len(t, result.Rows[0].Columns, 1)
	require.Equal(t, []byte("name"), result.Rows[0].Columns[0].Name)
	require.Equal(t, []byte("Alice"), result.Rows[0].Columns[0].Value)
	// decode_ts is false for get_slice_values
	require.Equal(t, int64(0), result.Rows[0].Columns[0].TSMicros)
}

func TestGetSliceMergesOverlayAddedKey(t *testing.T) {
	_, mgr := newTestSetup(t)
	seedUsers(t, mgr, 1)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, txn.ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("users", "dave", map[string]txn.ColumnValue{"name": {Value: []byte("Dave")}})

	result, err := GetSlice(ctx, tx, "users", Range(nil, nil), SelectAll(), 0, 0, true, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 4)
	require.NoError(t, tx.Commit(ctx))
}

func TestCountKeys(t *testing.T) {
	_, mgr := newTestSetup(t)
	seedUsers(t, mgr, 1)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, txn.ReadCommitted)
	require.NoError(t, err)
	defer tx.Commit(ctx)

	n, err := CountKeys(ctx, tx, "users", Range(nil, nil))
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestListTables(t *testing.T) {
	eng, mgr := newTestSetup(t)
	seedUsers(t, mgr, 1)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, txn.ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("orders", "o1", map[string]txn.ColumnValue{"status": {Value: []byte("paid")}})
	require.NoError(t, tx.Commit(ctx))

	tables, err := ListTables(eng, 1)
	require.NoError(t, err)
	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = string(tb)
	}
	require.ElementsMatch(t, []string{"users", "orders"}, names)
}

func TestTableStats(t *testing.T) {
	eng, mgr := newTestSetup(t)
	seedUsers(t, mgr, 1)

	stats, err := TableStats(eng, 1, metrics.Noop())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, "users", stats[0].Table)
	require.Equal(t, uint64(3), stats[0].KeyCount)
}
