package txn

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexidb/lexidb/storage/boltengine"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	eng, err := boltengine.Open(filepath.Join(t.TempDir(), "test.db"), false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, eng.Close()) })
	return NewManager(eng, nil, nil)
}

func TestCommitMakesColumnsVisible(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("users", "alice", map[string]ColumnValue{
		"name": {Value: []byte("Alice")},
	})
	v, ok, err := tx.GetColumn(ctx, "users", "alice", "name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("Alice"), v)
	require.NoError(t, tx.Commit(ctx))

	tx2, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	v2, ok, err := tx2.GetColumn(ctx, "users", "alice", "name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("Alice"), v2)
	require.NoError(t, tx2.Commit(ctx))
}

func TestAbortDiscardsWrites(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("users", "bob", map[string]ColumnValue{"name": {Value: []byte("Bob")}})
	require.NoError(t, tx.Abort(nil))

	tx2, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	_, ok, err := tx2.GetColumn(ctx, "users", "bob", "name")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, tx2.Commit(ctx))
}

func TestDoubleCommitFails(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.Error(t, tx.Commit(ctx))
}

func TestNestedTransactionSharesOverlays(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	outer, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	outer.PutColumns("users", "carol", map[string]ColumnValue{"name": {Value: []byte("Carol")}})

	inner := mgr.BeginNested(outer)
	require.True(t, inner.IsNested())
	v, ok, err := inner.GetColumn(ctx, "users", "carol", "name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("Carol"), v)

	inner.PutColumns("users", "dave", map[string]ColumnValue{"name": {Value: []byte("Dave")}})
	require.NoError(t, inner.Commit(ctx)) // nested commit is a bookkeeping no-op

	require.NoError(t, outer.Commit(ctx))

	verify, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	v2, ok, err := verify.GetColumn(ctx, "users", "dave", "name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("Dave"), v2)
}

func TestRepeatableReadSnapshotIsolation(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	setup, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	setup.PutColumns("users", "erin", map[string]ColumnValue{"name": {Value: []byte("Erin")}})
	require.NoError(t, setup.Commit(ctx))

	rr, err := mgr.Begin(ctx, 1, RepeatableRead)
	require.NoError(t, err)

	other, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	other.PutColumns("users", "erin", map[string]ColumnValue{"name": {Value: []byte("Erin Updated")}})
	require.NoError(t, other.Commit(ctx))

	v, ok, err := rr.GetColumn(ctx, "users", "erin", "name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("Erin"), v, "repeatable-read must not observe a commit after its snapshot was taken")
	require.NoError(t, rr.Commit(ctx))

	rc, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	v2, ok, err := rc.GetColumn(ctx, "users", "erin", "name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("Erin Updated"), v2)
	require.NoError(t, rc.Commit(ctx))
}

func TestDeleteKeyRemovesAllColumns(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("users", "frank", map[string]ColumnValue{
		"name": {Value: []byte("Frank")},
		"age":  {Value: []byte("30")},
	})
	require.NoError(t, tx.Commit(ctx))

	tx2, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	require.NoError(t, tx2.DeleteKey(ctx, "users", "frank"))
	exists, err := tx2.ExistsKey(ctx, "users", "frank")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, tx2.Commit(ctx))

	tx3, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	exists2, err := tx3.ExistsKey(ctx, "users", "frank")
	require.NoError(t, err)
	require.False(t, exists2)
	require.NoError(t, tx3.Commit(ctx))
}

func TestCommitPublishesRecordToSubscribers(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	ch, cancel := mgr.Subscribe(4)
	defer cancel()

	tx, err := mgr.Begin(ctx, 2, ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("orders", "o1", map[string]ColumnValue{"status": {Value: []byte("paid")}})
	require.NoError(t, tx.Commit(ctx))

	select {
	case rec := <-ch:
		require.Equal(t, uint32(2), rec.KsID)
		require.NotEmpty(t, rec.Ops)
	default:
		t.Fatal("expected a commit record to be published")
	}
}

func TestWatchFiresOnCommit(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	signal, cancel := mgr.Watch([]byte("users"), []byte("gina"))
	defer cancel()

	tx, err := mgr.Begin(ctx, 1, ReadCommitted)
	require.NoError(t, err)
	tx.PutColumns("users", "gina", map[string]ColumnValue{"name": {Value: []byte("Gina")}})
	require.NoError(t, tx.Commit(ctx))

	select {
	case <-signal:
	default:
		t.Fatal("expected watch signal to fire after commit")
	}
}
