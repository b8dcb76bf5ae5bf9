package txn

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lexidb/lexidb/errs"
	"github.com/lexidb/lexidb/internal/logging"
	"github.com/lexidb/lexidb/internal/metrics"
	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/storage"
)

// txnRoot is the state genuinely shared by an outermost transaction and
// every transaction nested inside it: the overlays, the read view, and the
// eventual write batch. spec.md §4.4 "Nested transactions ... shares all
// overlays with the parent (not copy-on-write)" is realized by every
// *Transaction at any depth holding a pointer to the same txnRoot rather
// than its own copy.
type txnRoot struct {
	mgr       *Manager
	eng       storage.Engine
	ksID      uint32
	isolation IsolationLevel

	ov   *Overlays
	snap storage.ReadView // nil for read-committed
	pool *iteratorPool     // non-nil only for repeatable-read

	mu        sync.Mutex
	rawBatch  []storage.WriteOp // backup.Load's direct-batch writes, bypassing overlays
	touched   map[string]struct{} // watchKey set of (table,key) pairs written this transaction
	committed bool
	aborted   bool
}

// Transaction is a handle into a txnRoot at a given nesting depth. depth 0
// is the outermost transaction; Commit/Abort on a depth-0 handle actually
// flushes or discards state, while deeper handles only account for
// bookkeeping (spec.md §4.4 "Commit happens only when the outermost
// transaction completes").
type Transaction struct {
	root  *txnRoot
	depth int
}

// Begin starts an outermost transaction against keyspace ksID with the
// given isolation level.
func (mgr *Manager) Begin(ctx context.Context, ksID uint32, isolation IsolationLevel) (*Transaction, error) {
	root := &txnRoot{
		mgr:       mgr,
		eng:       mgr.eng,
		ksID:      ksID,
		isolation: isolation,
		ov:        newOverlays(),
		touched:   make(map[string]struct{}),
	}
	if isolation == RepeatableRead {
		snap, err := mgr.eng.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("txn: begin repeatable-read: %w", err)
		}
		root.snap = snap
		root.pool = newIteratorPool(snap, DefaultIteratorPoolSize)
	}
	mgr.log.Debugw("begin", "ks_id", ksID, "isolation", isolation.String())
	return &Transaction{root: root, depth: 0}, nil
}

// BeginNested creates a child transaction sharing parent's overlays,
// snapshot and iterator pool. Per spec.md §4.4 there is no per-nested-
// transaction rollback journal: since overlays are the same maps, an
// aborted nested transaction's writes remain visible to its parent and
// siblings, exactly as they would in the source this distills (a
// documented property of shared, not copy-on-write, overlays — not a bug
// in this implementation).
func (mgr *Manager) BeginNested(parent *Transaction) *Transaction {
	return &Transaction{root: parent.root, depth: parent.depth + 1}
}

// IsNested reports whether this handle is a child of an outermost
// transaction.
func (t *Transaction) IsNested() bool { return t.depth > 0 }

// KsID returns the keyspace this transaction operates against.
func (t *Transaction) KsID() uint32 { return t.root.ksID }

// Isolation returns the transaction's isolation level.
func (t *Transaction) Isolation() IsolationLevel { return t.root.isolation }

// Overlays exposes the shared overlay buffers to the planner package,
// which must merge them into store scans (spec.md §4.5).
func (t *Transaction) Overlays() *Overlays { return t.root.ov }

// NewIterator opens a scan cursor appropriate to this transaction's
// isolation level: a fresh iterator against the live store for
// read-committed (spec.md §4.4 "read_view is re-acquired per iterator"),
// or a pool-bounded iterator over the snapshot for repeatable-read. The
// returned release func must be called exactly once when the caller is
// done with the iterator.
func (t *Transaction) NewIterator(ctx context.Context) (storage.Iterator, func(), error) {
	if t.root.isolation == RepeatableRead {
		return t.root.pool.acquire(ctx)
	}
	it, err := t.root.eng.Iterator()
	if err != nil {
		return nil, nil, fmt.Errorf("txn: new iterator: %w", err)
	}
	return it, func() { it.Close() }, nil
}

// ReadGet performs a point read through this transaction's read view
// (the live store for read-committed, the snapshot for repeatable-read),
// without consulting overlays — callers that need overlay-aware reads
// should go through GetColumn instead.
func (t *Transaction) ReadGet(key []byte) ([]byte, bool, error) {
	if t.root.snap != nil {
		return t.root.snap.Get(key)
	}
	return t.root.eng.Get(key)
}

// markTouched records that this transaction's commit will write
// (table, key), for the post-commit watch notification.
func (t *Transaction) markTouched(table, key string) {
	t.root.mu.Lock()
	t.root.touched[watchKey([]byte(table), []byte(key))] = struct{}{}
	t.root.mu.Unlock()
}

// PutColumns implements spec.md §4.4 "put_columns".
func (t *Transaction) PutColumns(table, key string, cols map[string]ColumnValue) {
	t.root.ov.PutColumns(table, key, cols)
	t.markTouched(table, key)
}

// DeleteColumns implements spec.md §4.4 "delete_columns".
func (t *Transaction) DeleteColumns(table, key string, cols []string) {
	t.root.ov.DeleteColumns(table, key, cols)
	t.markTouched(table, key)
}

// DeleteKey implements spec.md §4.4 "delete_key": enumerate every live
// column via GetColumns, tombstone each of them, then mark the key fully
// deleted.
func (t *Transaction) DeleteKey(ctx context.Context, table, key string) error {
	cols, err := t.GetColumns(ctx, table, key)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	t.root.ov.DeleteColumns(table, key, names)
	t.root.ov.MarkKeyDeleted(table, key)
	t.markTouched(table, key)
	return nil
}

// GetColumn implements the three-step visibility rule of spec.md §4.4 for
// a single (table, key, column).
func (t *Transaction) GetColumn(ctx context.Context, table, key, column string) ([]byte, bool, error) {
	ov := t.root.ov
	if ov.IsColumnDeleted(table, key, column) {
		return nil, false, nil
	}
	if cv, ok := ov.PendingColumn(table, key, column); ok {
		return cv.Value, true, nil
	}
	value, found, err := t.readLiveColumn(ctx, table, key, column)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	// Re-check the tombstone set: a partial delete recorded earlier in
	// this same transaction must still shadow the store's answer (spec.md
	// §4.4 step 3: "apply the column-tombstone check again").
	if ov.IsColumnDeleted(table, key, column) {
		return nil, false, nil
	}
	return value, true, nil
}

// readLiveColumn seeks to the newest physical version of (table, key,
// column) through this transaction's read view, ignoring overlays.
func (t *Transaction) readLiveColumn(ctx context.Context, table, key, column string) ([]byte, bool, error) {
	prefix := kvschema.ColumnPrefix(t.root.ksID, []byte(table), []byte(key), []byte(column))
	it, release, err := t.NewIterator(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()
	if err := it.Seek(prefix); err != nil {
		return nil, false, fmt.Errorf("txn: read column: %w", err)
	}
	if !it.Valid() || !bytes.HasPrefix(it.Key(), prefix) {
		return nil, false, nil
	}
	return append([]byte{}, it.Value()...), true, nil
}

// GetColumnValues projects GetColumn over a fixed column list (spec.md §4.5
// "get_slice_values" at the single-key granularity).
func (t *Transaction) GetColumnValues(ctx context.Context, table, key string, columns []string) ([]([]byte), error) {
	out := make([][]byte, len(columns))
	for i, col := range columns {
		v, ok, err := t.GetColumn(ctx, table, key, col)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = v
		}
	}
	return out, nil
}

// ColumnVersion is a live column's value plus the physical timestamp it
// was stored (or is pending) under.
type ColumnVersion struct {
	Value    []byte
	TSMicros int64
}

// GetColumns returns every live column of (table, key), merging the store
// with this transaction's added/deleted overlays. It is GetColumnsDetailed
// with timestamps discarded, for callers (DeleteKey, ExistsKey) that only
// need names and values.
func (t *Transaction) GetColumns(ctx context.Context, table, key string) (map[string][]byte, error) {
	detailed, err := t.GetColumnsDetailed(ctx, table, key)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(detailed))
	for name, cv := range detailed {
		out[name] = cv.Value
	}
	return out, nil
}

// GetColumnsDetailed is GetColumns plus each column's timestamp, for the
// planner's get_slice (spec.md §4.5's decode_ts parameter selects whether
// a caller wants this detail at all; GetColumns is built on this method and
// only drops the timestamps). The merge rule (store first
// occurrence per column wins, since the descending-timestamp encoding
// visits the newest version of each column first, then overlay writes
// shadow the store per spec.md §4.4 step 2/3) is identical either way.
func (t *Transaction) GetColumnsDetailed(ctx context.Context, table, key string) (map[string]ColumnVersion, error) {
	ov := t.root.ov
	out := make(map[string]ColumnVersion)
	if ov.IsKeyDeleted(table, key) {
		for name, cv := range ov.PendingColumnsForKey(table, key) {
			out[name] = ColumnVersion{Value: cv.Value, TSMicros: pendingTS(cv)}
		}
		return out, nil
	}

	prefix := kvschema.KeyPrefix(t.root.ksID, []byte(table), []byte(key))
	it, release, err := t.NewIterator(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	if err := it.Seek(prefix); err != nil {
		return nil, fmt.Errorf("txn: get columns: %w", err)
	}
	for it.Valid() && bytes.HasPrefix(it.Key(), prefix) {
		datum, err := kvschema.DecodeDatumKey(it.Key())
		if err != nil {
			return nil, fmt.Errorf("txn: get columns: %w", err)
		}
		name := string(datum.Column)
		if _, seen := out[name]; !seen && !ov.IsColumnDeleted(table, key, name) {
			out[name] = ColumnVersion{Value: append([]byte{}, it.Value()...), TSMicros: datum.TSMicros}
		}
		if err := it.Next(); err != nil {
			return nil, fmt.Errorf("txn: get columns: %w", err)
		}
	}
	for name, cv := range ov.PendingColumnsForKey(table, key) {
		out[name] = ColumnVersion{Value: cv.Value, TSMicros: pendingTS(cv)}
	}
	for name := range out {
		if ov.IsColumnDeleted(table, key, name) {
			delete(out, name)
		}
	}
	return out, nil
}

// pendingTS reports the timestamp an uncommitted overlay write would
// display: the caller-supplied per-column timestamp if one was given
// (display-only; txn.Commit does not honor it, see SPEC_FULL.md's
// timestamp-policy decision), or 0 while it still awaits a real commit
// timestamp.
func pendingTS(cv ColumnValue) int64 {
	if cv.TSMicros != nil {
		return *cv.TSMicros
	}
	return 0
}

// ExistsKey reports whether key has at least one live column in table.
func (t *Transaction) ExistsKey(ctx context.Context, table, key string) (bool, error) {
	cols, err := t.GetColumns(ctx, table, key)
	if err != nil {
		return false, err
	}
	return len(cols) > 0, nil
}

// AppendRawBatch queues write ops that bypass the overlay merge entirely,
// written verbatim at commit alongside the overlay-derived ops. This is
// the hook backup.Load uses (spec.md §4.6 "Load writes an incoming chunk
// into the current transaction's pending batch directly (not into the
// overlays)"), since a bulk load must honor the dump's embedded timestamps
// rather than being re-stamped with commit time the way ordinary writes
// are.
func (t *Transaction) AppendRawBatch(ops []storage.WriteOp) {
	t.root.mu.Lock()
	t.root.rawBatch = append(t.root.rawBatch, ops...)
	t.root.mu.Unlock()
}

// Commit implements spec.md §4.4's five commit steps for the outermost
// transaction; a nested Commit is a no-op beyond bookkeeping, since its
// writes already live in the shared overlays the outermost Commit will
// flush. Step 2 ("append a tombstone write") is realized as
// collectDeleteOps resolving each deleted column to its real physical
// key(s), not a delete at the commit timestamp — see collectDeleteOps for
// why a timestamp-at-now delete cannot remove an existing datum.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.depth > 0 {
		t.root.mgr.metrics.NestedCommits.Inc()
		return nil
	}
	root := t.root
	root.mu.Lock()
	defer root.mu.Unlock()
	if root.committed || root.aborted {
		return errs.ErrTransactionClosed
	}

	deleteOps, err := collectDeleteOps(root.eng, root.ksID, root.ov)
	if err != nil {
		root.aborted = true
		if root.snap != nil {
			root.snap.Release()
		}
		root.mgr.metrics.Aborts.Inc()
		return &errs.TransactionAbortedError{Cause: fmt.Errorf("txn: commit: %w", err)}
	}

	now := time.Now().UnixMicro()
	ops := buildCommitOps(root.ov, root.ksID, now)
	ops = append(ops, deleteOps...)
	ops = append(ops, root.rawBatch...)

	if err := root.eng.WriteBatch(ctx, ops, true); err != nil {
		root.aborted = true
		if root.snap != nil {
			root.snap.Release()
		}
		root.mgr.metrics.Aborts.Inc()
		return &errs.TransactionAbortedError{Cause: fmt.Errorf("txn: commit: %w", err)}
	}

	root.committed = true
	if root.snap != nil {
		root.snap.Release()
	}
	for k := range root.touched {
		table, key := splitWatchKey(k)
		root.mgr.notify([]byte(table), []byte(key))
	}
	if len(ops) > 0 {
		root.mgr.publish(CommitRecord{KsID: root.ksID, Ops: ops})
	}
	root.mgr.metrics.Commits.Inc()
	root.mgr.log.Debugw("commit", "ks_id", root.ksID, "ops", len(ops))
	return nil
}

// Abort implements spec.md §4.4 "Abort": discard overlays, release any
// snapshot, propagate the causing error. A nested Abort only discards the
// caller's own intent to proceed; because overlays are shared, any writes
// it already made through PutColumns/DeleteColumns remain visible to the
// parent, matching the documented nested-transaction limitation above.
func (t *Transaction) Abort(cause error) error {
	if t.depth > 0 {
		t.root.mgr.metrics.Aborts.Inc()
		if cause != nil {
			return &errs.TransactionAbortedError{Cause: cause}
		}
		return nil
	}
	root := t.root
	root.mu.Lock()
	defer root.mu.Unlock()
	if root.committed || root.aborted {
		return errs.ErrTransactionClosed
	}
	root.aborted = true
	if root.snap != nil {
		root.snap.Release()
	}
	root.mgr.metrics.Aborts.Inc()
	root.mgr.log.Debugw("abort", "ks_id", root.ksID, "cause", cause)
	if cause != nil {
		return &errs.TransactionAbortedError{Cause: cause}
	}
	return nil
}

// Watch registers this transaction's session for the optimistic-abort
// signal on (table, key); see Manager.Watch.
func (t *Transaction) Watch(table, key string) (<-chan struct{}, func()) {
	return t.root.mgr.Watch([]byte(table), []byte(key))
}

// buildCommitOps turns the Added overlay into physical Put ops, stamped at
// nowMicros per the commit timestamp policy (DESIGN.md). Deletes are handled
// separately by collectDeleteOps: a delete cannot be expressed as a put-style
// write at a fresh timestamp (see collectDeleteOps for why).
func buildCommitOps(ov *Overlays, ksID uint32, nowMicros int64) []storage.WriteOp {
	var ops []storage.WriteOp
	for table, byKey := range ov.Added {
		for key, cols := range byKey {
			for col, cv := range cols {
				dk := kvschema.DatumKey(ksID, []byte(table), []byte(key), []byte(col), nowMicros)
				ops = append(ops, storage.Put(dk, cv.Value))
			}
		}
	}
	return ops
}

// collectDeleteOps turns the Deleted overlay into physical Delete ops.
//
// A datum's physical key embeds the timestamp it was *written* at, encoded
// through the descending-complement suffix (kvschema.DatumKey); a delete
// issued at time.Now() only encodes to the same physical key as the live
// put if the two happen to share a timestamp, which in general they don't.
// Deleting at a freshly minted commit timestamp therefore removes a key
// that was never written — a no-op — while the real value's physical key
// survives untouched and keeps resurfacing as live on every later read.
// The only correct fix is to find the value's actual physical key(s) and
// delete those: seek every version still stored under the column's prefix
// (there may be more than one, since ordinary puts from different commits
// accumulate distinct physical versions rather than overwriting in place,
// per spec.md §3 invariant 2) and emit a Delete for each one found.
func collectDeleteOps(eng storage.Engine, ksID uint32, ov *Overlays) ([]storage.WriteOp, error) {
	var ops []storage.WriteOp
	for table, byKey := range ov.Deleted {
		for key, cols := range byKey {
			for col := range cols {
				prefix := kvschema.ColumnPrefix(ksID, []byte(table), []byte(key), []byte(col))
				err := eng.IterFrom(prefix, func(k, _ []byte) (bool, error) {
					if !bytes.HasPrefix(k, prefix) {
						return false, nil
					}
					ops = append(ops, storage.Delete(append([]byte{}, k...)))
					return true, nil
				})
				if err != nil {
					return nil, fmt.Errorf("txn: commit: scan deleted column %s/%s/%s: %w", table, key, col, err)
				}
			}
		}
	}
	return ops, nil
}

func splitWatchKey(k string) (table, key string) {
	i := bytes.IndexByte([]byte(k), 0x00)
	if i < 0 {
		return k, ""
	}
	return k[:i], k[i+1:]
}
