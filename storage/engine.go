// Package storage defines the ordered key/value primitive the rest of the
// engine is built on (spec.md §4.3): point get/put/delete, atomic write
// batches, point-in-time snapshots, seekable iterators, and an
// approximate-size estimator for statistics. kvschema guarantees that
// every key this package ever sees compares byte-lexicographically, so an
// Engine implementation never needs a custom comparator.
package storage

import "context"

// WriteOp is one operation inside an atomic WriteBatch.
type WriteOp struct {
	Key   []byte
	Value []byte // nil means delete
}

// Put returns a WriteOp that sets key to value.
func Put(key, value []byte) WriteOp { return WriteOp{Key: key, Value: value} }

// Delete returns a WriteOp that removes key.
func Delete(key []byte) WriteOp { return WriteOp{Key: key, Value: nil} }

// ReadView is a read handle returned by Engine.Snapshot: a point-in-time
// read set that survives subsequent writes to the engine. Read-committed
// transactions do not use one; they read through Engine.Iterator.
type ReadView interface {
	// Get reads key as of this view's point in time.
	Get(key []byte) ([]byte, bool, error)
	// Iterator opens a new seekable cursor over this view.
	Iterator() (Iterator, error)
	// Release returns any resources (e.g. a bbolt read transaction) held
	// by this view. Safe to call more than once.
	Release() error
}

// Iterator walks keys in ascending byte order starting from wherever Seek
// last placed it (spec.md §4.3).
type Iterator interface {
	// Seek positions the iterator at the first key >= target.
	Seek(target []byte) error
	// Valid reports whether the iterator currently points at an entry.
	Valid() bool
	// Next advances to the following key. Valid() may become false.
	Next() error
	// Key returns the current key. Only valid while Valid() is true.
	Key() []byte
	// Value returns the current value. Only valid while Valid() is true.
	Value() []byte
	// Close releases the iterator's resources.
	Close() error
}

// Engine is the storage primitive contract every component above this
// package (kvschema, txn, planner, backup, replication) is written
// against. The concrete implementation lives in storage/boltengine.
type Engine interface {
	// Get reads the live value of key, if any.
	Get(key []byte) ([]byte, bool, error)
	// Put writes key=value outside of any batch; used by the keyspace
	// registry to persist its metadata entries, never by the transaction
	// engine's commit path or backup.Load, which go through WriteBatch for
	// atomicity.
	Put(key, value []byte) error
	// Delete removes key outside of any batch.
	Delete(key []byte) error
	// WriteBatch applies ops atomically. If sync is true the batch is
	// fsynced before WriteBatch returns (spec.md §4.4 commit step 4).
	WriteBatch(ctx context.Context, ops []WriteOp, sync bool) error
	// Snapshot opens a point-in-time ReadView.
	Snapshot() (ReadView, error)
	// Iterator opens an iterator against the live store, for
	// read-committed transactions that re-acquire their read view per
	// iterator rather than holding a snapshot.
	Iterator() (Iterator, error)
	// Exists reports whether key is present without paying for the cost
	// of copying its value out (spec.md §4.3 "mem(key)").
	Exists(key []byte) (bool, error)
	// ApproximateSize estimates the byte size of the key range [start,
	// end), for statistics (spec.md §4.3 "approximate_size(range)").
	ApproximateSize(start, end []byte) (uint64, error)
	// IterFrom opens an iterator seeked to prefix and invokes fn for
	// every key in turn until fn returns false or the iterator is
	// exhausted. It exists alongside the lower-level Iterator so callers
	// that just want "scan a prefix" don't have to manage cursor
	// lifetime by hand (spec.md §4.3 "iter_from(prefix, fn)").
	IterFrom(prefix []byte, fn func(key, value []byte) (bool, error)) error
	// Close releases the engine's resources (the open database file).
	Close() error
}

// Stats is a per-table statistics snapshot (SPEC_FULL.md's Engine.Stats()
// supplemented feature, built on the approximate_size primitive spec.md
// §4.3 names "for statistics" without specifying a reporting surface).
type Stats struct {
	Table       string
	KeyCount    uint64
	ApproxBytes uint64
}
