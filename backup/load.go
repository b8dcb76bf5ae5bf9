package backup

import (
	"fmt"

	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/storage"
	"github.com/lexidb/lexidb/txn"
)

// Load decodes an incoming dump chunk and appends it to tx's pending raw
// batch (spec.md §4.6 "Load writes an incoming chunk into the current
// transaction's pending batch directly (not into the overlays)"), honoring
// each record's embedded timestamp rather than re-stamping with commit
// time. The caller is still responsible for calling tx.Commit to make the
// load durable; Load is idempotent only if the source dump is consistent,
// per spec.md §8 — loading the same chunk twice re-writes the same
// physical keys with the same values, which is a no-op against an
// unmodified store but not against one that has since been mutated
// out-of-band.
func Load(tx *txn.Transaction, chunk []byte) error {
	records, err := DecodeChunk(chunk)
	if err != nil {
		return fmt.Errorf("backup: load: %w", err)
	}
	ops := make([]storage.WriteOp, 0, len(records))
	for _, r := range records {
		dk := kvschema.DatumKey(tx.KsID(), r.Table, r.Key, r.Column, r.TSMicros)
		ops = append(ops, storage.Put(dk, r.Value))
	}
	tx.AppendRawBatch(ops)
	return nil
}
