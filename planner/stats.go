package planner

import (
	"bytes"
	"fmt"

	"github.com/lexidb/lexidb/internal/metrics"
	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/storage"
)

// TableStats reports a storage.Stats for every table list_tables finds in
// ksID: a distinct-key count and approximate_size over the table's full
// byte range (spec.md §4.3's "for statistics", SPEC_FULL.md's
// Engine.Stats() supplemented feature). It reads the live store directly,
// the same way ListTables does, since statistics are a store fact rather
// than something a single transaction's overlay should influence.
func TableStats(eng storage.Engine, ksID uint32, m *metrics.Registry) ([]storage.Stats, error) {
	tables, err := ListTables(eng, ksID)
	if err != nil {
		return nil, fmt.Errorf("planner: stats: %w", err)
	}

	out := make([]storage.Stats, 0, len(tables))
	for _, table := range tables {
		keyCount, err := countDistinctKeys(eng, ksID, table)
		if err != nil {
			return nil, fmt.Errorf("planner: stats: %w", err)
		}
		start := kvschema.TablePrefix(ksID, table)
		end := kvschema.EncodeTableSuccessor(ksID, table)
		size, err := eng.ApproximateSize(start, end)
		if err != nil {
			return nil, fmt.Errorf("planner: stats: %w", err)
		}
		m.ApproxSizeCalls.Inc()
		out = append(out, storage.Stats{
			Table:       string(table),
			KeyCount:    keyCount,
			ApproxBytes: size,
		})
	}
	return out, nil
}

// countDistinctKeys walks table's datum keys one key at a time, seeking
// past every column/version of the current key the same way
// scanTableKeys does, so duplicate (column, timestamp) versions of one
// logical key are never double-counted.
func countDistinctKeys(eng storage.Engine, ksID uint32, table []byte) (uint64, error) {
	tablePrefix := kvschema.TablePrefix(ksID, table)
	it, err := eng.Iterator()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	if err := it.Seek(tablePrefix); err != nil {
		return 0, err
	}

	var count uint64
	for it.Valid() {
		k := it.Key()
		if !bytes.HasPrefix(k, tablePrefix) {
			break
		}
		datum, err := kvschema.DecodeDatumKey(k)
		if err != nil {
			return 0, err
		}
		count++
		if err := it.Seek(kvschema.NextKeyPrefix(ksID, table, datum.Key)); err != nil {
			return 0, err
		}
	}
	return count, nil
}
