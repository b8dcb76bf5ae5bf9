package planner

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/storage"
)

// ListTables implements spec.md §4.5 "list_tables(ks): walks by repeatedly
// seeking to table_successor(ks_id, last_table), decoding the table
// component of the first datum key found, until the scan escapes the
// keyspace." It reads the live store directly (table existence is a store
// fact, not something overlays influence independently — a transaction
// that has only added keys to a brand-new table already recorded that
// table name in its own added_keys, which callers needing pending tables
// should consult separately).
func ListTables(eng storage.Engine, ksID uint32) ([][]byte, error) {
	var tables [][]byte
	ksPrefix := kvschema.KeyspacePrefix(ksID)
	seek := ksPrefix
	for {
		var found []byte
		err := eng.IterFrom(seek, func(key, _ []byte) (bool, error) {
			if !bytes.HasPrefix(key, ksPrefix) {
				return false, nil
			}
			found = append([]byte{}, key...)
			return false, nil
		})
		if err != nil {
			return nil, fmt.Errorf("planner: list_tables: %w", err)
		}
		if found == nil {
			break
		}
		datum, err := kvschema.DecodeDatumKey(found)
		if err != nil {
			return nil, fmt.Errorf("planner: list_tables: %w", err)
		}
		tables = append(tables, append([]byte{}, datum.Table...))
		seek = kvschema.EncodeTableSuccessor(ksID, datum.Table)
	}
	return tables, nil
}
