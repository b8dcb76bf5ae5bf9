package backup

import (
	"bytes"
	"fmt"

	"github.com/lexidb/lexidb/codec"
	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/planner"
	"github.com/lexidb/lexidb/storage"
)

// Record is one (table, key, column, timestamp, value) entry as it
// appears inside a dump chunk. The table is carried per record, not just
// per cursor, because a chunk may span a table boundary when one table's
// remaining bytes don't fill it (spec.md §4.6 "when a table's scan
// finishes, the cursor advances to the next table").
type Record struct {
	Table    []byte
	Key      []byte
	Column   []byte
	TSMicros int64
	Value    []byte
}

// encodeRecord appends a self-delimited (table, key, column, timestamp,
// value) record to out — the same composable-codec style the datum-key
// schema itself uses (spec.md §4.6 "invoking the same fold_over_data with
// a callback that appends a self-delimited ... record").
func encodeRecord(out []byte, r Record) []byte {
	out = codec.SelfDelimitedStringCodec.Encode(out, r.Table)
	out = codec.SelfDelimitedStringCodec.Encode(out, r.Key)
	out = codec.SelfDelimitedStringCodec.Encode(out, r.Column)
	out = codec.PositiveInt64Codec.Encode(out, r.TSMicros)
	out = codec.SelfDelimitedStringCodec.Encode(out, r.Value)
	return out
}

func decodeRecord(b []byte) (Record, int, error) {
	table, n0, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Record{}, 0, err
	}
	b = b[n0:]
	key, n1, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Record{}, 0, err
	}
	b = b[n1:]
	column, n2, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Record{}, 0, err
	}
	b = b[n2:]
	ts, n3, err := codec.PositiveInt64Codec.Decode(b)
	if err != nil {
		return Record{}, 0, err
	}
	b = b[n3:]
	value, n4, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Record{}, 0, err
	}
	return Record{Table: table, Key: key, Column: column, TSMicros: ts, Value: value}, n0 + n1 + n2 + n3 + n4, nil
}

// DecodeChunk decodes every record out of a dump chunk, in order. Load
// uses this to turn a chunk back into write ops.
func DecodeChunk(chunk []byte) ([]Record, error) {
	var records []Record
	for len(chunk) > 0 {
		r, n, err := decodeRecord(chunk)
		if err != nil {
			return nil, fmt.Errorf("backup: decode chunk: %w", err)
		}
		records = append(records, r)
		chunk = chunk[n:]
	}
	return records, nil
}

// Dump produces the next chunk of a full-keyspace export. cur should be
// the zero Cursor on the first call and the cursor returned by the
// previous call on every subsequent call, until done is true. It walks
// tables in a fixed (ascending) order, reads directly off the live store
// (dump is a server-level operation, not scoped to one transaction's
// overlays), and emits only each column's live (first-occurring, newest)
// version — the same dedup rule txn.Transaction.GetColumnsDetailed applies.
func Dump(eng storage.Engine, ksID uint32, cur Cursor, maxChunk int) (chunk []byte, next Cursor, done bool, err error) {
	if maxChunk <= 0 {
		maxChunk = MaxChunk
	}
	tables := cur.RemainingTables
	if tables == nil && cur.Key == nil && cur.Column == nil {
		tables, err = planner.ListTables(eng, ksID)
		if err != nil {
			return nil, Cursor{}, false, fmt.Errorf("backup: dump: %w", err)
		}
	}

	var buf []byte
	afterKey, afterCol := cur.Key, cur.Column
	for len(tables) > 0 {
		table := tables[0]
		var lastKey, lastCol []byte
		var tableDone bool
		buf, lastKey, lastCol, tableDone, err = dumpTable(eng, ksID, table, afterKey, afterCol, buf, maxChunk)
		if err != nil {
			return nil, Cursor{}, false, err
		}
		if !tableDone {
			return buf, Cursor{RemainingTables: tables, Key: lastKey, Column: lastCol}, false, nil
		}
		tables = tables[1:]
		afterKey, afterCol = nil, nil
		if len(buf) >= maxChunk {
			return buf, Cursor{RemainingTables: tables}, false, nil
		}
	}
	return buf, Cursor{}, true, nil
}

// dumpTable streams (key, column, value) triples of one table into buf,
// starting strictly after (afterKey, afterCol) when resuming, until the
// table is exhausted or buf crosses maxChunk bytes.
func dumpTable(eng storage.Engine, ksID uint32, table, afterKey, afterCol []byte, buf []byte, maxChunk int) ([]byte, []byte, []byte, bool, error) {
	it, err := eng.Iterator()
	if err != nil {
		return nil, nil, nil, false, fmt.Errorf("backup: dump table %q: %w", table, err)
	}
	defer it.Close()

	prefix := kvschema.TablePrefix(ksID, table)
	seek := prefix
	if afterKey != nil {
		seek = kvschema.PrefixSuccessor(kvschema.ColumnPrefix(ksID, table, afterKey, afterCol))
	}
	if err := it.Seek(seek); err != nil {
		return nil, nil, nil, false, fmt.Errorf("backup: dump table %q: %w", table, err)
	}

	var curKey []byte
	seenCols := make(map[string]struct{})
	var lastKey, lastCol []byte
	for it.Valid() && bytes.HasPrefix(it.Key(), prefix) {
		datum, err := kvschema.DecodeDatumKey(it.Key())
		if err != nil {
			return nil, nil, nil, false, fmt.Errorf("backup: dump table %q: %w", table, err)
		}
		if !bytes.Equal(datum.Key, curKey) {
			curKey = append([]byte{}, datum.Key...)
			seenCols = make(map[string]struct{})
		}
		name := string(datum.Column)
		if _, dup := seenCols[name]; dup {
			if err := it.Next(); err != nil {
				return nil, nil, nil, false, err
			}
			continue
		}
		seenCols[name] = struct{}{}
		buf = encodeRecord(buf, Record{
			Table:    table,
			Key:      datum.Key,
			Column:   datum.Column,
			TSMicros: datum.TSMicros,
			Value:    append([]byte{}, it.Value()...),
		})
		lastKey, lastCol = datum.Key, datum.Column
		if len(buf) >= maxChunk {
			return buf, lastKey, lastCol, false, nil
		}
		if err := it.Next(); err != nil {
			return nil, nil, nil, false, err
		}
	}
	return buf, nil, nil, true, nil
}
