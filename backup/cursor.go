// Package backup implements spec.md §4.6's dump/load/cursor contract: a
// chunked, resumable full-keyspace export built on the same table-ordered
// walk the planner uses, and a load path that writes straight into a
// transaction's pending batch rather than through the overlays.
package backup

import (
	"fmt"

	"github.com/lexidb/lexidb/codec"
)

// MaxChunk is Dump's default chunk threshold (65 536 bytes). Dump ends a
// chunk once it reaches the threshold, so a chunk can exceed it by the
// last record added.
const MaxChunk = 65536

// Cursor is the opaque-to-the-client resume position spec.md §3 names:
// "(remaining_tables: [table], key: bytes, column: bytes)". RemainingTables
// is nil on the very first call, meaning "not yet initialised — discover
// the table list".
type Cursor struct {
	RemainingTables [][]byte
	Key             []byte
	Column          []byte
}

// Done reports whether this cursor has no remaining tables and no resume
// position. The zero Cursor, which Dump treats as the start of a new dump,
// also reports true; Dump's done result is what marks a completed dump.
func (c Cursor) Done() bool { return len(c.RemainingTables) == 0 && c.Key == nil && c.Column == nil }

// Encode serialises the cursor to the opaque byte string clients carry
// between calls, using the same self-delimited codec the datum-key schema
// itself is built from (spec.md §4.1).
func (c Cursor) Encode() []byte {
	out := codec.PositiveInt64Codec.Encode(nil, int64(len(c.RemainingTables)))
	for _, t := range c.RemainingTables {
		out = codec.SelfDelimitedStringCodec.Encode(out, t)
	}
	out = codec.SelfDelimitedStringCodec.Encode(out, c.Key)
	out = codec.SelfDelimitedStringCodec.Encode(out, c.Column)
	return out
}

// DecodeCursor reverses Encode.
func DecodeCursor(b []byte) (Cursor, error) {
	n, used, err := codec.PositiveInt64Codec.Decode(b)
	if err != nil {
		return Cursor{}, fmt.Errorf("backup: decode cursor: %w", err)
	}
	b = b[used:]
	tables := make([][]byte, 0, n)
	for i := int64(0); i < n; i++ {
		t, used, err := codec.SelfDelimitedStringCodec.Decode(b)
		if err != nil {
			return Cursor{}, fmt.Errorf("backup: decode cursor table %d: %w", i, err)
		}
		tables = append(tables, t)
		b = b[used:]
	}
	key, used, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Cursor{}, fmt.Errorf("backup: decode cursor key: %w", err)
	}
	b = b[used:]
	column, _, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Cursor{}, fmt.Errorf("backup: decode cursor column: %w", err)
	}
	if len(key) == 0 {
		key = nil
	}
	if len(column) == 0 {
		column = nil
	}
	return Cursor{RemainingTables: tables, Key: key, Column: column}, nil
}
