// Package kvschema fixes the one physical key layout the engine uses on
// top of the ordered backing store (spec.md §4.2): every logical
// (keyspace, table, key, column, timestamp) datum maps onto a single flat
// byte-string key built from the codec package's composable codecs.
//
// The layout mirrors the table-constant style of erigon-lib/kv/tables.go —
// a small set of typed constants plus deterministic encode/decode
// functions — generalized from that package's fixed table-name strings to
// a fully dynamic (keyspace, table) pair, since this engine has no
// compile-time-known table set.
package kvschema

import (
	"bytes"
	"math"

	"github.com/lexidb/lexidb/codec"
)

// MetadataKsID is the reserved ks_id devoted to keyspace metadata
// entries. Real keyspaces are allocated dense ids starting at 1 (see
// keyspace.Registry), so fixing every metadata key's leading four bytes
// to enc_u32_be(0) puts the entire metadata prefix strictly below every
// datum key of every real keyspace — comparison resolves on the ks_id
// field before either key's table/key/column bytes are ever reached,
// which is what spec.md §4.2's "single-byte tag below any ks_id range"
// is after; a literal single extra tag byte ahead of the ks_id field
// would not actually stay below small ks_ids, since enc_u32_be of any
// ks_id under 2^24 also begins with a 0x00 byte and the tag's second
// byte (the first byte of the metadata name) could still sort above or
// below an arbitrary table name's first byte. Reserving a whole ks_id
// avoids that collision entirely.
const MetadataKsID uint32 = 0

// ReservedEndOfDBKsID is the ks_id reserved to build the end-of-database
// sentinel: allocation starts at 1 and grows by one per registered
// keyspace, so no real keyspace reaches this id in practice
// (keyspace.Registry.Register does not itself check against it), and
// EndOfDBKey sorts after every datum in every real keyspace and every
// metadata entry.
const ReservedEndOfDBKsID uint32 = math.MaxUint32

// FirstRealKsID is the smallest id register_keyspace may hand out.
const FirstRealKsID uint32 = 1

// timestampComplement reinterprets a microsecond timestamp through
// codec.PositiveInt64ComplementCodec: timestamps are always non-negative
// and stay far below 1<<63 for the conceivable lifetime of this engine,
// so the descending encoding spec.md §4.2 specifies as
// u64_be(MAX_U64 - timestamp_us) is realized here as the existing
// int64-based complement codec rather than adding a parallel uint64
// variant.
var timestampComplement = codec.PositiveInt64ComplementCodec

// DatumKey encodes the physical key for a single (keyspace, table, key,
// column, timestamp) datum. tsMicros is microseconds since the Unix
// epoch; the stored byte string sorts newest-first among versions of the
// same (ks, table, key, column).
func DatumKey(ksID uint32, table, key, column []byte, tsMicros int64) []byte {
	out := make([]byte, 0, 4+len(table)+2+len(key)+2+len(column)+2+8)
	out = codec.Uint32Codec.Encode(out, ksID)
	out = codec.SelfDelimitedStringCodec.Encode(out, table)
	out = codec.SelfDelimitedStringCodec.Encode(out, key)
	out = codec.SelfDelimitedStringCodec.Encode(out, column)
	out = timestampComplement.Encode(out, tsMicros)
	return out
}

// Datum is a fully decoded physical key.
type Datum struct {
	KsID     uint32
	Table    []byte
	Key      []byte
	Column   []byte
	TSMicros int64
}

// DecodeDatumKey reverses DatumKey.
func DecodeDatumKey(b []byte) (Datum, error) {
	ksID, n1, err := codec.Uint32Codec.Decode(b)
	if err != nil {
		return Datum{}, err
	}
	b = b[n1:]
	table, n2, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Datum{}, err
	}
	b = b[n2:]
	key, n3, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Datum{}, err
	}
	b = b[n3:]
	column, n4, err := codec.SelfDelimitedStringCodec.Decode(b)
	if err != nil {
		return Datum{}, err
	}
	b = b[n4:]
	ts, _, err := timestampComplement.Decode(b)
	if err != nil {
		return Datum{}, err
	}
	return Datum{KsID: ksID, Table: table, Key: key, Column: column, TSMicros: ts}, nil
}

// TablePrefix is the prefix shared by every datum key in (ksID, table),
// used to bound a full-table scan.
func TablePrefix(ksID uint32, table []byte) []byte {
	out := make([]byte, 0, 4+len(table)+2)
	out = codec.Uint32Codec.Encode(out, ksID)
	out = codec.SelfDelimitedStringCodec.Encode(out, table)
	return out
}

// KeyPrefix is the prefix shared by every column/version of one row key.
func KeyPrefix(ksID uint32, table, key []byte) []byte {
	out := make([]byte, 0, 4+len(table)+2+len(key)+2)
	out = codec.Uint32Codec.Encode(out, ksID)
	out = codec.SelfDelimitedStringCodec.Encode(out, table)
	out = codec.SelfDelimitedStringCodec.Encode(out, key)
	return out
}

// ColumnPrefix is the prefix shared by every version of one (table, key,
// column) triple. Seeking to it and taking the first matching entry finds
// the live value, since the descending-timestamp suffix sorts the newest
// version first (spec.md §3 invariant 2).
func ColumnPrefix(ksID uint32, table, key, column []byte) []byte {
	out := make([]byte, 0, 4+len(table)+2+len(key)+2+len(column)+2)
	out = codec.Uint32Codec.Encode(out, ksID)
	out = codec.SelfDelimitedStringCodec.Encode(out, table)
	out = codec.SelfDelimitedStringCodec.Encode(out, key)
	out = codec.SelfDelimitedStringCodec.Encode(out, column)
	return out
}

// KeyspacePrefix is the prefix shared by every datum in a keyspace
// regardless of table, used to bound a whole-keyspace scan.
func KeyspacePrefix(ksID uint32) []byte {
	return codec.Uint32Codec.Encode(nil, ksID)
}

// EncodeTableSuccessor returns the smallest key lexicographically greater
// than any datum key in (ksID, table) — used by list_tables to skip
// straight to the next table without scanning every row (spec.md §4.2).
//
// A string P is not itself a valid upper bound for "every string with
// prefix P", since P is shorter than (and therefore sorts before) any
// non-empty extension of itself. The correct bound is the lexicographic
// successor of P: strip any trailing 0xFF bytes, then increment the last
// remaining byte. Any string with prefix P is strictly less than this
// value, because it must differ from P's successor at or before the
// incremented byte, and compares smaller there.
func EncodeTableSuccessor(ksID uint32, table []byte) []byte {
	return bytesSuccessor(TablePrefix(ksID, table))
}

// bytesSuccessor returns the lexicographically smallest byte string
// strictly greater than p and every string that has p as a prefix. If p
// consists entirely of 0xFF bytes (or is empty), no finite successor
// exists at this length; the caller's prefix construction (ks_id +
// self-delimited table name) never produces such a value in practice, so
// this falls back to appending a 0x00 byte to make progress rather than
// returning an error that every caller would otherwise have to thread
// through.
func bytesSuccessor(p []byte) []byte {
	out := append([]byte{}, p...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return append(out, 0x00)
}

// PrefixSuccessor exposes bytesSuccessor to callers outside this package
// (the backup dump cursor uses it to skip past every version of a single
// already-emitted column).
func PrefixSuccessor(prefix []byte) []byte { return bytesSuccessor(prefix) }

// NextKeyPrefix returns the smallest key strictly greater than any datum
// belonging to (ksID, table, key) — the "seek to (ks, table, succ(key),
// "", min_ts)" position spec.md §4.5 describes for SkipKey, used by the
// planner to skip past a key's remaining columns without visiting them.
func NextKeyPrefix(ksID uint32, table, key []byte) []byte {
	return bytesSuccessor(KeyPrefix(ksID, table, key))
}

// MetadataKey encodes a keyspace-metadata entry under the dedicated
// metadata prefix, disjoint from any datum-key prefix (spec.md §4.2).
func MetadataKey(name string) []byte {
	out := codec.Uint32Codec.Encode(nil, MetadataKsID)
	return codec.StringzCodec.Encode(out, name)
}

// MetadataPrefix bounds a scan over all keyspace-metadata entries.
func MetadataPrefix() []byte {
	return codec.Uint32Codec.Encode(nil, MetadataKsID)
}

// EndOfDBKey is the sentinel key positioned lexicographically after every
// datum key in every real keyspace, used to bound iterators that must
// not run past the end of the datum key space (spec.md §3 invariant 3).
func EndOfDBKey() []byte {
	return codec.Uint32Codec.Encode(nil, ReservedEndOfDBKsID)
}

// IsMetadataKey reports whether b falls in the keyspace-metadata prefix.
func IsMetadataKey(b []byte) bool {
	return HasPrefix(b, MetadataPrefix())
}

// HasPrefix is a small readability wrapper used throughout the planner
// when walking datum-key prefixes.
func HasPrefix(b, prefix []byte) bool { return bytes.HasPrefix(b, prefix) }
