package planner

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/lexidb/lexidb/internal/metrics"
	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/txn"
)

// columnBudgetSlack is the slack (50 columns) of a per-key early-termination
// heuristic for column scans. No scan in this package reads it: buildRow
// loads every live column of a key through GetColumnsDetailed and then
// trims the result to maxColumns, so a key's scan never stops early.
const columnBudgetSlack = 50

// Column is one named, valued, timestamped column in a slice result.
type Column struct {
	Name     []byte
	Value    []byte
	TSMicros int64
}

// Row is one key's selected columns, as spec.md §4.5 describes get_slice's
// result shape: "(key, last_column, columns)".
type Row struct {
	Key        []byte
	LastColumn []byte
	Columns    []Column
}

// SliceResult is get_slice's full return value.
type SliceResult struct {
	LastKey []byte
	Rows    []Row
}

// GetSlice implements spec.md §4.5's get_slice: it resolves keyRange either
// by visiting exactly the given keys or by scanning a [first, upTo) range
// of the table, merges each key's columns against t's overlays, applies
// colSel and the maxColumns-per-key budget, and stops after maxKeys rows.
// decodeTS controls whether column timestamps are populated in the result;
// when false they are left zero, matching spec.md's "decode_ts" scan
// parameter.
func GetSlice(ctx context.Context, t *txn.Transaction, table string, keyRange KeyRange, colSel ColumnSelector, maxKeys, maxColumns int, decodeTS bool, m *metrics.Registry) (SliceResult, error) {
	if m == nil {
		m = metrics.Noop()
	}
	keys, err := resolveKeys(ctx, t, table, keyRange, maxKeys)
	if err != nil {
		return SliceResult{}, err
	}

	var result SliceResult
	for _, key := range keys {
		row, err := buildRow(ctx, t, table, key, colSel, maxColumns, decodeTS)
		if err != nil {
			return SliceResult{}, err
		}
		m.KeysScanned.Inc()
		if len(row.Columns) == 0 {
			continue
		}
		result.Rows = append(result.Rows, row)
		result.LastKey = key
		if maxKeys > 0 && len(result.Rows) >= maxKeys {
			break
		}
	}
	return result, nil
}

// GetSliceValues projects GetSlice over a fixed column list (spec.md §4.5
// "get_slice_values is a projection of get_slice over a fixed column
// list").
func GetSliceValues(ctx context.Context, t *txn.Transaction, table string, keyRange KeyRange, columns [][]byte, maxKeys int, m *metrics.Registry) (SliceResult, error) {
	return GetSlice(ctx, t, table, keyRange, SelectColumns(columns), maxKeys, len(columns), false, m)
}

func buildRow(ctx context.Context, t *txn.Transaction, table string, key []byte, colSel ColumnSelector, maxColumns int, decodeTS bool) (Row, error) {
	detailed, err := t.GetColumnsDetailed(ctx, table, string(key))
	if err != nil {
		return Row{}, fmt.Errorf("planner: get_slice: %w", err)
	}
	names := make([][]byte, 0, len(detailed))
	for name := range detailed {
		nb := []byte(name)
		if colSel.Matches(nb) {
			names = append(names, nb)
		}
	}
	sort.Slice(names, func(i, j int) bool { return bytes.Compare(names[i], names[j]) < 0 })
	if colSel.Reverse() {
		for l, r := 0, len(names)-1; l < r; l, r = l+1, r-1 {
			names[l], names[r] = names[r], names[l]
		}
	}
	if maxColumns > 0 && len(names) > maxColumns {
		names = names[:maxColumns]
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		cv := detailed[string(name)]
		ts := int64(0)
		if decodeTS {
			ts = cv.TSMicros
		}
		cols[i] = Column{Name: name, Value: cv.Value, TSMicros: ts}
	}
	row := Row{Key: key, Columns: cols}
	if len(cols) > 0 {
		row.LastColumn = cols[len(cols)-1].Name
	}
	return row, nil
}

// resolveKeys turns a KeyRange into a concrete key list: for Keys mode
// that's the given list, in the given order and with any duplicates kept,
// minus anything fully deleted in the overlay; for Range mode it's a
// sorted, deduplicated merge of a single store scan
// (skipping straight past a key's remaining columns once it's been seen,
// per spec.md §4.5's SkipKey) with any keys the overlay has added inside
// the range that don't exist in the store yet.
func resolveKeys(ctx context.Context, t *txn.Transaction, table string, kr KeyRange, maxKeys int) ([][]byte, error) {
	if kr.isKeys {
		out := make([][]byte, 0, len(kr.keys))
		for _, k := range kr.keys {
			if t.Overlays().IsKeyDeleted(table, string(k)) {
				continue
			}
			out = append(out, k)
		}
		return out, nil
	}

	storeKeys, err := scanTableKeys(ctx, t, table, kr, maxKeys)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(storeKeys))
	out := make([][]byte, 0, len(storeKeys))
	for _, k := range storeKeys {
		seen[string(k)] = struct{}{}
		out = append(out, k)
	}

	ov := t.Overlays()
	if byKey, ok := ov.AddedKeys[table]; ok {
		for k := range byKey {
			kb := []byte(k)
			if !kr.inBounds(kb) {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			out = append(out, kb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out, nil
}

// scanTableKeys streams distinct row keys in [first, upTo) by seeking past
// each key's full column block once it has been identified, rather than
// visiting every column of every key (spec.md §4.5 SkipKey).
func scanTableKeys(ctx context.Context, t *txn.Transaction, table string, kr KeyRange, maxKeys int) ([][]byte, error) {
	it, release, err := t.NewIterator(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tablePrefix := kvschema.TablePrefix(t.KsID(), []byte(table))
	start := tablePrefix
	if kr.first != nil {
		start = kvschema.KeyPrefix(t.KsID(), []byte(table), kr.first)
	}
	if err := it.Seek(start); err != nil {
		return nil, fmt.Errorf("planner: scan keys: %w", err)
	}

	var out [][]byte
	for it.Valid() {
		k := it.Key()
		if !bytes.HasPrefix(k, tablePrefix) {
			break
		}
		datum, err := kvschema.DecodeDatumKey(k)
		if err != nil {
			return nil, fmt.Errorf("planner: scan keys: %w", err)
		}
		if kr.upTo != nil && bytes.Compare(datum.Key, kr.upTo) >= 0 {
			break
		}
		if !t.Overlays().IsKeyDeleted(table, string(datum.Key)) {
			out = append(out, append([]byte{}, datum.Key...))
		}
		if maxKeys > 0 && len(out) > maxKeys {
			break
		}
		if err := it.Seek(kvschema.NextKeyPrefix(t.KsID(), []byte(table), datum.Key)); err != nil {
			return nil, fmt.Errorf("planner: scan keys: %w", err)
		}
	}
	return out, nil
}
