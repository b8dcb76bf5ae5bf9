// Package planner implements the range/slice/count query operations of
// spec.md §4.5: get_slice, get_slice_values, count_keys and list_tables.
// GetSlice and CountKeys resolve keys with one store key scan merged with
// the keys a transaction's overlay has added, then read each key's columns
// through the transaction; ListTables reads the store directly.
package planner

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// smallListThreshold is the cutover spec.md §4.5 names: "Small explicit
// list (< 5): linear substring comparison. Larger list: hash-set
// membership." xxhash is used for the hash-set form instead of Go's
// randomized built-in map seed so column-selection predicates are
// reproducible across runs (matters for replaying a fixed test corpus).
const smallListThreshold = 5

// ColumnSelector is a compiled column-selection predicate (spec.md §4.5
// "Column-selection predicates are compiled once"). Build one with
// SelectAll, SelectColumns or SelectRange.
type ColumnSelector struct {
	all        bool
	list       [][]byte
	hashSet    map[uint64]struct{}
	rangeFirst []byte
	rangeUpTo  []byte
	rangeMode  bool
	reverse    bool
}

// SelectAll matches every column (spec.md §4.5 column_range "All").
func SelectAll() ColumnSelector { return ColumnSelector{all: true} }

// SelectColumns compiles an explicit column list, choosing linear
// comparison or hash-set membership based on its size.
func SelectColumns(columns [][]byte) ColumnSelector {
	cs := ColumnSelector{list: columns}
	if len(columns) >= smallListThreshold {
		cs.hashSet = make(map[uint64]struct{}, len(columns))
		for _, c := range columns {
			cs.hashSet[xxhash.Sum64(c)] = struct{}{}
		}
	}
	return cs
}

// SelectRange compiles a [first, upTo) column-name range. A nil bound is
// unbounded on that side. reverse requests descending column order in the
// final result (spec.md §4.5 column_range "ColumnRange {first, up_to,
// reverse}").
func SelectRange(first, upTo []byte, reverse bool) ColumnSelector {
	return ColumnSelector{rangeMode: true, rangeFirst: first, rangeUpTo: upTo, reverse: reverse}
}

// Matches reports whether column passes this selector.
func (cs ColumnSelector) Matches(column []byte) bool {
	switch {
	case cs.all:
		return true
	case cs.rangeMode:
		if cs.rangeFirst != nil && bytes.Compare(column, cs.rangeFirst) < 0 {
			return false
		}
		if cs.rangeUpTo != nil && bytes.Compare(column, cs.rangeUpTo) >= 0 {
			return false
		}
		return true
	case cs.hashSet != nil:
		_, ok := cs.hashSet[xxhash.Sum64(column)]
		return ok
	default:
		for _, c := range cs.list {
			if bytes.Equal(c, column) {
				return true
			}
		}
		return false
	}
}

// Reverse reports whether the caller asked for descending column order.
func (cs ColumnSelector) Reverse() bool { return cs.reverse }
