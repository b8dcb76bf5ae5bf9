package planner

import "bytes"

// KeyRange selects which row keys a get_slice/count_keys call visits
// (spec.md §4.5 "key_range is either Keys [k…] or a range {first, up_to}").
// Exactly one of Keys or the First/UpTo pair should be set; use the
// Keys/Range constructors rather than the zero value.
type KeyRange struct {
	keys     [][]byte
	isKeys   bool
	first    []byte
	upTo     []byte
}

// Keys builds a key_range that visits exactly the given keys, in the order
// given, skipping any that are fully deleted in the active transaction.
func Keys(keys [][]byte) KeyRange { return KeyRange{keys: keys, isKeys: true} }

// Range builds a half-open key_range [first, upTo). A nil first means "from
// the start of the table"; a nil upTo means "to the end of the table".
func Range(first, upTo []byte) KeyRange { return KeyRange{first: first, upTo: upTo} }

func (kr KeyRange) inBounds(key []byte) bool {
	if kr.first != nil && bytes.Compare(key, kr.first) < 0 {
		return false
	}
	if kr.upTo != nil && bytes.Compare(key, kr.upTo) >= 0 {
		return false
	}
	return true
}
