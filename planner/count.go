package planner

import (
	"context"

	"github.com/lexidb/lexidb/txn"
)

// CountKeys implements spec.md §4.5 "count_keys": the same table-range
// scan as get_slice but counting distinct keys without materialising
// columns, plus the overlay's newly added keys that fall in range and
// weren't already counted from the store.
func CountKeys(ctx context.Context, t *txn.Transaction, table string, kr KeyRange) (int, error) {
	keys, err := resolveKeys(ctx, t, table, kr, 0)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
