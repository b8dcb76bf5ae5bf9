package txn

// ColumnValue is a pending write: a value plus an optional caller-supplied
// timestamp. Commit stamps every added column with the commit time whether
// or not TSMicros is set; TSMicros is only reported as the pending
// timestamp before commit — see the timestamp policy decision in DESIGN.md.
type ColumnValue struct {
	Value    []byte
	TSMicros *int64
}

// Overlays holds the five per-transaction buffers spec.md §4.4 names.
// Nested transactions share a single *Overlays with their outermost
// ancestor (spec.md §4.4 "shares all overlays with the parent, not
// copy-on-write"), so every map here is created once, at the outermost
// Begin, and never copied.
type Overlays struct {
	// AddedKeys holds keys introduced by this transaction, by table.
	AddedKeys map[string]map[string]struct{}
	// DeletedKeys holds keys fully deleted by this transaction, by table.
	DeletedKeys map[string]map[string]struct{}
	// Added holds pending column writes: table -> key -> column -> value.
	Added map[string]map[string]map[string]ColumnValue
	// Deleted holds pending column tombstones: table -> key -> column set.
	Deleted map[string]map[string]map[string]struct{}
}

func newOverlays() *Overlays {
	return &Overlays{
		AddedKeys:   make(map[string]map[string]struct{}),
		DeletedKeys: make(map[string]map[string]struct{}),
		Added:       make(map[string]map[string]map[string]ColumnValue),
		Deleted:     make(map[string]map[string]map[string]struct{}),
	}
}

func (o *Overlays) addedKeySet(table string) map[string]struct{} {
	s, ok := o.AddedKeys[table]
	if !ok {
		s = make(map[string]struct{})
		o.AddedKeys[table] = s
	}
	return s
}

func (o *Overlays) deletedKeySet(table string) map[string]struct{} {
	s, ok := o.DeletedKeys[table]
	if !ok {
		s = make(map[string]struct{})
		o.DeletedKeys[table] = s
	}
	return s
}

func (o *Overlays) addedCols(table, key string) map[string]ColumnValue {
	byKey, ok := o.Added[table]
	if !ok {
		byKey = make(map[string]map[string]ColumnValue)
		o.Added[table] = byKey
	}
	cols, ok := byKey[key]
	if !ok {
		cols = make(map[string]ColumnValue)
		byKey[key] = cols
	}
	return cols
}

func (o *Overlays) deletedCols(table, key string) map[string]struct{} {
	byKey, ok := o.Deleted[table]
	if !ok {
		byKey = make(map[string]map[string]struct{})
		o.Deleted[table] = byKey
	}
	cols, ok := byKey[key]
	if !ok {
		cols = make(map[string]struct{})
		byKey[key] = cols
	}
	return cols
}

// PutColumns implements spec.md §4.4 "put_columns": the key is marked
// added (and un-marked deleted), each written column is un-marked
// deleted, and the columns are merged into the added overlay.
func (o *Overlays) PutColumns(table, key string, cols map[string]ColumnValue) {
	o.addedKeySet(table)[key] = struct{}{}
	delete(o.deletedKeySet(table), key)

	deleted := o.deletedCols(table, key)
	added := o.addedCols(table, key)
	for name, cv := range cols {
		delete(deleted, name)
		added[name] = cv
	}
}

// DeleteColumns implements spec.md §4.4 "delete_columns": the named
// columns are dropped from the added overlay and recorded as tombstones;
// if that empties the key's added-column set, the key is also dropped
// from added_keys (but is NOT implicitly added to deleted_keys — only
// delete_key does that).
func (o *Overlays) DeleteColumns(table, key string, cols []string) {
	added := o.addedCols(table, key)
	deleted := o.deletedCols(table, key)
	for _, name := range cols {
		delete(added, name)
		deleted[name] = struct{}{}
	}
	if len(added) == 0 {
		delete(o.addedKeySet(table), key)
	}
}

// MarkKeyDeleted adds key to deleted_keys[table], per spec.md §4.4
// "delete_key ... also adds key to deleted_keys[table]". The caller
// (Transaction.DeleteKey) is responsible for first turning every live
// column into a tombstone via DeleteColumns.
func (o *Overlays) MarkKeyDeleted(table, key string) {
	o.deletedKeySet(table)[key] = struct{}{}
	delete(o.addedKeySet(table), key)
}

// IsColumnDeleted reports whether column has been tombstoned for
// (table, key) in this transaction.
func (o *Overlays) IsColumnDeleted(table, key, column string) bool {
	byKey, ok := o.Deleted[table]
	if !ok {
		return false
	}
	cols, ok := byKey[key]
	if !ok {
		return false
	}
	_, deleted := cols[column]
	return deleted
}

// PendingColumn returns the pending value for (table, key, column) if
// one was added in this transaction.
func (o *Overlays) PendingColumn(table, key, column string) (ColumnValue, bool) {
	byKey, ok := o.Added[table]
	if !ok {
		return ColumnValue{}, false
	}
	cols, ok := byKey[key]
	if !ok {
		return ColumnValue{}, false
	}
	cv, ok := cols[column]
	return cv, ok
}

// PendingColumnsForKey returns every column this transaction has pending
// for (table, key), keyed by column name.
func (o *Overlays) PendingColumnsForKey(table, key string) map[string]ColumnValue {
	byKey, ok := o.Added[table]
	if !ok {
		return nil
	}
	return byKey[key]
}

// IsKeyDeleted reports whether key was fully deleted in this transaction.
func (o *Overlays) IsKeyDeleted(table, key string) bool {
	s, ok := o.DeletedKeys[table]
	if !ok {
		return false
	}
	_, deleted := s[key]
	return deleted
}
