// Package keyspace implements register_keyspace and the process-wide
// keyspace id map (spec.md §3, §5): dense integer ids assigned at first
// registration, persisted in the metadata prefix kvschema reserves, and
// guarded by a read/write lock: lookups share the read lock, and
// registration takes the write lock. Reads are not lock-free; a lookup
// waits while a registration holds the write lock.
package keyspace

import (
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/lexidb/lexidb/codec"
	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/storage"
)

// entry is one registered keyspace, ordered by Name so List() can return
// keyspaces in ascending byte order without a separate sort pass.
type entry struct {
	Name string
	ID   uint32
}

func lessByName(a, b entry) bool { return a.Name < b.Name }

// Registry is the process-wide keyspace id map. byID and byName are kept
// in sync under mu; lookups take mu's read lock, so they never block each
// other, but they do wait while Register holds the write lock.
type Registry struct {
	eng storage.Engine

	mu     sync.RWMutex
	byName *btree.BTreeG[entry]
	byID   map[uint32]string
	nextID uint32
}

// Open loads any previously persisted keyspaces from eng's metadata
// prefix and returns a ready Registry.
func Open(eng storage.Engine) (*Registry, error) {
	r := &Registry{
		eng:    eng,
		byName: btree.NewG(32, lessByName),
		byID:   make(map[uint32]string),
		nextID: kvschema.FirstRealKsID,
	}
	err := eng.IterFrom(kvschema.MetadataPrefix(), func(key, value []byte) (bool, error) {
		if !kvschema.IsMetadataKey(key) {
			return false, nil
		}
		name, id, err := decodeMetadataEntry(key, value)
		if err != nil {
			return false, err
		}
		r.byName.ReplaceOrInsert(entry{Name: name, ID: id})
		r.byID[id] = name
		if id >= r.nextID {
			r.nextID = id + 1
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("keyspace: load registry: %w", err)
	}
	return r, nil
}

func decodeMetadataEntry(key, value []byte) (string, uint32, error) {
	// kvschema.MetadataKey encodes enc_u32_be(0) ∥ stringz(name); the
	// name is also the stringz-encoded trailer of key itself, so we
	// decode it back out rather than threading it through separately.
	if len(key) < 4 {
		return "", 0, fmt.Errorf("keyspace: malformed metadata key")
	}
	nameBytes := key[4:]
	if len(nameBytes) > 0 && nameBytes[len(nameBytes)-1] == 0x00 {
		nameBytes = nameBytes[:len(nameBytes)-1]
	}
	id, n, err := codec.Uint32Codec.Decode(value)
	if err != nil || n != len(value) {
		return "", 0, fmt.Errorf("keyspace: malformed metadata value for %q", nameBytes)
	}
	return string(nameBytes), id, nil
}

func encodeMetadataValue(id uint32) []byte {
	return codec.Uint32Codec.Encode(nil, id)
}

// Lookup returns the id of an already-registered keyspace.
func (r *Registry) Lookup(name string) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName.Get(entry{Name: name})
	return e.ID, ok
}

// Name returns the name a keyspace id was registered under.
func (r *Registry) Name(id uint32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[id]
	return name, ok
}

// Register assigns a dense id to name if it isn't already registered,
// persists the mapping, and returns the id. Idempotent: registering an
// already-known name returns its existing id without writing anything.
func (r *Registry) Register(name string) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byName.Get(entry{Name: name}); ok {
		return e.ID, nil
	}

	id := r.nextID
	if err := r.eng.Put(kvschema.MetadataKey(name), encodeMetadataValue(id)); err != nil {
		return 0, fmt.Errorf("keyspace: persist %q: %w", name, err)
	}
	r.byName.ReplaceOrInsert(entry{Name: name, ID: id})
	r.byID[id] = name
	r.nextID++
	return id, nil
}

// List returns every registered keyspace name in ascending byte order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, r.byName.Len())
	r.byName.Ascend(func(e entry) bool {
		names = append(names, e.Name)
		return true
	})
	return names
}
