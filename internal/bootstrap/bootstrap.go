// Package bootstrap wires together the pieces every cmd/* binary needs to
// open an existing lexidb data directory: the bolt-backed storage engine,
// the keyspace registry, the transaction manager, and the ambient
// logging/metrics facades. Each cmd/* main stays a thin cobra layer over
// this, matching spec.md §6's "named only" scope for the CLI collaborators.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexidb/lexidb/internal/config"
	"github.com/lexidb/lexidb/internal/logging"
	"github.com/lexidb/lexidb/internal/metrics"
	"github.com/lexidb/lexidb/keyspace"
	"github.com/lexidb/lexidb/planner"
	"github.com/lexidb/lexidb/storage"
	"github.com/lexidb/lexidb/storage/boltengine"
	"github.com/lexidb/lexidb/txn"
)

// Engine bundles the opened storage/keyspace/transaction stack plus the
// ambient facades, ready for a cmd/* binary to drive.
type Engine struct {
	Log      *logging.Logger
	Metrics  *metrics.Registry
	Bolt     *boltengine.Engine
	Registry *keyspace.Registry
	Txn      *txn.Manager
}

// Open loads cfg.Storage.Dir and returns a ready Engine. Any keyspaces
// named in cfg.Keyspaces are registered if they don't already exist.
func Open(cfg config.Config) (*Engine, error) {
	log, err := logging.New()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	m := metrics.New(prometheus.DefaultRegisterer)

	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("bootstrap: create data directory: %w", err)
	}
	bolt, err := boltengine.Open(filepath.Join(cfg.Storage.Dir, "lexidb.db"), cfg.Storage.SyncWrites, log)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open storage: %w", err)
	}

	reg, err := keyspace.Open(bolt)
	if err != nil {
		bolt.Close()
		return nil, fmt.Errorf("bootstrap: open registry: %w", err)
	}
	for _, ks := range cfg.Keyspaces {
		if _, err := reg.Register(ks.Name); err != nil {
			bolt.Close()
			return nil, fmt.Errorf("bootstrap: register keyspace %q: %w", ks.Name, err)
		}
	}

	mgr := txn.NewManager(bolt, log, m)
	return &Engine{Log: log, Metrics: m, Bolt: bolt, Registry: reg, Txn: mgr}, nil
}

// Close releases the storage engine and flushes logs.
func (e *Engine) Close() error {
	e.Log.Sync()
	return e.Bolt.Close()
}

// Stats reports a storage.Stats per table registered in ksID.
func (e *Engine) Stats(ksID uint32) ([]storage.Stats, error) {
	return planner.TableStats(e.Bolt, ksID, e.Metrics)
}
