package keyspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexidb/lexidb/internal/logging"
	"github.com/lexidb/lexidb/kvschema"
	"github.com/lexidb/lexidb/storage/boltengine"
)

func openTestEngine(t *testing.T) *boltengine.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	e, err := boltengine.Open(path, false, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	return e
}

func TestRegisterAssignsDenseStableIDs(t *testing.T) {
	eng := openTestEngine(t)
	r, err := Open(eng)
	require.NoError(t, err)

	id1, err := r.Register("alpha")
	require.NoError(t, err)
	require.Equal(t, kvschema.FirstRealKsID, id1)

	id2, err := r.Register("beta")
	require.NoError(t, err)
	require.Equal(t, id1+1, id2)

	// Re-registering returns the same, stable id.
	again, err := r.Register("alpha")
	require.NoError(t, err)
	require.Equal(t, id1, again)
}

func TestLookupAndName(t *testing.T) {
	eng := openTestEngine(t)
	r, err := Open(eng)
	require.NoError(t, err)

	id, err := r.Register("orders")
	require.NoError(t, err)

	gotID, ok := r.Lookup("orders")
	require.True(t, ok)
	require.Equal(t, id, gotID)

	gotName, ok := r.Name(id)
	require.True(t, ok)
	require.Equal(t, "orders", gotName)

	_, ok = r.Lookup("missing")
	require.False(t, ok)
}

func TestListReturnsAscendingOrder(t *testing.T) {
	eng := openTestEngine(t)
	r, err := Open(eng)
	require.NoError(t, err)

	for _, name := range []string{"zeta", "alpha", "mu"} {
		_, err := r.Register(name)
		require.NoError(t, err)
	}

	require.Equal(t, []string{"alpha", "mu", "zeta"}, r.List())
}

func TestOpenReloadsPersistedKeyspaces(t *testing.T) {
	eng := openTestEngine(t)
	r1, err := Open(eng)
	require.NoError(t, err)
	id, err := r1.Register("persisted")
	require.NoError(t, err)

	r2, err := Open(eng)
	require.NoError(t, err)
	gotID, ok := r2.Lookup("persisted")
	require.True(t, ok)
	require.Equal(t, id, gotID)

	// The next registration on the reloaded registry must not collide
	// with an id already handed out before reload.
	nextID, err := r2.Register("new-after-reload")
	require.NoError(t, err)
	require.NotEqual(t, id, nextID)
}
