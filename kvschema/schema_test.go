package kvschema

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatumKeyRoundTrips(t *testing.T) {
	k := DatumKey(7, []byte("users"), []byte("alice"), []byte("email"), 1_700_000_000_000_000)
	d, err := DecodeDatumKey(k)
	require.NoError(t, err)
	require.Equal(t, uint32(7), d.KsID)
	require.Equal(t, []byte("users"), d.Table)
	require.Equal(t, []byte("alice"), d.Key)
	require.Equal(t, []byte("email"), d.Column)
	require.Equal(t, int64(1_700_000_000_000_000), d.TSMicros)
}

func TestDatumKeyOrdersNewestFirst(t *testing.T) {
	older := DatumKey(1, []byte("t"), []byte("k"), []byte("c"), 1000)
	newer := DatumKey(1, []byte("t"), []byte("k"), []byte("c"), 2000)
	require.True(t, bytes.Compare(newer, older) < 0,
		"newer timestamp must sort before older timestamp for the same (ks,table,key,column)")
}

func TestDatumKeyOrdersByKeyspaceThenTableThenKeyThenColumn(t *testing.T) {
	keys := [][]byte{
		DatumKey(1, []byte("a"), []byte("k"), []byte("c"), 0),
		DatumKey(1, []byte("b"), []byte("k"), []byte("c"), 0),
		DatumKey(2, []byte("a"), []byte("k"), []byte("c"), 0),
	}
	for i := 0; i < len(keys)-1; i++ {
		require.True(t, bytes.Compare(keys[i], keys[i+1]) < 0)
	}
}

func TestMetadataPrefixSortsBeforeAnyRealKeyspace(t *testing.T) {
	meta := MetadataKey("ks-one")
	datum := DatumKey(FirstRealKsID, []byte("t"), []byte("k"), []byte("c"), 0)
	require.True(t, bytes.Compare(meta, datum) < 0)
	require.True(t, IsMetadataKey(meta))
	require.False(t, IsMetadataKey(datum))
}

func TestEndOfDBKeySortsAfterEveryRealDatum(t *testing.T) {
	sentinel := EndOfDBKey()
	datum := DatumKey(1<<20, []byte("zzzz"), []byte("zzzz"), []byte("zzzz"), 0)
	require.True(t, bytes.Compare(datum, sentinel) < 0)
}

func TestEncodeTableSuccessorSkipsPastEveryRowInTable(t *testing.T) {
	succ := EncodeTableSuccessor(5, []byte("users"))
	inTable := DatumKey(5, []byte("users"), []byte("\xff\xff\xff"), []byte("\xff"), 0)
	nextTable := DatumKey(5, []byte("users2"), []byte("a"), []byte("c"), 0)

	require.True(t, bytes.Compare(inTable, succ) < 0)
	require.True(t, bytes.Compare(succ, nextTable) <= 0)
}

func TestTablePrefixAndKeyPrefixBoundScans(t *testing.T) {
	tp := TablePrefix(3, []byte("orders"))
	kp := KeyPrefix(3, []byte("orders"), []byte("o-1"))
	datum := DatumKey(3, []byte("orders"), []byte("o-1"), []byte("status"), 42)

	require.True(t, HasPrefix(datum, tp))
	require.True(t, HasPrefix(datum, kp))
	require.True(t, HasPrefix(kp, tp))
}
