package replication

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexidb/lexidb/storage"
	"github.com/lexidb/lexidb/txn"
)

// pipeConn implements Conn over a pair of io.Pipes, so tests can drive
// both ends without a real socket.
type pipeConn struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (c pipeConn) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c pipeConn) Read(p []byte) (int, error)  { return c.r.Read(p) }

// newPipePair returns two ends of one full-duplex connection: writes on
// one side are reads on the other.
func newPipePair() (pipeConn, pipeConn) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	return pipeConn{r: ar, w: bw}, pipeConn{r: br, w: aw}
}

func readFramedRecord(t *testing.T, r io.Reader) txn.CommitRecord {
	t.Helper()
	var lenBuf [4]byte
	_, err := io.ReadFull(r, lenBuf[:])
	require.NoError(t, err)
	n := binary.LittleEndian.Uint32(lenBuf[:])

	payload := make([]byte, n)
	_, err = io.ReadFull(r, payload)
	require.NoError(t, err)

	var crcBuf [4]byte
	_, err = io.ReadFull(r, crcBuf[:])
	require.NoError(t, err)
	table := crc32.MakeTable(crc32.Castagnoli)
	require.Equal(t, crc32.Checksum(payload, table), binary.LittleEndian.Uint32(crcBuf[:]))

	rec, err := DecodeCommitRecord(payload)
	require.NoError(t, err)
	return rec
}

func TestProducerSendsUntilAcked(t *testing.T) {
	producerSide, serverSide := newPipePair()

	updates := make(chan txn.CommitRecord, 1)
	rec := txn.CommitRecord{KsID: 3, Ops: []storage.WriteOp{storage.Put([]byte("k"), []byte("v"))}}
	updates <- rec
	close(updates)

	p := NewProducer(producerSide, updates, nil, nil)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		got := readFramedRecord(t, serverSide)
		require.Equal(t, rec.KsID, got.KsID)
		require.Len(t, got.Ops, 1)
		// first attempt: NACK, forcing a resend
		_, err := serverSide.Write([]byte{nackByte})
		require.NoError(t, err)

		readFramedRecord(t, serverSide)
		_, err = serverSide.Write([]byte{ackByte})
		require.NoError(t, err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Fatal("server goroutine never finished")
	}
}

func TestCommitRecordEncodeDecodeRoundTrip(t *testing.T) {
	rec := txn.CommitRecord{
		KsID: 9,
		Ops: []storage.WriteOp{
			storage.Put([]byte("a"), []byte("1")),
			storage.Delete([]byte("b")),
		},
	}
	decoded, err := DecodeCommitRecord(encodeCommitRecord(rec))
	require.NoError(t, err)
	require.Equal(t, rec.KsID, decoded.KsID)
	require.Equal(t, rec.Ops, decoded.Ops)
}
