// Package replication implements the producer side of spec.md §4.6's
// replication contract: observe committed write batches and forward them
// to a consumer over a dedicated data-plane connection, retrying on NACK.
// The transport itself (dial, TLS, discovery) is out of scope per spec.md
// §1 — this package only needs something that can Write and Read bytes.
package replication

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/lexidb/lexidb/codec"
	"github.com/lexidb/lexidb/internal/logging"
	"github.com/lexidb/lexidb/internal/metrics"
	"github.com/lexidb/lexidb/storage"
	"github.com/lexidb/lexidb/txn"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// ackByte / nackByte are the one-byte consumer responses spec.md §4.6
// describes: "awaits a one-byte ACK/NACK from the consumer."
const (
	ackByte  byte = 0x01
	nackByte byte = 0x00
)

// Conn is the minimal data-plane connection a Producer needs: write the
// framed update, read back the one-byte ack. Real socket plumbing (§6) is
// out of scope; tests use an in-memory io.Pipe pair.
type Conn interface {
	io.Writer
	io.Reader
}

// Producer streams txn.CommitRecords arriving on updates to conn, retrying a
// record until it is ACKed. Per spec.md §9's "weak-referenced streams"
// note, the receiving loop is what keeps the update channel's producer
// side alive for as long as records remain unacknowledged — there is no
// separate keepalive reference to manage, since Run simply doesn't return
// until updates is closed or ctx is cancelled.
type Producer struct {
	conn    Conn
	updates <-chan txn.CommitRecord
	log     *logging.Logger
	metrics *metrics.Registry
}

// NewProducer builds a Producer. log and m may be nil.
func NewProducer(conn Conn, updates <-chan txn.CommitRecord, log *logging.Logger, m *metrics.Registry) *Producer {
	if log == nil {
		log = logging.NewNop()
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &Producer{conn: conn, updates: updates, log: log.Named("replication"), metrics: m}
}

// Run streams updates until the channel closes, ctx is cancelled, or a
// non-retryable I/O error occurs.
func (p *Producer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-p.updates:
			if !ok {
				return nil
			}
			if err := p.sendUntilAcked(ctx, rec); err != nil {
				return fmt.Errorf("replication: producer: %w", err)
			}
		}
	}
}

func (p *Producer) sendUntilAcked(ctx context.Context, rec txn.CommitRecord) error {
	payload := encodeCommitRecord(rec)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFramed(p.conn, payload); err != nil {
			return err
		}
		ack, err := readAck(p.conn)
		if err != nil {
			return err
		}
		if ack {
			p.metrics.ReplicationAcks.Inc()
			return nil
		}
		p.metrics.ReplicationNacks.Inc()
		p.log.Warnw("replication nack, resending", "ks_id", rec.KsID, "ops", len(rec.Ops))
	}
}

// writeFramed writes (length_prefix, payload, CRC32C(payload)) — spec.md
// §4.6's data-plane update frame.
func writeFramed(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc32.Checksum(payload, crc32cTable))
	if _, err := w.Write(crcBuf[:]); err != nil {
		return fmt.Errorf("write crc: %w", err)
	}
	return nil
}

func readAck(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, fmt.Errorf("read ack: %w", err)
	}
	return b[0] == ackByte, nil
}

// encodeCommitRecord serialises a txn.CommitRecord as ks_id, the op count,
// then each op (a deletion flag, a self-delimited key, and a self-delimited
// value unless the op is a deletion), using the same
// composable codecs the datum-key schema is built from.
func encodeCommitRecord(rec txn.CommitRecord) []byte {
	out := codec.Uint32Codec.Encode(nil, rec.KsID)
	out = codec.PositiveInt64Codec.Encode(out, int64(len(rec.Ops)))
	for _, op := range rec.Ops {
		isDelete := op.Value == nil
		out = codec.BoolCodec.Encode(out, isDelete)
		out = codec.SelfDelimitedStringCodec.Encode(out, op.Key)
		if !isDelete {
			out = codec.SelfDelimitedStringCodec.Encode(out, op.Value)
		}
	}
	return out
}

// DecodeCommitRecord reverses encodeCommitRecord, for consumer-side decoding
// and tests.
func DecodeCommitRecord(b []byte) (txn.CommitRecord, error) {
	ksID, n, err := codec.Uint32Codec.Decode(b)
	if err != nil {
		return txn.CommitRecord{}, err
	}
	b = b[n:]
	count, n, err := codec.PositiveInt64Codec.Decode(b)
	if err != nil {
		return txn.CommitRecord{}, err
	}
	b = b[n:]
	ops := make([]storage.WriteOp, 0, count)
	for i := int64(0); i < count; i++ {
		isDelete, n, err := codec.BoolCodec.Decode(b)
		if err != nil {
			return txn.CommitRecord{}, err
		}
		b = b[n:]
		key, n, err := codec.SelfDelimitedStringCodec.Decode(b)
		if err != nil {
			return txn.CommitRecord{}, err
		}
		b = b[n:]
		var value []byte
		if !isDelete {
			value, n, err = codec.SelfDelimitedStringCodec.Decode(b)
			if err != nil {
				return txn.CommitRecord{}, err
			}
			b = b[n:]
		}
		ops = append(ops, storage.WriteOp{Key: key, Value: value})
	}
	return txn.CommitRecord{KsID: ksID, Ops: ops}, nil
}

// Hub runs one Producer per replication consumer connection concurrently
// under an errgroup.Group with no shared cancellation — a producer failing
// closes only that replication stream, never the others (spec.md §7
// "Replication-plane errors close only the replication stream").
type Hub struct {
	g *errgroup.Group
}

// NewHub returns an empty Hub together with ctx unchanged; one producer's
// error does not cancel it. Call Add to register producers and Wait to
// block until they all return.
func NewHub(ctx context.Context) (*Hub, context.Context) {
	return &Hub{g: &errgroup.Group{}}, ctx
}

// Add starts p.Run under the hub's errgroup.
func (h *Hub) Add(ctx context.Context, p *Producer) {
	h.g.Go(func() error { return p.Run(ctx) })
}

// Wait blocks until every added producer has returned, and returns the
// first non-nil error (if any), per errgroup.Group's usual semantics.
func (h *Hub) Wait() error { return h.g.Wait() }
