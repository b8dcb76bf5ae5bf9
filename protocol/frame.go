package protocol

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// headerLen is request_id(8) + payload_len(4) + header_crc(4).
const headerLen = 8 + 4 + 4

// Frame is one command-plane request or response (spec.md §6): an opaque
// payload addressed by request_id, for matching a response back to the
// call that sent it on a multiplexed connection.
type Frame struct {
	RequestID uint64
	Payload   []byte
}

// headerCRC covers request_id ∥ payload_len, the fields WriteFrame emits
// before the payload.
func headerCRC(requestID uint64, payloadLen uint32) uint32 {
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], requestID)
	binary.LittleEndian.PutUint32(buf[8:12], payloadLen)
	return crc32.Checksum(buf[:], crc32cTable)
}

// footerCRC implements the Open Question Decision of SPEC_FULL.md: the
// trailing CRC is the payload's own CRC32C XORed with the header's CRC32C,
// so header corruption that leaves the payload bytes untouched still
// fails the footer check.
func footerCRC(hCRC uint32, payload []byte) uint32 {
	return crc32.Checksum(payload, crc32cTable) ^ hCRC
}

// WriteFrame writes f in the wire layout spec.md §6 defines: request_id
// (8 LE) ∥ payload_len (4 LE) ∥ header CRC32C (4) ∥ payload ∥ footer
// CRC32C (4).
func WriteFrame(w io.Writer, f Frame) error {
	hCRC := headerCRC(f.RequestID, uint32(len(f.Payload)))

	var header [headerLen]byte
	binary.LittleEndian.PutUint64(header[0:8], f.RequestID)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(f.Payload)))
	binary.LittleEndian.PutUint32(header[12:16], hCRC)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("protocol: write header: %w", err)
	}
	if _, err := w.Write(f.Payload); err != nil {
		return fmt.Errorf("protocol: write payload: %w", err)
	}
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], footerCRC(hCRC, f.Payload))
	if _, err := w.Write(footer[:]); err != nil {
		return fmt.Errorf("protocol: write footer: %w", err)
	}
	return nil
}

// ReadFrame reads and validates one frame from r, per spec.md §7:
// "Header corruption → connection closes with CorruptedFrame" and
// "Payload length mismatch → pending response fails with
// InconsistentLength(expected, actual) and the connection closes."
func ReadFrame(r io.Reader) (Frame, error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, &Error{Kind: Closed, Cause: err}
	}
	requestID := binary.LittleEndian.Uint64(header[0:8])
	payloadLen := binary.LittleEndian.Uint32(header[8:12])
	wantHeaderCRC := binary.LittleEndian.Uint32(header[12:16])

	gotHeaderCRC := headerCRC(requestID, payloadLen)
	if gotHeaderCRC != wantHeaderCRC {
		return Frame{}, &Error{Kind: CorruptedFrame}
	}

	payload := make([]byte, payloadLen)
	n, err := io.ReadFull(r, payload)
	if err != nil {
		return Frame{}, &Error{Kind: InconsistentLength, Expected: int(payloadLen), Actual: n, Cause: err}
	}

	var footer [4]byte
	if _, err := io.ReadFull(r, footer[:]); err != nil {
		return Frame{}, &Error{Kind: Closed, Cause: err}
	}
	wantFooterCRC := binary.LittleEndian.Uint32(footer[:])
	if footerCRC(gotHeaderCRC, payload) != wantFooterCRC {
		return Frame{}, &Error{Kind: InconsistentLength, Expected: int(payloadLen), Actual: len(payload)}
	}

	return Frame{RequestID: requestID, Payload: payload}, nil
}
