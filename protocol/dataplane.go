package protocol

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// OpCode identifies a data-plane request (spec.md §6: backup + replication
// traffic, distinct from the command-plane Frame in frame.go).
type OpCode uint32

const (
	OpGetFile    OpCode = 1
	OpGetUpdates OpCode = 2
)

// ResponseCode is the checksummed_int data-plane response spec.md §6 names.
type ResponseCode uint32

const (
	RespOK ResponseCode = iota
	RespOther
	RespUnknownDump
	RespUnknownFile
)

// WriteResponseCode writes a data-plane response_code: code(4 LE) ∥
// CRC32C(code)(4 LE).
func WriteResponseCode(w io.Writer, code ResponseCode) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(code))
	binary.LittleEndian.PutUint32(buf[4:8], crc32.Checksum(buf[0:4], crc32cTable))
	_, err := w.Write(buf[:])
	return err
}

// ReadResponseCode reads and validates a response_code written by
// WriteResponseCode.
func ReadResponseCode(r io.Reader) (ResponseCode, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, &Error{Kind: Closed, Cause: err}
	}
	code := binary.LittleEndian.Uint32(buf[0:4])
	want := binary.LittleEndian.Uint32(buf[4:8])
	if crc32.Checksum(buf[0:4], crc32cTable) != want {
		return 0, &Error{Kind: CorruptedFrame}
	}
	return ResponseCode(code), nil
}

// GetFileRequest is the GetFile(dump_id, offset, name) data-plane op.
type GetFileRequest struct {
	DumpID uint64
	Offset uint64
	Name   string
}

// GetUpdatesRequest is the GetUpdates(dump_id) data-plane op.
type GetUpdatesRequest struct {
	DumpID uint64
}

// WriteOpHeader writes the op_code(4 LE) a data-plane request starts with.
func WriteOpHeader(w io.Writer, op OpCode) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(op))
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("protocol: write op header: %w", err)
	}
	return nil
}

// ReadOpHeader reads the op_code a data-plane request starts with.
func ReadOpHeader(r io.Reader) (OpCode, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, &Error{Kind: Closed, Cause: err}
	}
	return OpCode(binary.LittleEndian.Uint32(buf[:])), nil
}
