// Package protocol implements the framed request/response contract of
// spec.md §6: an 8-byte request id, a length-prefixed payload, and two
// CRC32C fields guarding the header and the payload. Everything beyond
// this framing contract — the request taxonomy's wire encoding, the
// data-plane handshake, dial/listen — is out of scope per spec.md §1;
// this package only encodes/decodes one frame at a time, the same
// boundary replication.Producer draws around its own update frame.
package protocol

import "fmt"

// ErrorKind enumerates spec.md §7's ProtocolError variants.
type ErrorKind int

const (
	// CorruptedFrame means the header CRC didn't match what was read.
	CorruptedFrame ErrorKind = iota
	// InconsistentLength means the payload CRC didn't match, or fewer
	// payload bytes were available than payload_len promised.
	InconsistentLength
	// Closed means the underlying connection was closed mid-frame.
	Closed
	// BadVersion means a data-plane handshake's major version didn't match.
	BadVersion
)

func (k ErrorKind) String() string {
	switch k {
	case CorruptedFrame:
		return "CorruptedFrame"
	case InconsistentLength:
		return "InconsistentLength"
	case Closed:
		return "Closed"
	case BadVersion:
		return "BadVersion"
	default:
		return "UnknownProtocolError"
	}
}

// Error wraps a protocol-level failure (spec.md §7 "Protocol errors fail
// all pending requests on that connection and close it").
type Error struct {
	Kind     ErrorKind
	Expected int
	Actual   int
	Cause    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case InconsistentLength:
		return fmt.Sprintf("protocol: inconsistent length: expected %d, got %d", e.Expected, e.Actual)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("protocol: %s: %v", e.Kind, e.Cause)
		}
		return fmt.Sprintf("protocol: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }
