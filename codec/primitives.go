package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Byte is the one-raw-byte codec; natural unsigned order.
type byteCodec struct{}

// ByteCodec is the singleton byte codec (spec.md §4.1 "byte").
var ByteCodec Codec[byte] = byteCodec{}

func (byteCodec) Encode(out []byte, x byte) []byte { return append(out, x) }

func (byteCodec) Decode(b []byte) (byte, int, error) {
	if len(b) < 1 {
		return 0, 0, errf(IncompleteFragment, "byte: need 1 byte, have %d", len(b))
	}
	return b[0], 1, nil
}

func (byteCodec) Min() byte          { return 0x00 }
func (byteCodec) Max() byte          { return 0xFF }
func (byteCodec) Succ(x byte) byte   { if x == 0xFF { return x }; return x + 1 }
func (byteCodec) Pred(x byte) byte   { if x == 0x00 { return x }; return x - 1 }
func (byteCodec) Pp(x byte) string   { return fmt.Sprintf("0x%02x", x) }

// Bool is the one-byte boolean codec: false=0x00, true=0x01.
type boolCodec struct{}

// BoolCodec is the singleton bool codec.
var BoolCodec Codec[bool] = boolCodec{}

func (boolCodec) Encode(out []byte, x bool) []byte {
	if x {
		return append(out, 0x01)
	}
	return append(out, 0x00)
}

func (boolCodec) Decode(b []byte) (bool, int, error) {
	if len(b) < 1 {
		return false, 0, errf(IncompleteFragment, "bool: need 1 byte, have %d", len(b))
	}
	switch b[0] {
	case 0x00:
		return false, 1, nil
	case 0x01:
		return true, 1, nil
	default:
		return false, 0, errf(BadEncoding, "bool: byte %#x is neither 0x00 nor 0x01", b[0])
	}
}

func (boolCodec) Min() bool        { return false }
func (boolCodec) Max() bool        { return true }
func (boolCodec) Succ(bool) bool   { return true }  // saturates at Max
func (boolCodec) Pred(bool) bool   { return false }  // saturates at Min
func (boolCodec) Pp(x bool) string { return fmt.Sprintf("%v", x) }

// PositiveInt64 encodes non-negative int64 values big-endian, preserving
// unsigned numeric order. Negative values are rejected with
// UnsatisfiedConstraint (spec.md §4.1).
type positiveInt64Codec struct{}

// PositiveInt64Codec is the singleton codec for non-negative int64s.
var PositiveInt64Codec Codec[int64] = positiveInt64Codec{}

func (positiveInt64Codec) Encode(out []byte, x int64) []byte {
	if x < 0 {
		// The Codec interface's Encode has no error result, so a
		// negative value panics with an UnsatisfiedConstraint error;
		// EncodeChecked reports the same error without panicking.
		panic(errf(UnsatisfiedConstraint, "positive_int64: negative value %d", x))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(x))
	return append(out, buf[:]...)
}

// EncodeChecked is the non-panicking form callers should prefer.
func (positiveInt64Codec) EncodeChecked(out []byte, x int64) ([]byte, error) {
	if x < 0 {
		return nil, errf(UnsatisfiedConstraint, "positive_int64: negative value %d", x)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(x))
	return append(out, buf[:]...), nil
}

func (positiveInt64Codec) Decode(b []byte) (int64, int, error) {
	if len(b) < 8 {
		return 0, 0, errf(IncompleteFragment, "positive_int64: need 8 bytes, have %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b[:8])), 8, nil
}

func (positiveInt64Codec) Min() int64        { return 0 }
func (positiveInt64Codec) Max() int64        { return math.MaxInt64 }
func (positiveInt64Codec) Succ(x int64) int64 { if x >= math.MaxInt64 { return math.MaxInt64 }; return x + 1 }
func (positiveInt64Codec) Pred(x int64) int64 { if x <= 0 { return 0 }; return x - 1 }
func (positiveInt64Codec) Pp(x int64) string  { return fmt.Sprintf("%d", x) }

// Uint32 encodes a uint32 big-endian, preserving natural unsigned order.
// Used for the keyspace id component of the datum key (spec.md §4.2
// "enc_u32_be(ks_id)").
type uint32Codec struct{}

// Uint32Codec is the singleton codec for uint32.
var Uint32Codec Codec[uint32] = uint32Codec{}

func (uint32Codec) Encode(out []byte, x uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], x)
	return append(out, buf[:]...)
}

func (uint32Codec) Decode(b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, errf(IncompleteFragment, "uint32: need 4 bytes, have %d", len(b))
	}
	return binary.BigEndian.Uint32(b[:4]), 4, nil
}

func (uint32Codec) Min() uint32 { return 0 }
func (uint32Codec) Max() uint32 { return math.MaxUint32 }
func (uint32Codec) Succ(x uint32) uint32 {
	if x == math.MaxUint32 {
		return x
	}
	return x + 1
}
func (uint32Codec) Pred(x uint32) uint32 {
	if x == 0 {
		return x
	}
	return x - 1
}
func (uint32Codec) Pp(x uint32) string { return fmt.Sprintf("%d", x) }

// PositiveInt64Complement encodes big-endian(MAX_I64 - x), reversing the
// natural order: larger x sorts earlier. Used for descending timestamps in
// the datum-key schema (spec.md §4.2).
type positiveInt64ComplementCodec struct{}

// PositiveInt64ComplementCodec is the singleton descending-order codec.
var PositiveInt64ComplementCodec Codec[int64] = positiveInt64ComplementCodec{}

func (positiveInt64ComplementCodec) Encode(out []byte, x int64) []byte {
	if x < 0 {
		panic(errf(UnsatisfiedConstraint, "positive_int64_complement: negative value %d", x))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(math.MaxInt64-x))
	return append(out, buf[:]...)
}

func (positiveInt64ComplementCodec) EncodeChecked(out []byte, x int64) ([]byte, error) {
	if x < 0 {
		return nil, errf(UnsatisfiedConstraint, "positive_int64_complement: negative value %d", x)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(math.MaxInt64-x))
	return append(out, buf[:]...), nil
}

func (positiveInt64ComplementCodec) Decode(b []byte) (int64, int, error) {
	if len(b) < 8 {
		return 0, 0, errf(IncompleteFragment, "positive_int64_complement: need 8 bytes, have %d", len(b))
	}
	comp := binary.BigEndian.Uint64(b[:8])
	return math.MaxInt64 - int64(comp), 8, nil
}

func (positiveInt64ComplementCodec) Min() int64 { return math.MaxInt64 } // encodes as 0x00.. (smallest bytes)
func (positiveInt64ComplementCodec) Max() int64 { return 0 }             // encodes as 0x7F FF.. (largest bytes this codec produces)

// Succ/Pred follow this codec's own (descending) order: Succ steps toward
// Max (0) by decrementing x, which moves the encoded form to the next larger
// byte string; Pred increments x toward Min (MaxInt64).
func (positiveInt64ComplementCodec) Succ(x int64) int64 {
	if x <= 0 {
		return 0
	}
	return x - 1
}

func (positiveInt64ComplementCodec) Pred(x int64) int64 {
	if x >= math.MaxInt64 {
		return math.MaxInt64
	}
	return x + 1
}

func (positiveInt64ComplementCodec) Pp(x int64) string { return fmt.Sprintf("~%d", x) }
