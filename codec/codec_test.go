package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// assertOrderPreserving checks two of the Codec laws over a sample of
// representative values given in ascending order: decode(encode(x))==x
// (consuming the whole encoding), and strictly increasing encodings for
// each pair of neighbouring values.
func assertOrderPreserving[T comparable](t *testing.T, c Codec[T], ascending []T) {
	t.Helper()
	for i := range ascending {
		enc := c.Encode(nil, ascending[i])
		dec, n, err := c.Decode(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, ascending[i], dec)
	}
	for i := 0; i < len(ascending)-1; i++ {
		lo := c.Encode(nil, ascending[i])
		hi := c.Encode(nil, ascending[i+1])
		require.Truef(t, bytes.Compare(lo, hi) < 0,
			"expected encode(%v) < encode(%v)", ascending[i], ascending[i+1])
	}
}

func TestByteCodecRoundTripAndOrder(t *testing.T) {
	assertOrderPreserving(t, ByteCodec, []byte{0x00, 0x01, 0x7f, 0x80, 0xfe, 0xff})
	require.Equal(t, byte(0x00), ByteCodec.Min())
	require.Equal(t, byte(0xff), ByteCodec.Max())
	require.Equal(t, byte(0xff), ByteCodec.Succ(0xff))
	require.Equal(t, byte(0x00), ByteCodec.Pred(0x00))
	require.Equal(t, byte(5), ByteCodec.Pred(ByteCodec.Succ(5)))
}

func TestBoolCodecRoundTripAndOrder(t *testing.T) {
	assertOrderPreserving(t, BoolCodec, []bool{false, true})
	require.True(t, BoolCodec.Succ(false))
	require.True(t, BoolCodec.Succ(true))
	require.False(t, BoolCodec.Pred(true))
	require.False(t, BoolCodec.Pred(false))

	_, _, err := BoolCodec.Decode([]byte{0x02})
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, BadEncoding, cerr.Kind)
}

func TestPositiveInt64RoundTripAndOrder(t *testing.T) {
	assertOrderPreserving(t, PositiveInt64Codec, []int64{0, 1, 42, 1 << 32, 1<<63 - 1})
	require.Equal(t, int64(0), PositiveInt64Codec.Min())

	_, err := PositiveInt64Codec.(interface {
		EncodeChecked([]byte, int64) ([]byte, error)
	}).EncodeChecked(nil, -1)
	require.Error(t, err)
}

func TestPositiveInt64ComplementReversesOrder(t *testing.T) {
	// Larger logical values must encode to *smaller* byte strings.
	small := PositiveInt64ComplementCodec.Encode(nil, 10)
	large := PositiveInt64ComplementCodec.Encode(nil, 10000)
	require.True(t, bytes.Compare(large, small) < 0)

	dec, _, err := PositiveInt64ComplementCodec.Decode(large)
	require.NoError(t, err)
	require.Equal(t, int64(10000), dec)

	// Succ/Pred operate in value space and must still round-trip.
	x := int64(500)
	require.Equal(t, x, PositiveInt64ComplementCodec.Pred(PositiveInt64ComplementCodec.Succ(x)))
	require.Equal(t, x, PositiveInt64ComplementCodec.Succ(PositiveInt64ComplementCodec.Pred(x)))
}

func TestSelfDelimitedStringPreservesPrefixOrder(t *testing.T) {
	// []byte isn't comparable, so this can't reuse the generic
	// assertOrderPreserving helper; check round-trip and order by hand.
	strs := [][]byte{
		[]byte(""),
		[]byte("\x00"),
		[]byte("a"),
		[]byte("aa"),
		[]byte("ab"),
		[]byte("b"),
	}
	for _, s := range strs {
		enc := SelfDelimitedStringCodec.Encode(nil, s)
		dec, n, err := SelfDelimitedStringCodec.Decode(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, s, dec)
	}
	for i := 0; i < len(strs)-1; i++ {
		lo := SelfDelimitedStringCodec.Encode(nil, strs[i])
		hi := SelfDelimitedStringCodec.Encode(nil, strs[i+1])
		require.Truef(t, bytes.Compare(lo, hi) < 0,
			"expected encode(%q) < encode(%q)", strs[i], strs[i+1])
	}
}

func TestSelfDelimitedStringEscapesNUL(t *testing.T) {
	enc := SelfDelimitedStringCodec.Encode(nil, []byte{0x00, 0x01})
	require.Equal(t, []byte{0x00, 0xFF, 0x01, 0x00, 0x00}, enc)
	dec, n, err := SelfDelimitedStringCodec.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, []byte{0x00, 0x01}, dec)
}

func TestSelfDelimitedStringRejectsTruncation(t *testing.T) {
	_, _, err := SelfDelimitedStringCodec.Decode([]byte{'a', 'b'})
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, IncompleteFragment, cerr.Kind)
}

func TestStringzRejectsEmbeddedNUL(t *testing.T) {
	require.Panics(t, func() { StringzCodec.Encode(nil, "a\x00b") })

	enc, err := StringzUnsafeCodec.(interface {
		EncodeChecked([]byte, string) ([]byte, error)
	}).EncodeChecked(nil, "a\x00b")
	require.NoError(t, err)
	require.Equal(t, []byte("a\x00b\x00"), enc)
}

func TestTuple2PreservesOrderOfConcatenation(t *testing.T) {
	tc := Tuple2Codec[byte, byte]{A: ByteCodec, B: ByteCodec}
	assertOrderPreserving(t, tc, []Pair[byte, byte]{
		{0x00, 0x00},
		{0x00, 0x01},
		{0x00, 0xFF},
		{0x01, 0x00},
		{0xFF, 0xFF},
	})
}

func TestTuple2LowerKAndUpperKBoundAPrefix(t *testing.T) {
	tc := Tuple2Codec[byte, byte]{A: ByteCodec, B: ByteCodec}
	lo := tc.LowerK1(0x05)
	hi := tc.UpperK1(0x05)
	require.Equal(t, Pair[byte, byte]{0x05, 0x00}, lo)
	require.Equal(t, Pair[byte, byte]{0x05, 0xFF}, hi)

	loEnc := tc.Encode(nil, lo)
	hiEnc := tc.Encode(nil, hi)
	midEnc := tc.Encode(nil, Pair[byte, byte]{0x05, 0x42})
	require.True(t, bytes.Compare(loEnc, midEnc) <= 0)
	require.True(t, bytes.Compare(midEnc, hiEnc) <= 0)

	otherKeyEnc := tc.Encode(nil, Pair[byte, byte]{0x06, 0x00})
	require.True(t, bytes.Compare(hiEnc, otherKeyEnc) < 0)
}

func TestChoice2OrdersLeftBeforeRight(t *testing.T) {
	cc := Choice2Codec[byte, byte]{A: ByteCodec, B: ByteCodec}
	left := Left2[byte, byte](0xFF)
	right := Right2[byte, byte](0x00)
	leftEnc := cc.Encode(nil, left)
	rightEnc := cc.Encode(nil, right)
	require.True(t, bytes.Compare(leftEnc, rightEnc) < 0)

	dec, _, err := cc.Decode(rightEnc)
	require.NoError(t, err)
	require.Equal(t, right, dec)
}

func TestChoice2RejectsUnknownTag(t *testing.T) {
	cc := Choice2Codec[byte, byte]{A: ByteCodec, B: ByteCodec}
	_, _, err := cc.Decode([]byte{0x02, 0x00})
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, UnknownTag, cerr.Kind)
}

func TestCustomCodecRelabelsThroughBijection(t *testing.T) {
	type status int
	const (
		statusPending status = iota
		statusActive
		statusClosed
	)
	cc := CustomCodec[status, byte]{
		Underlying: ByteCodec,
		ToInternal: func(s status) byte { return byte(s) },
		OfInternal: func(b byte) status { return status(b) },
	}
	assertOrderPreserving(t, cc, []status{statusPending, statusActive, statusClosed})
	require.Equal(t, statusClosed, cc.Pred(cc.Succ(statusClosed)))
}
