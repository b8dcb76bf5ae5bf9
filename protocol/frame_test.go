package protocol

import (
	"bytes"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{RequestID: 42, Payload: []byte("hello command plane")}
	require.NoError(t, WriteFrame(&buf, f))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, f.RequestID, got.RequestID)
	require.Equal(t, f.Payload, got.Payload)
}

func TestFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{RequestID: 7, Payload: nil}
	require.NoError(t, WriteFrame(&buf, f))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, uint64(7), got.RequestID)
	require.Empty(t, got.Payload)
}

// TestFooterCRCIsXORRelation locks in SPEC_FULL.md's Open Question
// Decision: footer_crc = crc32c(payload) XOR header_crc, not a masked or
// independent checksum.
func TestFooterCRCIsXORRelation(t *testing.T) {
	hCRC := headerCRC(1, 5)
	payload := []byte("hello")
	fCRC := footerCRC(hCRC, payload)
	require.Equal(t, crc32.Checksum(payload, crc32cTable)^hCRC, fCRC)
}

func TestReadFrameHeaderCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{RequestID: 1, Payload: []byte("x")}))
	raw := buf.Bytes()
	raw[0] ^= 0xff // corrupt request_id after the header CRC was computed over it

	_, err := ReadFrame(bytes.NewReader(raw))
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, CorruptedFrame, perr.Kind)
}

func TestReadFramePayloadCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{RequestID: 1, Payload: []byte("hello")}))
	raw := buf.Bytes()
	raw[len(raw)-5] ^= 0xff // corrupt a payload byte, header CRC still matches

	_, err := ReadFrame(bytes.NewReader(raw))
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, InconsistentLength, perr.Kind)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{RequestID: 1, Payload: []byte("hello world")}))
	raw := buf.Bytes()
	truncated := raw[:len(raw)-8] // drop part of the payload and all of the footer

	_, err := ReadFrame(bytes.NewReader(truncated))
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, InconsistentLength, perr.Kind)
}

func TestReadFrameClosedMidHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, Closed, perr.Kind)
}
