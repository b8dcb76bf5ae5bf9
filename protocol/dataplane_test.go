package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseCodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponseCode(&buf, RespUnknownDump))

	got, err := ReadResponseCode(&buf)
	require.NoError(t, err)
	require.Equal(t, RespUnknownDump, got)
}

func TestResponseCodeCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponseCode(&buf, RespOK))
	raw := buf.Bytes()
	raw[0] ^= 0xff

	_, err := ReadResponseCode(bytes.NewReader(raw))
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, CorruptedFrame, perr.Kind)
}

func TestOpHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOpHeader(&buf, OpGetUpdates))

	got, err := ReadOpHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, OpGetUpdates, got)
}

func TestCheckVersion(t *testing.T) {
	require.NoError(t, CheckVersion(Version{Major: 1, Minor: 2}, Version{Major: 1, Minor: 9}))

	err := CheckVersion(Version{Major: 1}, Version{Major: 2})
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, BadVersion, perr.Kind)
}
