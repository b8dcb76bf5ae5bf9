package backup

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
)

// ChunkWriter wraps a single s2 stream spanning every chunk of one dump,
// for dump destinations that are files rather than the raw data-plane
// socket (SPEC_FULL.md's DOMAIN STACK table: "raw in-memory chunks used
// by the socket path stay uncompressed per §6's literal byte layout").
// lexidump opens one ChunkWriter per invocation and writes every chunk
// Dump produces through it; the replication/data-plane Conn path never
// uses this.
type ChunkWriter struct {
	zw *s2.Writer
}

// NewChunkWriter wraps w in an s2 stream. Callers must call Close when
// done to flush the trailing s2 block.
func NewChunkWriter(w io.Writer) *ChunkWriter {
	return &ChunkWriter{zw: s2.NewWriter(w)}
}

// WriteChunk compresses and appends one dump chunk to the stream.
func (c *ChunkWriter) WriteChunk(chunk []byte) error {
	if _, err := c.zw.Write(chunk); err != nil {
		return fmt.Errorf("backup: s2 write: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying s2 stream.
func (c *ChunkWriter) Close() error { return c.zw.Close() }

// ReadAllCompressed decompresses an entire s2 stream written by a
// ChunkWriter back into the plain concatenated record bytes DecodeChunk
// expects, for lexiload reading a file lexidump wrote.
func ReadAllCompressed(r io.Reader) ([]byte, error) {
	zr := s2.NewReader(r)
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("backup: s2 read: %w", err)
	}
	return out, nil
}
