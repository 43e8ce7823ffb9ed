// File: core/rope/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rope

import (
	"errors"
	"io"

	"github.com/momentics/hioload-io/core/timeout"
	"github.com/momentics/hioload-io/pool"
)

// Sink receives bytes drained from a Buffer.
type Sink interface {
	// WriteBuffer removes n bytes from the head of src and writes them.
	WriteBuffer(src *Buffer, n int64) error

	// Flush pushes buffered bytes to their final destination.
	Flush() error

	// Close flushes and releases the sink. Close is idempotent.
	Close() error

	// Timeout returns the guard polled by the sink.
	Timeout() *timeout.Timeout
}

// Source supplies bytes into a Buffer.
type Source interface {
	// ReadBuffer appends between 1 and n bytes to dst and returns the count,
	// or returns 0 and io.EOF once the source is exhausted.
	ReadBuffer(dst *Buffer, n int64) (int64, error)

	// Close releases the source. Close is idempotent.
	Close() error

	// Timeout returns the guard polled by the source.
	Timeout() *timeout.Timeout
}

var (
	_ Sink   = (*Buffer)(nil)
	_ Source = (*Buffer)(nil)
)

const segmentSize = pool.SegmentSize

func isEOF(err error) bool { return errors.Is(err, io.EOF) }
