// File: core/rope/buffered_sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rope

import (
	"errors"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/timeout"
)

// BufferedSink stages writes in a Buffer and hands only complete segments
// to the underlying sink, so small writes do not reach the transport one by one.
type BufferedSink struct {
	sink   Sink
	buf    *Buffer
	closed bool
}

// NewBufferedSink wraps sink.
func NewBufferedSink(sink Sink) *BufferedSink {
	return &BufferedSink{sink: sink, buf: NewBuffer()}
}

var _ Sink = (*BufferedSink)(nil)

// Buffer exposes the staging buffer. Bytes written to it directly are
// emitted on the next Emit, Flush or Close.
func (s *BufferedSink) Buffer() *Buffer { return s.buf }

func (s *BufferedSink) checkOpen() error {
	if s.closed {
		return api.ErrClosed
	}
	return nil
}

// Write stages p and emits complete segments.
func (s *BufferedSink) Write(p []byte) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n, _ := s.buf.Write(p)
	return n, s.EmitCompleteSegments()
}

// WriteString stages str and emits complete segments.
func (s *BufferedSink) WriteString(str string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n, _ := s.buf.WriteString(str)
	return n, s.EmitCompleteSegments()
}

// WriteUTF8 is WriteString without the count.
func (s *BufferedSink) WriteUTF8(str string) error {
	_, err := s.WriteString(str)
	return err
}

// WriteByte stages c.
func (s *BufferedSink) WriteByte(c byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_ = s.buf.WriteByte(c)
	return s.EmitCompleteSegments()
}

// WriteRune stages the UTF-8 encoding of r.
func (s *BufferedSink) WriteRune(r rune) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n, _ := s.buf.WriteRune(r)
	return n, s.EmitCompleteSegments()
}

func (s *BufferedSink) stage(put func(*Buffer)) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	put(s.buf)
	return s.EmitCompleteSegments()
}

// WriteUint16 stages v big endian.
func (s *BufferedSink) WriteUint16(v uint16) error {
	return s.stage(func(b *Buffer) { b.WriteUint16(v) })
}

// WriteUint16LE stages v little endian.
func (s *BufferedSink) WriteUint16LE(v uint16) error {
	return s.stage(func(b *Buffer) { b.WriteUint16LE(v) })
}

// WriteUint32 stages v big endian.
func (s *BufferedSink) WriteUint32(v uint32) error {
	return s.stage(func(b *Buffer) { b.WriteUint32(v) })
}

// WriteUint32LE stages v little endian.
func (s *BufferedSink) WriteUint32LE(v uint32) error {
	return s.stage(func(b *Buffer) { b.WriteUint32LE(v) })
}

// WriteUint64 stages v big endian.
func (s *BufferedSink) WriteUint64(v uint64) error {
	return s.stage(func(b *Buffer) { b.WriteUint64(v) })
}

// WriteUint64LE stages v little endian.
func (s *BufferedSink) WriteUint64LE(v uint64) error {
	return s.stage(func(b *Buffer) { b.WriteUint64LE(v) })
}

// WriteDecimal stages the base-10 text form of v.
func (s *BufferedSink) WriteDecimal(v int64) error {
	return s.stage(func(b *Buffer) { b.WriteDecimal(v) })
}

// WriteBuffer moves n bytes of src into the staging buffer.
func (s *BufferedSink) WriteBuffer(src *Buffer, n int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.buf.WriteBuffer(src, n); err != nil {
		return err
	}
	return s.EmitCompleteSegments()
}

// WriteAll drains src through the staging buffer and returns the byte count.
func (s *BufferedSink) WriteAll(src Source) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var total int64
	for {
		n, err := src.ReadBuffer(s.buf, segmentSize)
		total += n
		if err != nil {
			if isEOF(err) {
				return total, nil
			}
			return total, err
		}
		if err := s.EmitCompleteSegments(); err != nil {
			return total, err
		}
	}
}

// EmitCompleteSegments writes the staged bytes that fill whole segments.
func (s *BufferedSink) EmitCompleteSegments() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if n := s.buf.CompleteSegmentByteCount(); n > 0 {
		return s.sink.WriteBuffer(s.buf, n)
	}
	return nil
}

// Emit writes every staged byte without flushing the underlying sink.
func (s *BufferedSink) Emit() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if n := s.buf.Size(); n > 0 {
		return s.sink.WriteBuffer(s.buf, n)
	}
	return nil
}

// Flush emits staged bytes and flushes the underlying sink.
func (s *BufferedSink) Flush() error {
	if err := s.Emit(); err != nil {
		return err
	}
	return s.sink.Flush()
}

// Close emits what it can, then closes the underlying sink even when the
// emit failed. Close is idempotent.
func (s *BufferedSink) Close() error {
	if s.closed {
		return nil
	}
	var errs []error
	if n := s.buf.Size(); n > 0 {
		errs = append(errs, s.sink.WriteBuffer(s.buf, n))
	}
	errs = append(errs, s.sink.Close())
	s.closed = true
	s.buf.Clear()
	return errors.Join(errs...)
}

// Timeout returns the underlying sink's guard.
func (s *BufferedSink) Timeout() *timeout.Timeout { return s.sink.Timeout() }
