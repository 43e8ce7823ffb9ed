// File: core/rope/buffered_source.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rope

import (
	"fmt"
	"io"
	"math"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/timeout"
)

// ErrLineTooLong is returned by ReadUTF8LineStrict when no newline occurs
// within the limit.
var ErrLineTooLong = fmt.Errorf("line exceeds limit")

// BufferedSource reads ahead from a Source into a Buffer so that parsing
// calls do not reach the transport for every byte.
type BufferedSource struct {
	source Source
	buf    *Buffer
	closed bool
}

// NewBufferedSource wraps source.
func NewBufferedSource(source Source) *BufferedSource {
	return &BufferedSource{source: source, buf: NewBuffer()}
}

var _ Source = (*BufferedSource)(nil)

// Buffer exposes the read-ahead buffer.
func (s *BufferedSource) Buffer() *Buffer { return s.buf }

func (s *BufferedSource) checkOpen() error {
	if s.closed {
		return api.ErrClosed
	}
	return nil
}

// fill reads one more chunk from the source into the buffer.
func (s *BufferedSource) fill() error {
	_, err := s.source.ReadBuffer(s.buf, segmentSize)
	return err
}

// Request buffers at least n bytes if the source has them. It returns
// false once the source is exhausted first.
func (s *BufferedSource) Request(n int64) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if n < 0 {
		return false, api.InvalidArgument("byteCount", n)
	}
	for s.buf.Size() < n {
		if err := s.fill(); err != nil {
			if isEOF(err) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// Require buffers at least n bytes or fails with io.EOF (nothing buffered)
// or io.ErrUnexpectedEOF (some bytes buffered).
func (s *BufferedSource) Require(n int64) error {
	ok, err := s.Request(n)
	if err != nil {
		return err
	}
	if !ok {
		if s.buf.Size() == 0 {
			return io.EOF
		}
		return io.ErrUnexpectedEOF
	}
	return nil
}

// Exhausted reports whether neither the buffer nor the source has bytes left.
func (s *BufferedSource) Exhausted() (bool, error) {
	ok, err := s.Request(1)
	return !ok && err == nil, err
}

// ReadBuffer serves dst from the read-ahead buffer, refilling it when empty.
func (s *BufferedSource) ReadBuffer(dst *Buffer, n int64) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, api.InvalidArgument("byteCount", n)
	}
	if s.buf.Size() == 0 {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	return s.buf.ReadBuffer(dst, n)
}

// Read implements io.Reader.
func (s *BufferedSource) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, s.checkOpen()
	}
	if ok, err := s.Request(1); err != nil {
		return 0, err
	} else if !ok {
		return 0, io.EOF
	}
	return s.buf.Read(p)
}

// ReadFull fills p or fails without consuming.
func (s *BufferedSource) ReadFull(p []byte) error {
	if err := s.Require(int64(len(p))); err != nil {
		return err
	}
	return s.buf.ReadFull(p)
}

// ReadByte consumes one byte.
func (s *BufferedSource) ReadByte() (byte, error) {
	if err := s.Require(1); err != nil {
		return 0, err
	}
	return s.buf.ReadByte()
}

// ReadBytes consumes n bytes.
func (s *BufferedSource) ReadBytes(n int64) ([]byte, error) {
	if err := s.Require(n); err != nil {
		return nil, err
	}
	return s.buf.ReadBytes(n)
}

// ReadUint16 consumes a big-endian uint16.
func (s *BufferedSource) ReadUint16() (uint16, error) {
	if err := s.Require(2); err != nil {
		return 0, err
	}
	return s.buf.ReadUint16()
}

// ReadUint16LE consumes a little-endian uint16.
func (s *BufferedSource) ReadUint16LE() (uint16, error) {
	if err := s.Require(2); err != nil {
		return 0, err
	}
	return s.buf.ReadUint16LE()
}

// ReadUint32 consumes a big-endian uint32.
func (s *BufferedSource) ReadUint32() (uint32, error) {
	if err := s.Require(4); err != nil {
		return 0, err
	}
	return s.buf.ReadUint32()
}

// ReadUint32LE consumes a little-endian uint32.
func (s *BufferedSource) ReadUint32LE() (uint32, error) {
	if err := s.Require(4); err != nil {
		return 0, err
	}
	return s.buf.ReadUint32LE()
}

// ReadUint64 consumes a big-endian uint64.
func (s *BufferedSource) ReadUint64() (uint64, error) {
	if err := s.Require(8); err != nil {
		return 0, err
	}
	return s.buf.ReadUint64()
}

// ReadUint64LE consumes a little-endian uint64.
func (s *BufferedSource) ReadUint64LE() (uint64, error) {
	if err := s.Require(8); err != nil {
		return 0, err
	}
	return s.buf.ReadUint64LE()
}

// ReadUTF8 consumes n bytes as a string.
func (s *BufferedSource) ReadUTF8(n int64) (string, error) {
	if err := s.Require(n); err != nil {
		return "", err
	}
	return s.buf.ReadUTF8(n)
}

// ReadRune consumes one UTF-8 encoded rune.
func (s *BufferedSource) ReadRune() (rune, int, error) {
	if err := s.Require(1); err != nil {
		return 0, 0, err
	}
	// A rune is at most four bytes; a short source still decodes what it has.
	if _, err := s.Request(4); err != nil {
		return 0, 0, err
	}
	return s.buf.ReadRune()
}

// IndexByte returns the index of the first c at or after from, reading
// ahead as needed, or -1 when the source ends first.
func (s *BufferedSource) IndexByte(c byte, from int64) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return -1, err
	}
	scanned := from
	for {
		if i := s.buf.IndexByte(c, scanned); i >= 0 {
			return i, nil
		}
		if s.buf.Size() > scanned {
			scanned = s.buf.Size()
		}
		if err := s.fill(); err != nil {
			if isEOF(err) {
				return -1, nil
			}
			return -1, err
		}
	}
}

// readLine consumes a line of newline bytes (excluding the terminator) and
// the terminator itself, dropping a preceding '\r'.
func (s *BufferedSource) readLine(newline int64) (string, error) {
	n := newline
	if n > 0 && s.buf.GetByte(n-1) == '\r' {
		n--
	}
	line, err := s.buf.ReadUTF8(n)
	if err != nil {
		return "", err
	}
	return line, s.buf.Skip(newline - n + 1)
}

// ReadUTF8Line consumes one line terminated by "\n" or "\r\n" and returns it
// without the terminator. The last line may lack a terminator; once nothing
// is left it returns io.EOF.
func (s *BufferedSource) ReadUTF8Line() (string, error) {
	i, err := s.IndexByte('\n', 0)
	if err != nil {
		return "", err
	}
	if i >= 0 {
		return s.readLine(i)
	}
	if s.buf.Size() == 0 {
		return "", io.EOF
	}
	return s.buf.ReadUTF8(s.buf.Size())
}

// ReadUTF8LineStrict is ReadUTF8Line that requires a terminator within limit
// bytes. A source ending before the terminator fails with io.ErrUnexpectedEOF
// and a longer line with ErrLineTooLong; neither consumes anything.
func (s *BufferedSource) ReadUTF8LineStrict(limit int64) (string, error) {
	if limit < 0 {
		return "", api.InvalidArgument("limit", limit)
	}
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	// A "\r\n" terminator may end one byte past limit.
	scan := limit
	if limit < math.MaxInt64 {
		scan++
	}
	scanned := int64(0)
	for {
		if i := s.buf.IndexByte('\n', scanned); i >= 0 {
			if i > limit && !(i == scan && s.buf.GetByte(i-1) == '\r') {
				return "", fmt.Errorf("%w: no newline within %d bytes", ErrLineTooLong, limit)
			}
			return s.readLine(i)
		}
		if s.buf.Size() > scan {
			return "", fmt.Errorf("%w: no newline within %d bytes", ErrLineTooLong, limit)
		}
		scanned = s.buf.Size()
		if err := s.fill(); err != nil {
			if isEOF(err) {
				if s.buf.Size() == 0 {
					return "", io.EOF
				}
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
	}
}

// ReadAll consumes everything up to the end of the source.
func (s *BufferedSource) ReadAll() ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := s.buf.WriteAll(s.source); err != nil {
		return nil, err
	}
	return s.buf.ReadBytes(s.buf.Size())
}

// ReadAllTo drains the source into sink and returns the byte count.
func (s *BufferedSource) ReadAllTo(sink Sink) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var total int64
	for {
		if s.buf.Size() == 0 {
			if err := s.fill(); err != nil {
				if isEOF(err) {
					return total, nil
				}
				return total, err
			}
		}
		n := s.buf.Size()
		if err := sink.WriteBuffer(s.buf, n); err != nil {
			return total, err
		}
		total += n
	}
}

// Skip discards n bytes, reading ahead as needed.
func (s *BufferedSource) Skip(n int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if n < 0 {
		return api.InvalidArgument("byteCount", n)
	}
	for n > 0 {
		if s.buf.Size() == 0 {
			if err := s.fill(); err != nil {
				if isEOF(err) {
					return io.ErrUnexpectedEOF
				}
				return err
			}
		}
		c := min(n, s.buf.Size())
		_ = s.buf.Skip(c)
		n -= c
	}
	return nil
}

// Close releases the read-ahead buffer and closes the source. Close is idempotent.
func (s *BufferedSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf.Clear()
	return s.source.Close()
}

// Timeout returns the underlying source's guard.
func (s *BufferedSource) Timeout() *timeout.Timeout { return s.source.Timeout() }
