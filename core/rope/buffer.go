// File: core/rope/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Rope buffer: a byte queue over a circular list of pooled segments.

package rope

import (
	"bytes"
	"io"
	"iter"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/timeout"
	"github.com/momentics/hioload-io/pool"
)

// Buffer is a byte queue. The zero value is an empty buffer backed by the
// default segment pool.
//
// Invariant: size equals the sum of readable bytes over all linked segments.
type Buffer struct {
	head    *pool.Segment
	size    int64
	segs    *pool.SegmentPool
	timeout *timeout.Timeout
}

// NewBuffer returns an empty buffer backed by the default segment pool.
func NewBuffer() *Buffer {
	return &Buffer{segs: pool.DefaultSegmentPool()}
}

// NewBufferWithPool returns an empty buffer recycling into p.
func NewBufferWithPool(p *pool.SegmentPool) *Buffer {
	return &Buffer{segs: p}
}

func (b *Buffer) pool() *pool.SegmentPool {
	if b.segs == nil {
		b.segs = pool.DefaultSegmentPool()
	}
	return b.segs
}

// Size returns the number of readable bytes.
func (b *Buffer) Size() int64 { return b.size }

// Exhausted reports whether the buffer is empty.
func (b *Buffer) Exhausted() bool { return b.size == 0 }

// Clear discards all bytes and releases every segment.
func (b *Buffer) Clear() {
	for b.head != nil {
		b.popHead()
	}
	b.size = 0
}

// Flush is a no-op; it makes Buffer a Sink.
func (b *Buffer) Flush() error { return nil }

// Close clears the buffer.
func (b *Buffer) Close() error {
	b.Clear()
	return nil
}

// Timeout returns a guard with no constraints; buffers never block.
func (b *Buffer) Timeout() *timeout.Timeout {
	if b.timeout == nil {
		b.timeout = timeout.New()
	}
	return b.timeout
}

// popHead unlinks and releases the head segment.
func (b *Buffer) popHead() {
	s := b.head
	b.head = s.Pop()
	b.pool().Release(s)
}

// consumed advances past n bytes of the head segment.
func (b *Buffer) consumed(s *pool.Segment, n int) {
	s.Pos += n
	b.size -= int64(n)
	if s.Pos == s.Limit {
		b.popHead()
	}
}

// writableSegment returns a tail segment with room for at least min bytes.
func (b *Buffer) writableSegment(min int) *pool.Segment {
	if min < 1 || min > pool.SegmentSize {
		panic(api.InvalidArgument("min", min))
	}
	p := b.pool()
	if b.head == nil {
		s := p.Acquire()
		s.Next, s.Prev = s, s
		b.head = s
		return s
	}

	tail := b.head.Prev
	if !tail.Owner() && tail.Len() < pool.ShareMinimum {
		// Copy-on-write: take a private copy of a small shared tail so
		// appends can continue in place.
		clone := tail.Push(p.Clone(tail))
		if tail == b.head {
			b.head = clone
		}
		tail.Pop()
		p.Release(tail)
		tail = clone
	}
	if !tail.Owner() || tail.Limit+min > pool.SegmentSize {
		tail = tail.Push(p.Acquire())
	}
	return tail
}

// removeEmptyTail drops a tail segment that received no bytes.
func (b *Buffer) removeEmptyTail(s *pool.Segment) {
	if s.Len() != 0 {
		return
	}
	if s == b.head {
		b.head = s.Pop()
	} else {
		s.Pop()
	}
	b.pool().Release(s)
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		s := b.writableSegment(1)
		c := copy(s.Writable(), p)
		s.Limit += c
		p = p[c:]
	}
	b.size += int64(n)
	return n, nil
}

// WriteString appends the bytes of str.
func (b *Buffer) WriteString(str string) (int, error) {
	n := len(str)
	for len(str) > 0 {
		s := b.writableSegment(1)
		c := copy(s.Writable(), str)
		s.Limit += c
		str = str[c:]
	}
	b.size += int64(n)
	return n, nil
}

// WriteByte appends c.
func (b *Buffer) WriteByte(c byte) error {
	s := b.writableSegment(1)
	s.Writable()[0] = c
	s.Limit++
	b.size++
	return nil
}

// Read consumes up to len(p) bytes. It returns io.EOF when the buffer is empty.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.head == nil {
		return 0, io.EOF
	}
	s := b.head
	n := copy(p, s.Bytes())
	b.consumed(s, n)
	return n, nil
}

// ReadByte consumes one byte.
func (b *Buffer) ReadByte() (byte, error) {
	if b.head == nil {
		return 0, io.EOF
	}
	s := b.head
	c := s.Bytes()[0]
	b.consumed(s, 1)
	return c, nil
}

// require fails without consuming when fewer than n bytes are buffered.
func (b *Buffer) require(n int64) error {
	if n < 0 {
		return api.InvalidArgument("byteCount", n)
	}
	if b.size >= n {
		return nil
	}
	if b.size == 0 {
		return io.EOF
	}
	return io.ErrUnexpectedEOF
}

// ReadFull fills p entirely or consumes nothing.
func (b *Buffer) ReadFull(p []byte) error {
	if err := b.require(int64(len(p))); err != nil {
		return err
	}
	for off := 0; off < len(p); {
		n, _ := b.Read(p[off:])
		off += n
	}
	return nil
}

// ReadBytes consumes n bytes into a new slice.
func (b *Buffer) ReadBytes(n int64) ([]byte, error) {
	if err := b.require(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	_ = b.ReadFull(out)
	return out, nil
}

// Skip discards n bytes.
func (b *Buffer) Skip(n int64) error {
	if err := b.require(n); err != nil {
		return err
	}
	for n > 0 {
		s := b.head
		c := int64(s.Len())
		if c > n {
			c = n
		}
		b.consumed(s, int(c))
		n -= c
	}
	return nil
}

// GetByte returns the byte at index i without consuming it.
func (b *Buffer) GetByte(i int64) byte {
	if i < 0 || i >= b.size {
		panic(api.InvalidArgument("index", i))
	}
	s := b.head
	for i >= int64(s.Len()) {
		i -= int64(s.Len())
		s = s.Next
	}
	return s.Bytes()[i]
}

// IndexByte returns the index of the first c at or after from, or -1.
func (b *Buffer) IndexByte(c byte, from int64) int64 {
	if from < 0 {
		from = 0
	}
	var offset int64
	for chunk := range b.Range(0, b.size) {
		n := int64(len(chunk))
		if from < offset+n {
			start := int64(0)
			if from > offset {
				start = from - offset
			}
			if i := bytes.IndexByte(chunk[start:], c); i >= 0 {
				return offset + start + int64(i)
			}
		}
		offset += n
	}
	return -1
}

// Range yields the readable bytes in [offset, offset+n) segment by segment
// without copying. The buffer must not be modified during iteration.
func (b *Buffer) Range(offset, n int64) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if offset < 0 || n < 0 || offset+n > b.size || n == 0 {
			return
		}
		s := b.head
		for offset >= int64(s.Len()) {
			offset -= int64(s.Len())
			s = s.Next
		}
		for n > 0 {
			chunk := s.Bytes()[offset:]
			if int64(len(chunk)) > n {
				chunk = chunk[:n]
			}
			if !yield(chunk) {
				return
			}
			n -= int64(len(chunk))
			offset = 0
			s = s.Next
		}
	}
}

// Bytes returns a copy of the readable bytes without consuming them.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, b.size)
	for chunk := range b.Range(0, b.size) {
		out = append(out, chunk...)
	}
	return out
}

// String returns the readable bytes as a string without consuming them.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Copy returns a buffer with the same bytes. Segments are shared, not copied.
func (b *Buffer) Copy() *Buffer {
	out := &Buffer{segs: b.segs}
	if b.size > 0 {
		b.CopyTo(out, 0, b.size)
	}
	return out
}

// CopyTo appends n bytes starting at offset to dst, sharing segments.
// b is not modified.
func (b *Buffer) CopyTo(dst *Buffer, offset, n int64) error {
	if offset < 0 || n < 0 || offset+n > b.size {
		return api.InvalidArgument("range", [2]int64{offset, n})
	}
	if n == 0 {
		return nil
	}
	dst.size += n

	s := b.head
	for offset >= int64(s.Len()) {
		offset -= int64(s.Len())
		s = s.Next
	}
	for n > 0 {
		c := s.Share()
		c.Pos += int(offset)
		if int64(c.Limit-c.Pos) > n {
			c.Limit = c.Pos + int(n)
		}
		if dst.head == nil {
			c.Next, c.Prev = c, c
			dst.head = c
		} else {
			dst.head.Prev.Push(c)
		}
		n -= int64(c.Len())
		offset = 0
		s = s.Next
	}
	return nil
}

// CompleteSegmentByteCount returns the bytes in segments that can no longer
// take appends; a BufferedSink emits exactly those.
func (b *Buffer) CompleteSegmentByteCount() int64 {
	result := b.size
	if result == 0 {
		return 0
	}
	tail := b.head.Prev
	if tail.Limit < pool.SegmentSize && tail.Owner() {
		result -= int64(tail.Len())
	}
	return result
}
