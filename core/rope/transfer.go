// File: core/rope/transfer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bulk movement between buffers, readers, writers and sources.

package rope

import (
	"io"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/pool"
)

// WriteBuffer moves n bytes from the head of src to the tail of b.
//
// Whole segments are relinked. A partially moved head segment is either
// copied into b's tail, when that fits, or split; large splits share the
// chunk instead of copying it. Small segments landing behind a tail with
// room are compacted into it so a long chain of moves does not fragment.
func (b *Buffer) WriteBuffer(src *Buffer, n int64) error {
	if src == b {
		return api.InvalidArgument("source", "self")
	}
	if n < 0 || n > src.size {
		return api.InvalidArgument("byteCount", n)
	}

	for n > 0 {
		if n < int64(src.head.Len()) {
			var tail *pool.Segment
			if b.head != nil {
				tail = b.head.Prev
			}
			if tail != nil && tail.Owner() {
				room := int64(pool.SegmentSize - tail.Limit)
				if !tail.Shared() {
					room += int64(tail.Pos)
				}
				if n <= room {
					src.head.MoveTo(tail, int(n))
					src.size -= n
					b.size += n
					return nil
				}
			}
			src.head = src.pool().Split(src.head, int(n))
		}

		seg := src.head
		moved := int64(seg.Len())
		src.head = seg.Pop()
		if b.head == nil {
			seg.Next, seg.Prev = seg, seg
			b.head = seg
		} else {
			tail := b.head.Prev.Push(seg)
			if tail.Compact() {
				b.pool().Release(tail)
			}
		}
		src.size -= moved
		b.size += moved
		n -= moved
	}
	return nil
}

// MoveTo moves n bytes from b to dst without copying whole segments.
func (b *Buffer) MoveTo(dst *Buffer, n int64) error {
	return dst.WriteBuffer(b, n)
}

// ReadBuffer moves up to n bytes into dst; it makes Buffer a Source.
func (b *Buffer) ReadBuffer(dst *Buffer, n int64) (int64, error) {
	if n < 0 {
		return 0, api.InvalidArgument("byteCount", n)
	}
	if b.size == 0 {
		return 0, io.EOF
	}
	if n > b.size {
		n = b.size
	}
	if err := dst.WriteBuffer(b, n); err != nil {
		return 0, err
	}
	return n, nil
}

// FillFrom performs a single Read from r of at most max bytes straight into
// the tail segment.
func (b *Buffer) FillFrom(r io.Reader, max int64) (int64, error) {
	if max < 0 {
		return 0, api.InvalidArgument("byteCount", max)
	}
	if max == 0 {
		return 0, nil
	}
	s := b.writableSegment(1)
	w := s.Writable()
	if int64(len(w)) > max {
		w = w[:max]
	}
	n, err := r.Read(w)
	s.Limit += n
	b.size += int64(n)
	b.removeEmptyTail(s)
	return int64(n), err
}

// ReadFrom reads r until io.EOF; it implements io.ReaderFrom.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		n, err := b.FillFrom(r, pool.SegmentSize)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// DrainTo writes up to n bytes to w, consuming what w accepted.
func (b *Buffer) DrainTo(w io.Writer, n int64) (int64, error) {
	if n < 0 || n > b.size {
		return 0, api.InvalidArgument("byteCount", n)
	}
	var total int64
	for total < n {
		s := b.head
		chunk := s.Bytes()
		if rest := n - total; int64(len(chunk)) > rest {
			chunk = chunk[:rest]
		}
		c, err := w.Write(chunk)
		b.consumed(s, c)
		total += int64(c)
		if err != nil {
			return total, err
		}
		if c < len(chunk) {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// WriteTo writes every byte to w; it implements io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	return b.DrainTo(w, b.size)
}

// WriteAll drains src into b and returns the byte count.
func (b *Buffer) WriteAll(src Source) (int64, error) {
	var total int64
	for {
		n, err := src.ReadBuffer(b, pool.SegmentSize)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
