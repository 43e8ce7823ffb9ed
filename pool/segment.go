// File: pool/segment.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity byte segment, the unit buffers are built from.

package pool

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-io/api"
)

const (
	// SegmentSize is the capacity of every segment in bytes.
	SegmentSize = 8192

	// ShareMinimum is the smallest prefix a split shares instead of copying.
	ShareMinimum = 1024
)

// chunk is the backing array of a segment. refs counts the segments viewing it.
type chunk struct {
	b    [SegmentSize]byte
	refs atomic.Int32
}

// Segment is a window [Pos, Limit) over a chunk, linked into a circular
// doubly linked list owned by a buffer.
//
// Only the owner segment of a chunk may append past Limit. Bytes below the
// Limit of any view are never overwritten, and a chunk is never shifted while
// shared; that is the copy-on-write contract between buffers.
type Segment struct {
	data  *chunk
	Pos   int // next byte to read
	Limit int // next byte to write
	owner bool

	Next *Segment
	Prev *Segment
}

func newSegment() *Segment {
	s := &Segment{data: &chunk{}, owner: true}
	s.data.refs.Store(1)
	return s
}

// Len returns the number of readable bytes.
func (s *Segment) Len() int { return s.Limit - s.Pos }

// Bytes returns the readable bytes without copying.
func (s *Segment) Bytes() []byte { return s.data.b[s.Pos:s.Limit] }

// Writable returns the spare capacity after Limit. Only valid for the owner.
func (s *Segment) Writable() []byte {
	if !s.owner {
		panic(fmt.Errorf("%w: write into a non-owner segment", api.ErrPoolInvariant))
	}
	return s.data.b[s.Limit:]
}

// Owner reports whether this segment may append to its chunk.
func (s *Segment) Owner() bool { return s.owner }

// Shared reports whether another segment views the same chunk.
func (s *Segment) Shared() bool { return s.data.refs.Load() > 1 }

// Share returns a read-only view over the same bytes.
func (s *Segment) Share() *Segment {
	s.data.refs.Add(1)
	return &Segment{data: s.data, Pos: s.Pos, Limit: s.Limit}
}

// Push links seg after s and returns seg.
func (s *Segment) Push(seg *Segment) *Segment {
	seg.Prev = s
	seg.Next = s.Next
	s.Next.Prev = seg
	s.Next = seg
	return seg
}

// Pop unlinks s and returns its successor, or nil if s was the only element.
func (s *Segment) Pop() *Segment {
	var next *Segment
	if s.Next != s {
		next = s.Next
	}
	s.Prev.Next = s.Next
	s.Next.Prev = s.Prev
	s.Next = nil
	s.Prev = nil
	return next
}

// MoveTo moves n readable bytes from s into sink, shifting sink's bytes to
// the front when they would not otherwise fit.
func (s *Segment) MoveTo(sink *Segment, n int) {
	if !sink.owner {
		panic(fmt.Errorf("%w: write into a non-owner segment", api.ErrPoolInvariant))
	}
	if sink.Limit+n > SegmentSize {
		if sink.Shared() {
			panic(fmt.Errorf("%w: shift of a shared segment", api.ErrPoolInvariant))
		}
		if sink.Limit+n-sink.Pos > SegmentSize {
			panic(fmt.Errorf("%w: segment overflow", api.ErrPoolInvariant))
		}
		copy(sink.data.b[:], sink.data.b[sink.Pos:sink.Limit])
		sink.Limit -= sink.Pos
		sink.Pos = 0
	}
	copy(sink.data.b[sink.Limit:], s.data.b[s.Pos:s.Pos+n])
	sink.Limit += n
	s.Pos += n
}

// Compact merges s into its predecessor when the bytes fit there. On success
// s is unlinked and the caller must release it.
func (s *Segment) Compact() bool {
	if s.Prev == nil {
		panic(fmt.Errorf("%w: compact of an unlinked segment", api.ErrPoolInvariant))
	}
	prev := s.Prev
	if prev == s || !prev.owner {
		return false
	}
	n := s.Len()
	avail := SegmentSize - prev.Limit
	if !prev.Shared() {
		avail += prev.Pos
	}
	if n > avail {
		return false
	}
	s.MoveTo(prev, n)
	s.Pop()
	return true
}
