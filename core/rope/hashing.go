// File: core/rope/hashing.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sinks and sources that digest the bytes passing through them.

package rope

import (
	"hash"

	"github.com/cespare/xxhash/v2"

	"github.com/momentics/hioload-io/core/timeout"
)

// HashingSink digests every byte written before forwarding it.
type HashingSink struct {
	sink Sink
	h    hash.Hash
}

// NewHashingSink forwards to sink, digesting with h.
func NewHashingSink(sink Sink, h hash.Hash) *HashingSink {
	return &HashingSink{sink: sink, h: h}
}

// NewXXHashSink forwards to sink, digesting with xxhash64.
func NewXXHashSink(sink Sink) *HashingSink {
	return NewHashingSink(sink, xxhash.New())
}

func (s *HashingSink) WriteBuffer(src *Buffer, n int64) error {
	if n >= 0 && n <= src.Size() {
		for chunk := range src.Range(0, n) {
			s.h.Write(chunk)
		}
	}
	return s.sink.WriteBuffer(src, n)
}

func (s *HashingSink) Flush() error              { return s.sink.Flush() }
func (s *HashingSink) Close() error              { return s.sink.Close() }
func (s *HashingSink) Timeout() *timeout.Timeout { return s.sink.Timeout() }

// Sum returns the digest of everything written so far.
func (s *HashingSink) Sum() []byte { return s.h.Sum(nil) }

// Sum64 returns the digest as uint64 when the hash is 64 bits wide.
func (s *HashingSink) Sum64() uint64 {
	if h, ok := s.h.(hash.Hash64); ok {
		return h.Sum64()
	}
	return 0
}

// HashingSource digests every byte read through it.
type HashingSource struct {
	source Source
	h      hash.Hash
}

// NewHashingSource reads from source, digesting with h.
func NewHashingSource(source Source, h hash.Hash) *HashingSource {
	return &HashingSource{source: source, h: h}
}

// NewXXHashSource reads from source, digesting with xxhash64.
func NewXXHashSource(source Source) *HashingSource {
	return NewHashingSource(source, xxhash.New())
}

func (s *HashingSource) ReadBuffer(dst *Buffer, n int64) (int64, error) {
	read, err := s.source.ReadBuffer(dst, n)
	if read > 0 {
		for chunk := range dst.Range(dst.Size()-read, read) {
			s.h.Write(chunk)
		}
	}
	return read, err
}

func (s *HashingSource) Close() error              { return s.source.Close() }
func (s *HashingSource) Timeout() *timeout.Timeout { return s.source.Timeout() }

// Sum returns the digest of everything read so far.
func (s *HashingSource) Sum() []byte { return s.h.Sum(nil) }

// Sum64 returns the digest as uint64 when the hash is 64 bits wide.
func (s *HashingSource) Sum64() uint64 {
	if h, ok := s.h.(hash.Hash64); ok {
		return h.Sum64()
	}
	return 0
}
