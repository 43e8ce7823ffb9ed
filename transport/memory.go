// File: transport/memory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory byte array transports.

package transport

import (
	"bytes"

	"github.com/momentics/hioload-io/core/rope"
)

// MemorySource returns a source over a copy-free view of data.
func MemorySource(data []byte, opts ...Option) rope.Source {
	return NewSource(bytes.NewReader(data), opts...)
}

// MemorySink collects written bytes in memory.
type MemorySink struct {
	rope.Sink
	out *bytes.Buffer
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink(opts ...Option) *MemorySink {
	out := &bytes.Buffer{}
	return &MemorySink{Sink: NewSink(out, opts...), out: out}
}

// Bytes returns the bytes written so far.
func (m *MemorySink) Bytes() []byte { return m.out.Bytes() }
