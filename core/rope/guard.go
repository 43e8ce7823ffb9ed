// File: core/rope/guard.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Watchdog-guarded sinks and sources.

package rope

import (
	"github.com/momentics/hioload-io/core/timeout"
)

// maxGuardedWrite bounds the bytes handed to the guarded sink per Enter/Exit
// so a large write is not judged against a single deadline.
const maxGuardedWrite = 64 * 1024

type guardedSink struct {
	at   *timeout.AsyncTimeout
	sink Sink
}

// GuardSink wraps sink so every call runs under at. When at expires its
// OnTimeout hook fires (usually closing the transport under sink) and the
// call reports an api.TimeoutError.
func GuardSink(at *timeout.AsyncTimeout, sink Sink) Sink {
	return &guardedSink{at: at, sink: sink}
}

func (g *guardedSink) WriteBuffer(src *Buffer, n int64) error {
	if n < 0 || n > src.Size() {
		return g.sink.WriteBuffer(src, n)
	}
	for n > 0 {
		chunk := min(n, maxGuardedWrite)
		if err := g.at.Guard(func() error { return g.sink.WriteBuffer(src, chunk) }); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (g *guardedSink) Flush() error {
	return g.at.Guard(g.sink.Flush)
}

func (g *guardedSink) Close() error {
	return g.at.Guard(g.sink.Close)
}

func (g *guardedSink) Timeout() *timeout.Timeout { return &g.at.Timeout }

type guardedSource struct {
	at     *timeout.AsyncTimeout
	source Source
}

// GuardSource wraps source so every read runs under at.
func GuardSource(at *timeout.AsyncTimeout, source Source) Source {
	return &guardedSource{at: at, source: source}
}

func (g *guardedSource) ReadBuffer(dst *Buffer, n int64) (int64, error) {
	var read int64
	err := g.at.Guard(func() error {
		var err error
		read, err = g.source.ReadBuffer(dst, n)
		return err
	})
	return read, err
}

func (g *guardedSource) Close() error {
	return g.at.Guard(g.source.Close)
}

func (g *guardedSource) Timeout() *timeout.Timeout { return &g.at.Timeout }
