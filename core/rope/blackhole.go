// File: core/rope/blackhole.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rope

import "github.com/momentics/hioload-io/core/timeout"

type blackhole struct {
	t *timeout.Timeout
}

// Blackhole returns a sink that discards everything written to it.
func Blackhole() Sink { return &blackhole{t: timeout.New()} }

func (b *blackhole) WriteBuffer(src *Buffer, n int64) error { return src.Skip(n) }
func (b *blackhole) Flush() error                           { return nil }
func (b *blackhole) Close() error                           { return nil }
func (b *blackhole) Timeout() *timeout.Timeout              { return b.t }
