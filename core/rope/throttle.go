// File: core/rope/throttle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bandwidth limiting for sinks and sources.

package rope

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/timeout"
)

// waitContext arms t for a new call and returns a context that ends when
// its budget or deadline does.
func waitContext(t *timeout.Timeout) (context.Context, context.CancelFunc) {
	t.Begin()
	if left, ok := t.Remaining(); ok {
		return context.WithTimeout(context.Background(), left)
	}
	return context.WithCancel(context.Background())
}

// waitN blocks until limiter grants n tokens. A wait that cannot finish
// before ctx ends fails with an api.TimeoutError.
func waitN(ctx context.Context, limiter *rate.Limiter, n int) error {
	if err := limiter.WaitN(ctx, n); err != nil {
		// WaitN fails early when the wait would outlast the deadline.
		if _, ok := ctx.Deadline(); ok {
			return api.NewTimeoutError("throttle", err)
		}
		return err
	}
	return nil
}

// chunkFor returns how many bytes one limiter grant may cover.
func chunkFor(limiter *rate.Limiter, n int64) int64 {
	chunk := min(n, segmentSize)
	if burst := int64(limiter.Burst()); burst > 0 && chunk > burst {
		chunk = burst
	}
	return chunk
}

type throttledSink struct {
	limiter *rate.Limiter
	sink    Sink
}

// ThrottledSink limits the byte rate written to sink; one token is one byte.
func ThrottledSink(limiter *rate.Limiter, sink Sink) Sink {
	return &throttledSink{limiter: limiter, sink: sink}
}

func (s *throttledSink) WriteBuffer(src *Buffer, n int64) error {
	if n < 0 || n > src.Size() {
		return api.InvalidArgument("byteCount", n)
	}
	ctx, cancel := waitContext(s.sink.Timeout())
	defer cancel()
	for n > 0 {
		chunk := chunkFor(s.limiter, n)
		if err := waitN(ctx, s.limiter, int(chunk)); err != nil {
			return err
		}
		if err := s.sink.WriteBuffer(src, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (s *throttledSink) Flush() error              { return s.sink.Flush() }
func (s *throttledSink) Close() error              { return s.sink.Close() }
func (s *throttledSink) Timeout() *timeout.Timeout { return s.sink.Timeout() }

type throttledSource struct {
	limiter *rate.Limiter
	source  Source
}

// ThrottledSource limits the byte rate read from source.
func ThrottledSource(limiter *rate.Limiter, source Source) Source {
	return &throttledSource{limiter: limiter, source: source}
}

func (s *throttledSource) ReadBuffer(dst *Buffer, n int64) (int64, error) {
	if n < 0 {
		return 0, api.InvalidArgument("byteCount", n)
	}
	if n == 0 {
		return 0, nil
	}
	ctx, cancel := waitContext(s.source.Timeout())
	defer cancel()
	chunk := chunkFor(s.limiter, n)
	if err := waitN(ctx, s.limiter, int(chunk)); err != nil {
		return 0, err
	}
	return s.source.ReadBuffer(dst, chunk)
}

func (s *throttledSource) Close() error              { return s.source.Close() }
func (s *throttledSource) Timeout() *timeout.Timeout { return s.source.Timeout() }
