package rope_test

import (
	"bytes"
	"errors"
	"io"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/rope"
	"github.com/momentics/hioload-io/core/timeout"
)

// chunkedSource hands out data at most chunk bytes per read.
type chunkedSource struct {
	data   []byte
	chunk  int
	closed bool
	t      timeout.Timeout
}

func newChunkedSource(data string, chunk int) *chunkedSource {
	return &chunkedSource{data: []byte(data), chunk: chunk}
}

func (s *chunkedSource) ReadBuffer(dst *rope.Buffer, n int64) (int64, error) {
	if s.closed {
		return 0, api.ErrClosed
	}
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	c := min(int(n), s.chunk, len(s.data))
	_, _ = dst.Write(s.data[:c])
	s.data = s.data[c:]
	return int64(c), nil
}

func (s *chunkedSource) Close() error {
	s.closed = true
	return nil
}

func (s *chunkedSource) Timeout() *timeout.Timeout { return &s.t }

// collectSink records everything written, one entry per WriteBuffer.
type collectSink struct {
	out     bytes.Buffer
	writes  []int64
	flushes int
	closes  int
	failAt  int
	t       timeout.Timeout
}

var errSinkFailed = errors.New("sink failed")

func (s *collectSink) WriteBuffer(src *rope.Buffer, n int64) error {
	if s.failAt > 0 && len(s.writes)+1 >= s.failAt {
		return errSinkFailed
	}
	s.writes = append(s.writes, n)
	_, err := src.DrainTo(&s.out, n)
	return err
}

func (s *collectSink) Flush() error {
	s.flushes++
	return nil
}

func (s *collectSink) Close() error {
	s.closes++
	return nil
}

func (s *collectSink) Timeout() *timeout.Timeout { return &s.t }

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}
