// File: transport/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sink/Source adapters over io.Writer and io.Reader.

package transport

import (
	"io"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/rope"
	"github.com/momentics/hioload-io/core/timeout"
	"github.com/momentics/hioload-io/pool"
)

type flusher interface {
	Flush() error
}

type writerSink struct {
	w      io.Writer
	closer io.Closer
	t      *timeout.Timeout
	closed bool
}

// NewSink returns a sink writing to w. Close closes w when it is an io.Closer.
func NewSink(w io.Writer, opts ...Option) rope.Sink {
	o := buildOptions(opts)
	c, _ := w.(io.Closer)
	at, t := o.guard(c)
	return wrapSink(at, &writerSink{w: w, closer: c, t: t})
}

func (s *writerSink) WriteBuffer(src *rope.Buffer, n int64) error {
	if s.closed {
		return api.ErrClosed
	}
	if n < 0 || n > src.Size() {
		return api.InvalidArgument("byteCount", n)
	}
	s.t.Begin()
	for n > 0 {
		if err := s.t.Check(); err != nil {
			return err
		}
		written, err := src.DrainTo(s.w, min(n, pool.SegmentSize))
		n -= written
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *writerSink) Flush() error {
	if s.closed {
		return api.ErrClosed
	}
	if f, ok := s.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

func (s *writerSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if f, ok := s.w.(flusher); ok {
		err = f.Flush()
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *writerSink) Timeout() *timeout.Timeout { return s.t }

type readerSource struct {
	r      io.Reader
	closer io.Closer
	t      *timeout.Timeout
	closed bool
}

// NewSource returns a source reading from r. Close closes r when it is an io.Closer.
func NewSource(r io.Reader, opts ...Option) rope.Source {
	o := buildOptions(opts)
	c, _ := r.(io.Closer)
	at, t := o.guard(c)
	return wrapSource(at, &readerSource{r: r, closer: c, t: t})
}

func (s *readerSource) ReadBuffer(dst *rope.Buffer, n int64) (int64, error) {
	if s.closed {
		return 0, api.ErrClosed
	}
	if n < 0 {
		return 0, api.InvalidArgument("byteCount", n)
	}
	if n == 0 {
		return 0, nil
	}
	s.t.Begin()
	for {
		if err := s.t.Check(); err != nil {
			return 0, err
		}
		read, err := dst.FillFrom(s.r, min(n, pool.SegmentSize))
		if read > 0 {
			// EOF is reported by the next call.
			if err == io.EOF {
				err = nil
			}
			return read, err
		}
		if err != nil {
			return 0, err
		}
	}
}

func (s *readerSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *readerSource) Timeout() *timeout.Timeout { return s.t }
