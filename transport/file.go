// File: transport/file.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"fmt"
	"os"

	"github.com/momentics/hioload-io/core/rope"
)

// FileSink creates or truncates path and returns a sink writing to it.
func FileSink(path string, opts ...Option) (rope.Sink, error) {
	return openFileSink(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts)
}

// AppendingFileSink returns a sink appending to path, creating it if needed.
func AppendingFileSink(path string, opts ...Option) (rope.Sink, error) {
	return openFileSink(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, opts)
}

func openFileSink(path string, flag int, opts []Option) (rope.Sink, error) {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file sink: %w", err)
	}
	return NewSink(f, append([]Option{WithName(path)}, opts...)...), nil
}

// FileSource opens path for reading.
func FileSource(path string, opts ...Option) (rope.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file source: %w", err)
	}
	adviseSequential(f)
	return NewSource(f, append([]Option{WithName(path)}, opts...)...), nil
}
