// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the transport abstraction streams are built over: sockets, files,
// pipes or in-memory arrays.

package api

import "io"

// Transport abstracts a blocking byte transport. Close must unblock any
// in-flight Read or Write; the watchdog relies on that to cancel stuck calls.
type Transport interface {
	// Read reads into a preallocated buffer
	Read(p []byte) (n int, err error)

	// Write writes buffer contents into the transport
	Write(p []byte) (n int, err error)

	// Close shuts down the transport and releases blocked callers
	Close() error
}

// ReadTransport is the read half of a Transport.
type ReadTransport = io.ReadCloser

// WriteTransport is the write half of a Transport.
type WriteTransport = io.WriteCloser
