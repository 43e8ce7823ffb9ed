// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"net"

	"github.com/momentics/hioload-io/core/rope"
)

// ConnSink returns a sink writing to conn. With WithTimeout, a write stuck
// longer than the timeout gets conn closed under it by the watchdog.
func ConnSink(conn net.Conn, opts ...Option) rope.Sink {
	return NewSink(conn, withDefaultName(conn, "conn-sink", opts)...)
}

// ConnSource returns a source reading from conn, guarded like ConnSink.
func ConnSource(conn net.Conn, opts ...Option) rope.Source {
	return NewSource(conn, withDefaultName(conn, "conn-source", opts)...)
}

func withDefaultName(conn net.Conn, kind string, opts []Option) []Option {
	name := kind
	if addr := conn.RemoteAddr(); addr != nil {
		name = kind + " " + addr.String()
	}
	return append([]Option{WithName(name)}, opts...)
}
