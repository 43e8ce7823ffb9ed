// Package transport
// Author: momentics <momentics@gmail.com>
//
// Sink and Source adapters over concrete transports: net.Conn sockets,
// files, generic io.Reader/io.Writer values and in-memory byte arrays.
//
// Adapters move data in segment-sized chunks and poll their Timeout between
// chunks. When a timeout is configured, every call is additionally guarded
// by an AsyncTimeout whose hook closes the transport, so a call blocked in
// the kernel returns and is reported as a timeout.
package transport
