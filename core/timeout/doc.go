// Package timeout
// Author: momentics <momentics@gmail.com>
//
// Deadline and per-call budget guards for blocking stream operations.
//
// Timeout is a poll-style guard: adapters call Check between chunks so long
// transfers stop cooperatively. AsyncTimeout adds forced cancellation: a
// single watchdog goroutine, shared process-wide, fires a node's OnTimeout
// hook (usually closing the transport) once its deadline passes, which
// unblocks a call stuck inside a primitive that cannot otherwise be
// interrupted.
package timeout
