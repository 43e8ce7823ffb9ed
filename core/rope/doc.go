// Package rope
// Author: momentics <momentics@gmail.com>
//
// Segmented byte buffer and the Sink/Source streaming contracts built on it.
//
// A Buffer is a queue of bytes stored as a circular list of pooled
// segments. Writes append to the tail segment, reads consume from the head
// and hand drained segments back to the pool. Moving bytes between buffers
// relinks whole segments instead of copying them; partially moved segments
// are split and share their chunk copy-on-write.
//
// Sink and Source are the minimal write/read contracts over a Buffer.
// BufferedSink and BufferedSource stage bytes in an internal Buffer to batch
// small operations and to parse integers, UTF-8 text and lines.
//
// Buffers are not safe for concurrent use; the segment pool behind them is.
package rope
