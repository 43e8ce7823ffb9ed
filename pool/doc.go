// Package pool
// Author: momentics <momentics@gmail.com>
//
// Segment memory layer for hioload-io.
// Implements fixed-capacity byte segments with independent read/write cursors,
// reference-counted sharing between buffers, and a capped, process-wide free
// list that recycles segments to avoid allocation churn.
// See segment.go and segment_pool.go for implementation details.
package pool
