// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Accounting contract shared by segment pools.

package api

// SegmentPoolStats aggregates segment allocation/reuse stats.
type SegmentPoolStats struct {
	Acquired    int64 // total Acquire calls
	Reused      int64 // Acquire calls served from the free list
	Fresh       int64 // Acquire calls that allocated
	Pooled      int64 // Release calls that returned the segment to the free list
	Discarded   int64 // Release calls that dropped the segment
	PooledBytes int64 // bytes currently held by the free list
	MaxBytes    int64 // configured cap for PooledBytes
}
