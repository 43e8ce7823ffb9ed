// File: pool/default.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync"

	"github.com/momentics/hioload-io/control"
)

var (
	defaultOnce sync.Once
	defaultPool *SegmentPool
)

// DefaultSegmentPool returns the process-wide SegmentPool so every buffer
// recycles into the same free list.
func DefaultSegmentPool() *SegmentPool {
	defaultOnce.Do(func() {
		defaultPool = NewSegmentPool(WithMetrics(control.DefaultMetrics()))
		control.DefaultProbes().RegisterProbe("segment_pool", func() any {
			return defaultPool.Stats()
		})
	})
	return defaultPool
}
