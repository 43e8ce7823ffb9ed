// File: pool/segment_pool.go
// Package pool implements the capped segment free list.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"go.uber.org/zap"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
)

// SegmentPool recycles segments. Pooled bytes never exceed MaxBytes and a
// chunk still viewed by another segment is never handed out again.
type SegmentPool struct {
	mu          sync.Mutex
	free        *queue.Queue // of *Segment
	pooledBytes int64
	maxBytes    int64
	_           cpu.CacheLinePad

	acquired  atomic.Int64
	reused    atomic.Int64
	fresh     atomic.Int64
	pooled    atomic.Int64
	discarded atomic.Int64

	metrics atomic.Pointer[control.Metrics]
	logger  atomic.Pointer[zap.Logger]
}

// Option configures a SegmentPool.
type Option func(*SegmentPool)

// WithMaxBytes caps the pooled bytes.
func WithMaxBytes(n int64) Option {
	return func(p *SegmentPool) { p.maxBytes = n }
}

// WithMetrics reports pool activity to m.
func WithMetrics(m *control.Metrics) Option {
	return func(p *SegmentPool) { p.metrics.Store(m) }
}

// WithLogger sets the pool logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *SegmentPool) { p.logger.Store(l) }
}

// NewSegmentPool creates a pool capped at control.DefaultPoolMaxBytes unless configured.
func NewSegmentPool(opts ...Option) *SegmentPool {
	p := &SegmentPool{
		free:     queue.New(),
		maxBytes: control.DefaultPoolMaxBytes,
	}
	p.logger.Store(control.Logger())
	for _, opt := range opts {
		opt(p)
	}
	if p.maxBytes < 0 {
		panic(fmt.Errorf("%w: negative pool cap %d", api.ErrPoolInvariant, p.maxBytes))
	}
	p.SetLogger(p.logger.Load())
	return p
}

// SetLogger replaces the pool logger.
func (p *SegmentPool) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	p.logger.Store(l.With(zap.String("component", "segment_pool")))
}

// Acquire returns an empty owner segment.
func (p *SegmentPool) Acquire() *Segment {
	p.acquired.Add(1)

	p.mu.Lock()
	if p.free.Length() > 0 {
		s := p.free.Remove().(*Segment)
		p.pooledBytes -= SegmentSize
		pooledBytes := p.pooledBytes
		p.mu.Unlock()

		s.data.refs.Store(1)
		p.reused.Add(1)
		m := p.metrics.Load()
		m.RecordAcquire(true)
		m.SetPoolBytes(pooledBytes)
		return s
	}
	p.mu.Unlock()

	p.fresh.Add(1)
	p.metrics.Load().RecordAcquire(false)
	return newSegment()
}

// Release gives s back. s must be unlinked and must not be used afterwards.
func (p *SegmentPool) Release(s *Segment) {
	if s.Next != nil || s.Prev != nil {
		panic(fmt.Errorf("%w: release of a linked segment", api.ErrPoolInvariant))
	}
	if s.data == nil {
		panic(fmt.Errorf("%w: segment released twice", api.ErrPoolInvariant))
	}
	refs := s.data.refs.Add(-1)
	if refs < 0 {
		panic(fmt.Errorf("%w: chunk reference count below zero", api.ErrPoolInvariant))
	}
	if refs > 0 {
		// Another segment still views the chunk; drop only this view.
		s.data = nil
		p.discard(control.OutcomeDiscardedShared)
		return
	}

	p.mu.Lock()
	if p.pooledBytes+SegmentSize > p.maxBytes {
		p.mu.Unlock()
		s.data = nil
		p.discard(control.OutcomeDiscardedFull)
		return
	}
	s.Pos, s.Limit, s.owner = 0, 0, true
	p.free.Add(s)
	p.pooledBytes += SegmentSize
	pooledBytes := p.pooledBytes
	p.mu.Unlock()

	p.pooled.Add(1)
	p.metrics.Load().RecordRelease(control.OutcomePooled, pooledBytes)
}

func (p *SegmentPool) discard(outcome string) {
	p.discarded.Add(1)
	m := p.metrics.Load()
	if m != nil {
		m.RecordRelease(outcome, p.PooledBytes())
	}
	if ce := p.logger.Load().Check(zap.DebugLevel, "segment discarded"); ce != nil {
		ce.Write(zap.String("outcome", outcome))
	}
}

// Clone copies the readable bytes of s into a fresh owner segment.
func (p *SegmentPool) Clone(s *Segment) *Segment {
	c := p.Acquire()
	c.Limit = copy(c.data.b[:], s.Bytes())
	return c
}

// Split divides linked segment s into [Pos, Pos+n) and the rest, inserts the
// prefix before s and returns it. Large prefixes share the chunk; small ones
// are copied so the chunk stays writable.
func (p *SegmentPool) Split(s *Segment, n int) *Segment {
	if n <= 0 || n > s.Len() {
		panic(fmt.Errorf("%w: split %d of %d bytes", api.ErrPoolInvariant, n, s.Len()))
	}
	var prefix *Segment
	if n >= ShareMinimum {
		prefix = s.Share()
	} else {
		prefix = p.Acquire()
		copy(prefix.data.b[:], s.data.b[s.Pos:s.Pos+n])
	}
	prefix.Limit = prefix.Pos + n
	s.Pos += n
	s.Prev.Push(prefix)
	return prefix
}

// PooledBytes returns the bytes currently cached.
func (p *SegmentPool) PooledBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pooledBytes
}

// MaxBytes returns the cap on cached bytes.
func (p *SegmentPool) MaxBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxBytes
}

// SetMaxBytes changes the cap, dropping cached segments above it.
func (p *SegmentPool) SetMaxBytes(n int64) {
	if n < 0 {
		panic(fmt.Errorf("%w: negative pool cap %d", api.ErrPoolInvariant, n))
	}
	p.mu.Lock()
	p.maxBytes = n
	dropped := 0
	for p.pooledBytes > p.maxBytes && p.free.Length() > 0 {
		p.free.Remove()
		p.pooledBytes -= SegmentSize
		dropped++
	}
	pooledBytes := p.pooledBytes
	p.mu.Unlock()

	p.metrics.Load().SetPoolBytes(pooledBytes)
	if dropped > 0 {
		p.logger.Load().Debug("pool cap lowered", zap.Int64("max_bytes", n), zap.Int("dropped", dropped))
	}
}

// Instrument attaches metrics to an existing pool.
func (p *SegmentPool) Instrument(m *control.Metrics) {
	p.metrics.Store(m)
}

// Stats exposes resource/accounting metrics for observability.
func (p *SegmentPool) Stats() api.SegmentPoolStats {
	p.mu.Lock()
	pooledBytes, maxBytes := p.pooledBytes, p.maxBytes
	p.mu.Unlock()
	return api.SegmentPoolStats{
		Acquired:    p.acquired.Load(),
		Reused:      p.reused.Load(),
		Fresh:       p.fresh.Load(),
		Pooled:      p.pooled.Load(),
		Discarded:   p.discarded.Load(),
		PooledBytes: pooledBytes,
		MaxBytes:    maxBytes,
	}
}
