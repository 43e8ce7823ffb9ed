package control_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/momentics/hioload-io/control"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := control.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.EqualValues(t, 64*1024, cfg.Pool.MaxBytes)
	assert.Equal(t, 60*time.Second, cfg.Watchdog.IdleTimeout)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Pool.MaxBytes = -1
	cfg.Watchdog.IdleTimeout = 0
	cfg.Log.Format = "xml"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = ""

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"pool.max_bytes", "watchdog.idle_timeout", "log.format", "metrics.namespace"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoader_DefaultsWithoutFile(t *testing.T) {
	cfg, err := control.NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")).
		WithLookupEnv(envMap(nil)).
		Load()
	require.NoError(t, err)
	assert.Equal(t, control.DefaultConfig(), cfg)
}

func TestLoader_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hioload.yaml")
	yamlDoc := `
pool:
  max_bytes: 131072
watchdog:
  idle_timeout: 5s
transport:
  timeout: 250ms
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := control.NewLoader().
		WithConfigPath(path).
		WithLookupEnv(envMap(map[string]string{
			"HIOLOAD_POOL_MAX_BYTES":        "8192",
			"HIOLOAD_METRICS_ENABLED":       "true",
			"HIOLOAD_METRICS_NAMESPACE":     "edge",
			"HIOLOAD_WATCHDOG_IDLE_TIMEOUT": "",
		})).
		Load()
	require.NoError(t, err)

	assert.EqualValues(t, 8192, cfg.Pool.MaxBytes, "env overrides yaml")
	assert.Equal(t, 5*time.Second, cfg.Watchdog.IdleTimeout, "empty env value is ignored")
	assert.Equal(t, 250*time.Millisecond, cfg.Transport.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "edge", cfg.Metrics.Namespace)
}

func TestLoader_CustomPrefixAndDuration(t *testing.T) {
	cfg, err := control.NewLoader().
		WithEnvPrefix("APP").
		WithLookupEnv(envMap(map[string]string{"APP_TRANSPORT_TIMEOUT": "2s"})).
		Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Transport.Timeout)
}

func TestLoader_Errors(t *testing.T) {
	_, err := control.NewLoader().
		WithLookupEnv(envMap(map[string]string{"HIOLOAD_POOL_MAX_BYTES": "lots"})).
		Load()
	assert.ErrorContains(t, err, "HIOLOAD_POOL_MAX_BYTES")

	_, err = control.NewLoader().
		WithLookupEnv(envMap(map[string]string{"HIOLOAD_WATCHDOG_IDLE_TIMEOUT": "-1s"})).
		Load()
	assert.ErrorContains(t, err, "validation")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool: [1, 2"), 0o600))
	_, err = control.NewLoader().WithConfigPath(path).WithLookupEnv(envMap(nil)).Load()
	assert.ErrorContains(t, err, "parse")

	assert.Panics(t, func() { control.MustLoad(path) })
}

func TestConfigStore_UpdateNotifiesListeners(t *testing.T) {
	store := control.NewConfigStore(nil)
	assert.Equal(t, *control.DefaultConfig(), store.Snapshot())

	var calls atomic.Int32
	var seen control.Config
	store.OnReload(func(c control.Config) {
		calls.Add(1)
		seen = c
	})

	next := store.Snapshot()
	next.Pool.MaxBytes = 1 << 20
	require.NoError(t, store.Update(next))
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1<<20, seen.Pool.MaxBytes)
	assert.EqualValues(t, 1<<20, store.Snapshot().Pool.MaxBytes)

	bad := next
	bad.Watchdog.IdleTimeout = -time.Second
	assert.Error(t, store.Update(bad))
	assert.EqualValues(t, 1, calls.Load(), "rejected config is not dispatched")
	assert.Equal(t, next, store.Snapshot())
}

func TestLogger(t *testing.T) {
	prev := control.Logger()
	t.Cleanup(func() { control.SetLogger(prev) })

	l, err := control.NewLogger(control.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	control.SetLogger(l)
	assert.Same(t, l, control.Logger())
	control.SetLogger(nil)
	assert.NotNil(t, control.Logger())

	_, err = control.NewLogger(control.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := control.NewMetrics("ctl", reg)

	m.RecordAcquire(true)
	m.RecordAcquire(false)
	m.RecordAcquire(false)
	m.RecordRelease(control.OutcomePooled, 8192)
	m.RecordRelease(control.OutcomeDiscardedShared, 8192)
	m.SetWatchdogRunning(true)
	m.SetWatchdogQueue(3)

	expected := `
# HELP ctl_segments_acquired_total Segments handed out by the pool
# TYPE ctl_segments_acquired_total counter
ctl_segments_acquired_total{origin="fresh"} 2
ctl_segments_acquired_total{origin="pool"} 1
# HELP ctl_segment_pool_bytes Bytes currently cached by the segment pool
# TYPE ctl_segment_pool_bytes gauge
ctl_segment_pool_bytes 8192
# HELP ctl_watchdog_queue_length AsyncTimeout nodes waiting in the watchdog queue
# TYPE ctl_watchdog_queue_length gauge
ctl_watchdog_queue_length 3
# HELP ctl_watchdog_running 1 while the watchdog goroutine is alive
# TYPE ctl_watchdog_running gauge
ctl_watchdog_running 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"ctl_segments_acquired_total", "ctl_segment_pool_bytes",
		"ctl_watchdog_queue_length", "ctl_watchdog_running"))

	var nilMetrics *control.Metrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordAcquire(true)
		nilMetrics.RecordRelease(control.OutcomePooled, 0)
		nilMetrics.RecordTimeoutExceeded("io")
		nilMetrics.SetWatchdogRunning(false)
	})
}

func TestDebugProbes(t *testing.T) {
	p := control.NewDebugProbes()
	p.RegisterProbe("answer", func() any { return 42 })
	assert.Equal(t, map[string]any{"answer": 42}, p.DumpState())
	assert.Same(t, control.DefaultProbes(), control.DefaultProbes())
}

func TestLoaderWatchReloadsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hioload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool:\n  max_bytes: 16384\n"), 0o600))

	loader := control.NewLoader().WithConfigPath(path).WithLookupEnv(envMap(nil))
	cfg, err := loader.Load()
	require.NoError(t, err)
	store := control.NewConfigStore(cfg)

	reloaded := make(chan control.Config, 16)
	store.OnReload(func(c control.Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loader.Watch(ctx, store) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Rewrite until the watcher, which starts asynchronously, sees a change.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("pool:\n  max_bytes: 32768\n"), 0o600)
		select {
		case c := <-reloaded:
			return c.Pool.MaxBytes == 32768
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 32768, store.Snapshot().Pool.MaxBytes)
}

func TestLoaderWatchNeedsPath(t *testing.T) {
	err := control.NewLoader().Watch(context.Background(), control.NewConfigStore(nil))
	assert.Error(t, err)
}
