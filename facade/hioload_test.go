package facade_test

import (
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/core/timeout"
	"github.com/momentics/hioload-io/facade"
	"github.com/momentics/hioload-io/pool"
	"github.com/momentics/hioload-io/transport"
)

func restoreDefaults(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, facade.Configure(control.DefaultConfig(), nil))
		facade.SetLogger(nil)
		require.NoError(t, facade.Shutdown())
	})
}

func TestConfigureAppliesToDefaults(t *testing.T) {
	restoreDefaults(t)
	cfg := control.DefaultConfig()
	cfg.Pool.MaxBytes = 2 * pool.SegmentSize
	cfg.Watchdog.IdleTimeout = 5 * time.Second
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "facade_test"

	reg := prometheus.NewRegistry()
	require.NoError(t, facade.Configure(cfg, reg))
	assert.EqualValues(t, 2*pool.SegmentSize, pool.DefaultSegmentPool().MaxBytes())
	assert.NotNil(t, control.DefaultMetrics())

	b := facade.NewBuffer()
	_, _ = b.Write(make([]byte, 4*pool.SegmentSize))
	b.Clear()
	assert.LessOrEqual(t, pool.DefaultSegmentPool().PooledBytes(), int64(2*pool.SegmentSize))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "facade_test_segments_released_total")
}

func TestSetLoggerReachesExistingComponents(t *testing.T) {
	restoreDefaults(t)
	p := pool.DefaultSegmentPool()
	w := timeout.DefaultWatchdog()
	require.NoError(t, w.Shutdown())

	core, logs := observer.New(zapcore.DebugLevel)
	facade.SetLogger(zap.New(core))
	control.Logger().Info("installed")
	assert.Equal(t, 1, logs.FilterMessage("installed").Len())

	p.SetMaxBytes(0)
	p.Release(p.Acquire())
	discarded := logs.FilterMessage("segment discarded")
	require.Equal(t, 1, discarded.Len())
	assert.Equal(t, "segment_pool", discarded.All()[0].ContextMap()["component"])

	at := timeout.NewAsync("idle", nil)
	at.Watchdog = w
	at.SetMaxDuration(time.Hour)
	at.Enter()
	assert.False(t, at.Exit())
	started := logs.FilterMessage("watchdog started")
	require.Equal(t, 1, started.Len())
	assert.Equal(t, "watchdog", started.All()[0].ContextMap()["component"])
}

func TestConfigureSetsTransportTimeout(t *testing.T) {
	restoreDefaults(t)
	cfg := control.DefaultConfig()
	cfg.Transport.Timeout = 250 * time.Millisecond
	require.NoError(t, facade.Configure(cfg, nil))

	client, server := net.Pipe()
	defer server.Close()
	sink := facade.Sink(client)
	assert.Equal(t, 250*time.Millisecond, sink.Timeout().MaxDuration())

	override := facade.Source(server, transport.WithTimeout(time.Second))
	assert.Equal(t, time.Second, override.Timeout().MaxDuration())
	require.NoError(t, sink.Close())
}

func TestConfigureRejectsInvalid(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Watchdog.IdleTimeout = 0
	assert.Error(t, facade.Configure(cfg, nil))

	cfg = control.DefaultConfig()
	cfg.Log.Level = "chatty"
	assert.Error(t, facade.Configure(cfg, nil))
}

func TestWatchReconfigures(t *testing.T) {
	restoreDefaults(t)
	store := control.NewConfigStore(nil)
	facade.Watch(store, nil)

	next := store.Snapshot()
	next.Pool.MaxBytes = 3 * pool.SegmentSize
	require.NoError(t, store.Update(next))
	assert.EqualValues(t, 3*pool.SegmentSize, pool.DefaultSegmentPool().MaxBytes())
}

func TestSinkSourceOverPipe(t *testing.T) {
	restoreDefaults(t)
	client, server := net.Pipe()

	sink := facade.BufferSink(facade.Sink(client, transport.WithTimeout(time.Second)))
	source := facade.BufferSource(facade.Source(server))

	go func() {
		_ = sink.WriteUTF8("hello\n")
		_ = sink.WriteUint32(7)
		_ = sink.Close()
	}()

	line, err := source.ReadUTF8Line()
	require.NoError(t, err)
	assert.Equal(t, "hello", line)
	v, err := source.ReadUint32()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)

	_, err = source.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, source.Close())
}

func TestFileHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	sink, err := facade.FileSink(path)
	require.NoError(t, err)
	bs := facade.BufferSink(sink)
	require.NoError(t, bs.WriteUTF8("one\n"))
	require.NoError(t, bs.Close())

	app, err := facade.AppendingFileSink(path)
	require.NoError(t, err)
	bs = facade.BufferSink(app)
	require.NoError(t, bs.WriteUTF8("two\n"))
	require.NoError(t, bs.Close())

	src, err := facade.FileSource(path)
	require.NoError(t, err)
	data, err := facade.BufferSource(src).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
