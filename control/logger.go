// control/logger.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide zap logger used by pools, watchdogs and transports.

package control

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger atomic.Pointer[zap.Logger]

func init() {
	globalLogger.Store(zap.NewNop())
}

// Logger returns the process-wide logger; a no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	return globalLogger.Load()
}

// SetLogger replaces the process-wide logger. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	globalLogger.Store(l)
}

// NewLogger builds a zap logger from cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
