// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging, runtime metrics and debug introspection layer
// for the hioload-io streaming core.
//
// Provides concurrent-safe state handling primitives including:
//   - Config loading (defaults, YAML file, HIOLOAD_* environment overrides)
//   - Snapshot config reads with reload listeners
//   - zap logger construction and a process-wide logger
//   - Prometheus collectors for the segment pool and the timeout watchdog
//   - Debug probe registration
package control
