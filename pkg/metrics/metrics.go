// Package metrics provides opt-in Prometheus instrumentation for file
// operations.
//
// Metrics are disabled until InitRegistry is called. Recorder constructors
// return nil while disabled, and every recorder method is nil-safe, so
// instrumented code pays a single nil check when metrics are off.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection with a fresh registry.
// Call once at startup, before constructing any recorder.
func InitRegistry() {
	InitWithRegistry(prometheus.NewRegistry())
}

// InitWithRegistry enables metrics collection against an existing registry,
// for embedding into a process that already exposes one.
func InitWithRegistry(reg *prometheus.Registry) {
	mu.Lock()
	defer mu.Unlock()
	registry = reg
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// Registry returns the active registry, or nil when metrics are disabled.
// Callers typically hand this to promhttp for scraping.
func Registry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
