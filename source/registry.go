package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

const (
	defaultFailureThreshold = 3
	defaultMaxConcurrent    = 8
)

// Registry maps source names to Source instances. Registration order defines
// the default fan-out and point-lookup order. Each source gets a bounded
// worker pool so a slow dependency can never be hit by more than
// maxConcurrent outstanding calls.
type Registry struct {
	mu            sync.RWMutex
	order         []string
	entries       map[string]*registryEntry
	maxConcurrent int
	threshold     int
	logger        *slog.Logger
}

type registryEntry struct {
	source  Source
	pool    *ants.Pool
	fails   int // consecutive failed probes
	healthy bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxConcurrent bounds outstanding calls per source.
// Default is 8; values below 1 are raised to 1.
func WithMaxConcurrent(n int) RegistryOption {
	return func(r *Registry) {
		if n < 1 {
			n = 1
		}
		r.maxConcurrent = n
	}
}

// WithFailureThreshold sets how many consecutive failed probes mark a source
// unhealthy. Default is 3.
func WithFailureThreshold(n int) RegistryOption {
	return func(r *Registry) {
		if n < 1 {
			n = 1
		}
		r.threshold = n
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRegistry creates an empty source registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:       make(map[string]*registryEntry),
		maxConcurrent: defaultMaxConcurrent,
		threshold:     defaultFailureThreshold,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a source under its own name. Sources start healthy.
func (r *Registry) Register(src Source) error {
	if src == nil {
		return ErrNilSource
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := src.Name()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, name)
	}

	pool, err := ants.NewPool(r.maxConcurrent)
	if err != nil {
		return fmt.Errorf("create worker pool for %s: %w", name, err)
	}

	r.entries[name] = &registryEntry{source: src, pool: pool, healthy: true}
	r.order = append(r.order, name)
	r.logger.Debug("registered source", "source", name, "maxConcurrent", r.maxConcurrent)
	return nil
}

// Get returns the named source.
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return e.source, nil
}

// Names returns all registered source names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Sources returns all registered sources in registration order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].source)
	}
	return out
}

// Healthy returns the sources currently eligible for fan-out, in
// registration order.
func (r *Registry) Healthy() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		if e := r.entries[name]; e.healthy {
			out = append(out, e.source)
		}
	}
	return out
}

// HealthyCount returns how many sources are currently eligible for fan-out.
func (r *Registry) HealthyCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.healthy {
			n++
		}
	}
	return n
}

// Do runs task on the named source's bounded worker pool and waits for it to
// finish or for ctx to expire. The task keeps running to completion either
// way; it is expected to honor ctx itself.
func (r *Registry) Do(ctx context.Context, name string, task func()) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}

	done := make(chan struct{})
	if err := e.pool.Submit(func() {
		defer close(done)
		task()
	}); err != nil {
		return fmt.Errorf("submit to %s pool: %w", name, err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Probe health-checks one source and updates its circuit-breaker state.
// A source is marked unhealthy after threshold consecutive failed probes and
// becomes healthy again on the first successful probe.
func (r *Registry) Probe(ctx context.Context, name string) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}

	err := e.source.Health(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		if !e.healthy {
			r.logger.Info("source recovered", "source", name)
		}
		e.fails = 0
		e.healthy = true
		return nil
	}

	e.fails++
	if e.fails >= r.threshold && e.healthy {
		e.healthy = false
		r.logger.Warn("source marked unhealthy", "source", name, "consecutiveFailures", e.fails, "err", err)
	}
	return err
}

// ProbeAll health-checks every registered source. Errors are reflected in
// breaker state, not returned; fan-out uses Healthy() afterwards.
func (r *Registry) ProbeAll(ctx context.Context) {
	for _, name := range r.Names() {
		if err := r.Probe(ctx, name); err != nil {
			r.logger.Debug("health probe failed", "source", name, "err", err)
		}
	}
}

// Close releases the per-source worker pools.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		e.pool.Release()
	}
}
