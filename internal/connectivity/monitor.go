// Package connectivity reports whether the inference server is reachable.
// Probe results are cached for a short time and concurrent probes are
// coalesced, so callers may check before every request.
package connectivity

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the reachability state reported by a Monitor.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusUnknown      Status = "unknown"
)

const (
	// DefaultTTL is how long a probe result stays fresh.
	DefaultTTL = 30 * time.Second

	// DefaultWait is how long CheckConnection waits for a running probe.
	DefaultWait = 1500 * time.Millisecond

	// DefaultProbeTimeout bounds a single probe.
	DefaultProbeTimeout = 10 * time.Second

	probeKey = "probe"
)

// Pinger is anything that can tell whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Result is the outcome of a connectivity check.
type Result struct {
	Status    Status    `json:"status"`
	Err       error     `json:"-"`
	CheckedAt time.Time `json:"checked_at"`
}

// Connected reports whether the result is StatusConnected.
func (r Result) Connected() bool {
	return r.Status == StatusConnected
}

// Monitor caches the result of probing a Pinger.
type Monitor struct {
	pinger       Pinger
	ttl          time.Duration
	wait         time.Duration
	probeTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger

	group singleflight.Group

	mu   sync.Mutex
	last *Result
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithTTL sets how long a probe result is reused.
func WithTTL(ttl time.Duration) Option {
	return func(m *Monitor) {
		m.ttl = ttl
	}
}

// WithWait sets how long CheckConnection waits for an in-flight probe
// before answering StatusConnecting. Zero or less waits for the probe.
func WithWait(wait time.Duration) Option {
	return func(m *Monitor) {
		m.wait = wait
	}
}

// WithProbeTimeout bounds a single probe.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		m.probeTimeout = timeout
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithLogger sets the logger used to report probe outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMonitor creates a Monitor for pinger.
func NewMonitor(pinger Pinger, opts ...Option) *Monitor {
	m := &Monitor{
		pinger:       pinger,
		ttl:          DefaultTTL,
		wait:         DefaultWait,
		probeTimeout: DefaultProbeTimeout,
		now:          time.Now,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckConnection returns the cached result while it is fresh. Otherwise
// it starts a probe, or joins one already running, and waits for it. A
// probe that outlasts the wait yields StatusConnecting and keeps running
// in the background so a later call can pick up its result.
func (m *Monitor) CheckConnection(ctx context.Context) Result {
	if r, ok := m.cached(); ok {
		return r
	}

	// The probe outlives this caller so joiners and the cache still get it.
	probeCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(probeKey, func() (any, error) {
		return m.probe(probeCtx), nil
	})

	var timeout <-chan time.Time
	if m.wait > 0 {
		timer := time.NewTimer(m.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-ch:
		return res.Val.(Result)
	case <-timeout:
		return Result{Status: StatusConnecting, CheckedAt: m.now()}
	case <-ctx.Done():
		return Result{Status: StatusUnknown, Err: ctx.Err(), CheckedAt: m.now()}
	}
}

// Last returns the most recent probe result without probing. A monitor
// that has never probed reports StatusUnknown.
func (m *Monitor) Last() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Result{Status: StatusUnknown}
	}
	return *m.last
}

// Invalidate drops the cached result so the next check probes again.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.last = nil
	m.mu.Unlock()
}

func (m *Monitor) cached() (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Result{}, false
	}
	if m.now().Sub(m.last.CheckedAt) >= m.ttl {
		return Result{}, false
	}
	return *m.last, true
}

func (m *Monitor) probe(ctx context.Context) (res Result) {
	if m.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.probeTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			res = Result{Status: StatusUnknown, CheckedAt: m.now()}
			m.logger.Warn("connectivity probe panicked", "panic", p)
		}
		m.store(res)
	}()

	err := m.pinger.Ping(ctx)
	res = Result{Status: StatusConnected, CheckedAt: m.now()}
	if err != nil {
		res.Status = StatusDisconnected
		res.Err = err
		m.logger.Debug("inference server unreachable", "error", err)
	}
	return res
}

func (m *Monitor) store(res Result) {
	m.mu.Lock()
	m.last = &res
	m.mu.Unlock()
}
