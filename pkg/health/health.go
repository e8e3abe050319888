// Package health serves liveness and readiness probes backed by periodic
// dependency checks.
//
// A probe turns unhealthy only after FailureThreshold consecutive failures
// and healthy again after one success, so a single slow ping does not take
// the instance out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc returns nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

// Kind selects the endpoint a probe contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// DefaultFailureThreshold is the number of consecutive failures that mark a
// probe unhealthy.
const DefaultFailureThreshold = 3

type probe struct {
	kind      Kind
	name      string
	timeout   time.Duration
	check     CheckFunc
	threshold int

	// fails is only touched by the check loop.
	fails   int
	healthy atomic.Bool
	lastErr atomic.Pointer[string]
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.check(ctx); err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.fails++
		if p.fails >= p.threshold {
			p.healthy.Store(false)
		}
		return
	}
	p.lastErr.Store(nil)
	p.fails = 0
	p.healthy.Store(true)
}

func (p *probe) status() string {
	if p.healthy.Load() {
		return "ok"
	}
	if msg := p.lastErr.Load(); msg != nil {
		return *msg
	}
	return "unhealthy"
}

// Health holds the registered probes and the manual readiness switch.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes []*probe
	stop   context.CancelFunc
	done   chan struct{}
}

// New creates a Health that reports not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// Add registers a probe. Probes start healthy. Register every probe before
// Start.
func (h *Health) Add(kind Kind, name string, timeout time.Duration, check CheckFunc) {
	p := &probe{
		kind:      kind,
		name:      name,
		timeout:   timeout,
		check:     check,
		threshold: DefaultFailureThreshold,
	}
	p.healthy.Store(true)

	h.mu.Lock()
	h.probes = append(h.probes, p)
	h.mu.Unlock()
}

// Start runs all probes now and then every interval until Stop or ctx ends.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	h.mu.Lock()
	h.stop = cancel
	h.done = done
	probes := append([]*probe(nil), h.probes...)
	h.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			runAll(ctx, probes)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func runAll(ctx context.Context, probes []*probe) {
	var g errgroup.Group
	for _, p := range probes {
		g.Go(func() error {
			p.run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// Stop ends the check loop and waits for it. It may be called more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	stop, done := h.stop, h.done
	h.stop, h.done = nil, nil
	h.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

// SetReady flips the manual readiness switch.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the switch is on and every readiness probe passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	ok, _ := h.collect(Readiness)
	return ok
}

func (h *Health) collect(kind Kind) (bool, map[string]string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	healthy := true
	checks := make(map[string]string)
	for _, p := range h.probes {
		if p.kind != kind {
			continue
		}
		checks[p.name] = p.status()
		if !p.healthy.Load() {
			healthy = false
		}
	}
	return healthy, checks
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	ok, checks := h.collect(Liveness)
	writeStatus(w, ok, checks)
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ok, checks := h.collect(Readiness)
	if !h.ready.Load() {
		ok = false
		checks["_readiness"] = "service is not ready"
	}
	writeStatus(w, ok, checks)
}

// writeStatus renders {"status": "ok"|"unhealthy", "checks": {...}}.
func writeStatus(w http.ResponseWriter, ok bool, checks map[string]string) {
	status, code := "ok", http.StatusOK
	if !ok {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		if len(names) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(checks[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
