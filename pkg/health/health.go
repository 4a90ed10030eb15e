// Package health exposes liveness and readiness probes for the API
// server. Registered checks run on a background ticker; thresholds keep
// a single blip from flapping the probe state.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports whether a single component is healthy.
type CheckFunc func(ctx context.Context) error

// Default thresholds. A probe flips unhealthy after three consecutive
// failures and recovers on the first success.
const (
	defaultFailAfter    = 3
	defaultRecoverAfter = 1
)

// probe is one registered check with its current verdict. The verdict
// (ok, err) is guarded by mu because HTTP handlers read it while the
// ticker goroutine writes it. The consecutive counters belong to the
// ticker goroutine alone.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu  sync.Mutex
	ok  bool
	err error

	fails     int
	successes int
}

func newProbe(name string, timeout time.Duration, fn CheckFunc) *probe {
	// Probes start healthy so a slow first check does not fail a pod
	// that just came up.
	return &probe{name: name, timeout: timeout, fn: fn, ok: true}
}

// exec runs the check once and applies the thresholds. Only the ticker
// goroutine calls exec.
func (p *probe) exec(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.fn(checkCtx)
	cancel()

	verdict := p.ok
	if err != nil {
		p.successes = 0
		p.fails++
		if p.fails >= defaultFailAfter {
			verdict = false
		}
	} else {
		p.fails = 0
		p.successes++
		if p.successes >= defaultRecoverAfter {
			verdict = true
		}
	}

	p.mu.Lock()
	p.ok = verdict
	p.err = err
	p.mu.Unlock()
}

func (p *probe) healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ok
}

// failure returns the error from the most recent run, or nil.
func (p *probe) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Health drives the registered probes and serves /livez and /readyz.
// Readiness additionally requires an explicit SetReady(true), so the
// server controls when it starts and stops taking traffic.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	live      []*probe
	readiness []*probe
	stop      context.CancelFunc
}

func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a process-level check such as goroutine
// count or GC pause time.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newProbe(name, timeout, fn))
}

// AddReadinessCheck registers a dependency check such as database
// connectivity. A failing readiness probe takes the server out of
// rotation without restarting it.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, fn))
}

// Start launches one ticker goroutine per registered probe. Register
// every check before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.stop = cancel
	probes := make([]*probe, 0, len(h.live)+len(h.readiness))
	probes = append(probes, h.live...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.exec(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.exec(ctx)
				}
			}
		}(p)
	}
}

// SetReady flips the manual readiness gate. Called with true once
// startup completes and with false at the start of a graceful drain.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness probe
// passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	probes := h.readiness
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy() {
			return false
		}
	}
	return true
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes,
// 503 with the failing probes otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := append([]*probe(nil), h.live...)
	h.mu.RUnlock()

	writeStatus(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 only when SetReady(true) has been
// called and every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	probes := append([]*probe(nil), h.readiness...)
	h.mu.RUnlock()

	failed := failures(probes)
	if !ready {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if p.healthy() {
			continue
		}
		if err := p.failure(); err != nil {
			failed[p.name] = err.Error()
		} else {
			failed[p.name] = "check is unhealthy"
		}
	}
	return failed
}

func writeStatus(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failed) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failed
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
