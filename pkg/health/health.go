// Package health exposes liveness and readiness probes for the API server.
//
// Probes run on a background ticker. A probe flips to failing only after
// three consecutive errors and recovers on the first success, so a single
// slow database ping does not drop the service out of the load balancer.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const failureThreshold = 3

// probe tracks the rolling state of a single check. All fields behind mu are
// written by the ticker goroutine and read by the HTTP endpoints.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	mu       sync.Mutex
	failing  bool
	failures int
	lastErr  error
}

func (p *probe) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.check(checkCtx)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		p.failures++
		if p.failures >= failureThreshold {
			p.failing = true
		}
		return
	}
	p.failures = 0
	p.failing = false
}

// status returns the probe's current verdict and, when failing, the message
// to report.
func (p *probe) status() (failing bool, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.failing {
		return false, ""
	}
	if p.lastErr != nil {
		return true, p.lastErr.Error()
	}
	return true, "check is failing"
}

// Health runs the registered probes and serves /livez and /readyz.
type Health struct {
	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc

	readyMu sync.RWMutex
	ready   bool
}

// New returns a Health with no probes. The service reports not ready until
// SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe on the liveness endpoint. Liveness
// failures mean the process itself is broken (runaway goroutines, deadlock).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &probe{name: name, timeout: timeout, check: check})
}

// AddReadinessCheck registers a probe on the readiness endpoint. Readiness
// failures mean traffic should route elsewhere (database unreachable).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &probe{name: name, timeout: timeout, check: check})
}

// Start runs every registered probe on its own ticker until Stop or context
// cancellation. Register all probes before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append(append([]*probe(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			p.run(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Cleared during graceful shutdown
// so the load balancer drains the instance before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.readyMu.Lock()
	h.ready = ready
	h.readyMu.Unlock()
}

// IsReady reports whether the manual gate is open and every readiness probe
// passes.
func (h *Health) IsReady() bool {
	h.readyMu.RLock()
	ready := h.ready
	h.readyMu.RUnlock()
	if !ready {
		return false
	}
	for _, p := range h.snapshot(&h.readiness) {
		if failing, _ := p.status(); failing {
			return false
		}
	}
	return true
}

func (h *Health) snapshot(probes *[]*probe) []*probe {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*probe(nil), *probes...)
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while liveness probes pass, 503 with the
// failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failuresOf(h.snapshot(&h.liveness)))
}

// ReadyEndpoint serves /readyz: 200 while the manual gate is open and
// readiness probes pass, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := failuresOf(h.snapshot(&h.readiness))

	h.readyMu.RLock()
	ready := h.ready
	h.readyMu.RUnlock()
	if !ready {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func failuresOf(probes []*probe) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if failing, msg := p.status(); failing {
			failures[p.name] = msg
		}
	}
	return failures
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
