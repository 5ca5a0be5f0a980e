package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker provides health and readiness checks. Readiness is
// tracked per component: the probe reports ready only when every
// registered component is.
type HealthChecker struct {
	startTime time.Time

	mu         sync.RWMutex
	components map[string]bool
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		components: make(map[string]bool),
	}
}

// Register adds a component to the readiness set, initially not ready.
func (h *HealthChecker) Register(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = false
}

// SetReady marks one component's readiness.
func (h *HealthChecker) SetReady(name string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = ready
}

// ready reports overall readiness and a snapshot of component states.
// A checker with no registered components is not ready.
func (h *HealthChecker) readyState() (bool, map[string]bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make(map[string]bool, len(h.components))
	allReady := len(h.components) > 0
	for name, ready := range h.components {
		snapshot[name] = ready
		if !ready {
			allReady = false
		}
	}
	return allReady, snapshot
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string          `json:"status"`
	Uptime     string          `json:"uptime"`
	Components map[string]bool `json:"components,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(h.startTime)
		resp := HealthResponse{
			Status: "healthy",
			Uptime: uptime.String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if every component is ready, 503 otherwise.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready, components := h.readyState()

		resp := HealthResponse{
			Status:     "ready",
			Uptime:     time.Since(h.startTime).String(),
			Components: components,
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			resp.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
