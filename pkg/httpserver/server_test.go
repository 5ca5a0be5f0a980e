package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/pkg/healthprobe"
	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

type staticReportProvider struct {
	report *types.Report
}

func (p *staticReportProvider) LatestReport() *types.Report {
	return p.report
}

func newTestServer(t *testing.T, provider ReportProvider) *Server {
	t.Helper()

	healthChecker := healthprobe.New()
	healthChecker.Register("resolver")
	healthChecker.SetReady("resolver", true)

	return New(&Config{
		Port:           "0",
		Logger:         zap.NewNop(),
		HealthChecker:  healthChecker,
		ReportProvider: provider,
	})
}

func TestNew(t *testing.T) {
	server := newTestServer(t, nil)

	if server == nil {
		t.Fatal("New() returned nil server")
	}
	if server.server == nil {
		t.Error("New() server.server is nil")
	}
	if server.healthChecker == nil {
		t.Error("New() healthChecker is nil")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestReadyEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("Ready endpoint status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("Metrics endpoint status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestReportEndpointEmpty(t *testing.T) {
	server := newTestServer(t, &staticReportProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("Report endpoint status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestReportEndpoint(t *testing.T) {
	report := types.NewReport("run-1")
	report.Add(types.ReportEntry{
		ConditionID: common.HexToHash("0xaa"),
		Stage:       types.StageSubmit,
		State:       types.StateResolved,
		TxHash:      "0xdeadbeef",
	})
	report.Finish()

	server := newTestServer(t, &staticReportProvider{report: report})

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Report endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got types.Report
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if got.RunID != "run-1" {
		t.Errorf("RunID = %q, want %q", got.RunID, "run-1")
	}
	if len(got.Entries) != 1 {
		t.Fatalf("Entries = %d, want 1", len(got.Entries))
	}
	if got.Entries[0].TxHash != "0xdeadbeef" {
		t.Errorf("TxHash = %q, want %q", got.Entries[0].TxHash, "0xdeadbeef")
	}
	if got.Resolved != 1 {
		t.Errorf("Resolved = %d, want 1", got.Resolved)
	}
}

func TestNotFoundRoute(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	w := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(w, req)

	// No provider wired: the route is not registered at all.
	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestShutdownTimeout(t *testing.T) {
	server := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
