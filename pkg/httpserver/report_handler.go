package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/polyflare/parlay-resolver/pkg/types"
	"go.uber.org/zap"
)

// ReportProvider serves the most recent resolution run report.
type ReportProvider interface {
	LatestReport() *types.Report
}

// ReportHandler handles HTTP requests for resolution reports.
type ReportHandler struct {
	provider ReportProvider
	logger   *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(provider ReportProvider, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		provider: provider,
		logger:   logger,
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleReport handles GET /api/report requests, returning the latest
// run report. 404 until the first run completes.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := h.provider.LatestReport()
	if report == nil {
		h.writeError(w, "no resolution run has completed yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(report)
	if err != nil {
		h.logger.Error("report-response-encode-failed", zap.Error(err))
	}
}

func (h *ReportHandler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
