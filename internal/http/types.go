package http

import (
	"github.com/fyrsmithlabs/fixd/internal/orchestrator"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/fyrsmithlabs/fixd/internal/telemetry"
)

// FixRequest is the request body for POST /api/v1/fix.
type FixRequest struct {
	Task *remediation.Task `json:"task"`

	// Strategy names the dispatch strategy. Empty means the server default.
	Strategy string `json:"strategy,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version,omitempty"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// HistoryResponse is the response body for GET /api/v1/history.
type HistoryResponse struct {
	Entries []orchestrator.HistoryEntry `json:"entries"`
	Count   int                         `json:"count"`
}

// ClassifyResponse is the response body for POST /api/v1/classify.
type ClassifyResponse struct {
	Classification remediation.Classification `json:"classification"`
	Strategy       remediation.Strategy       `json:"strategy"`
}
