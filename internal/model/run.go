package model

import "time"

// RunKind identifies which half of the pipeline a run executed.
type RunKind string

const (
	RunKindCompanies RunKind = "companies"
	RunKindContacts  RunKind = "contacts"
)

// RunStatus represents the current state of a scoring run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary holds the aggregate outcome of a completed run.
type RunSummary struct {
	Records      int     `json:"records"`
	Matched      int     `json:"matched,omitempty"`
	TopScore     float64 `json:"top_score"`
	MeanScore    float64 `json:"mean_score"`
	ConfigSource string  `json:"config_source,omitempty"`
}

// Run records a single execution of the scoring pipeline.
type Run struct {
	ID        string      `json:"id"`
	Kind      RunKind     `json:"kind"`
	Input     string      `json:"input"`
	Status    RunStatus   `json:"status"`
	Error     string      `json:"error,omitempty"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Baseline carries prior-run score extremes used to keep the normalization
// scale stable across iterations. Nil fields fall back to the current batch.
type Baseline struct {
	ContactScoreMin *float64 `json:"contact_score_min,omitempty"`
	ContactScoreMax *float64 `json:"contact_score_max,omitempty"`
	LeadScoreMin    *float64 `json:"lead_score_min,omitempty"`
	LeadScoreMax    *float64 `json:"lead_score_max,omitempty"`
}
