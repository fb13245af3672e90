// Package store persists scoring runs, score batches, and normalization
// baselines behind a driver-agnostic interface.
package store

import (
	"context"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   model.RunKind   `json:"kind,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scoring pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, kind model.RunKind, input string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Score batches
	SaveCompanyScores(ctx context.Context, runID string, scores []model.ScoredCompany) error
	SaveContactScores(ctx context.Context, runID string, scores []model.ScoredContact) error

	// Normalization baseline
	GetBaseline(ctx context.Context, name string) (*model.Baseline, error)
	SaveBaseline(ctx context.Context, name string, baseline *model.Baseline) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// DefaultBaselineName is the baseline row used when no explicit name is
// given; it tracks the master-list score extremes.
const DefaultBaselineName = "master"
