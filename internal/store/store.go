// Package store persists a ledger of conversion and heatmap runs so past
// batches can be listed and inspected after the fact.
package store

import (
	"context"
	"time"
)

// RunKind tells which subcommand produced a run row.
type RunKind string

const (
	RunKindConvert RunKind = "convert"
	RunKindHeatmap RunKind = "heatmap"
	RunKindExport  RunKind = "export"
)

// RunStatus is the terminal outcome of processing one input.
type RunStatus string

const (
	// RunStatusComplete means output was written.
	RunStatusComplete RunStatus = "complete"
	// RunStatusEmpty means traversal found nothing to write; no output
	// file exists and this is not a failure.
	RunStatusEmpty RunStatus = "empty"
	// RunStatusFailed means the input could not be processed.
	RunStatusFailed RunStatus = "failed"
)

// Run is one ledger row: a single input processed by a single command
// invocation.
type Run struct {
	ID        string    `json:"id"`
	Kind      RunKind   `json:"kind"`
	Input     string    `json:"input"`
	Output    string    `json:"output,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Count     int       `json:"count"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind         RunKind   `json:"kind,omitempty"`
	Status       RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

// Store defines the run-ledger persistence interface.
type Store interface {
	RecordRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
