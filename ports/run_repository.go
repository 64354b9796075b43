package ports

import (
	"context"

	"episim/domain/core"
	"episim/domain/results"
)

// RunRecord is the persisted summary of a completed simulation run.
type RunRecord struct {
	ID       core.RunID
	Scenario string
	Seed     uint64
	NAgents  int
	NPts     int
}

// RunRepository persists simulation runs and their result series.
type RunRepository interface {
	// SaveRun stores the run record and all of its result series.
	SaveRun(ctx context.Context, rec RunRecord, res *results.Results) error

	// GetRun retrieves a run record by ID.
	GetRun(ctx context.Context, id core.RunID) (*RunRecord, error)

	// ListRuns returns recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)

	// GetSeries retrieves one stored result series of a run.
	GetSeries(ctx context.Context, id core.RunID, key string) (*results.Result, error)
}
