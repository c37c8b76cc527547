package storage

import (
	"context"

	"wumpus/internal/model"
)

// Store persists evaluation results. Game state itself is never stored.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns the runs of one batch, or every run when batchID is
	// empty, oldest first and in batch index order.
	ListRuns(ctx context.Context, batchID string) ([]model.RunRecord, error)
	SaveBatch(ctx context.Context, batch model.BatchRecord) error
	GetBatch(ctx context.Context, id string) (model.BatchRecord, bool, error)
	ListBatches(ctx context.Context) ([]model.BatchRecord, error)
}

// Resetter is implemented by stores that can drop everything they hold.
type Resetter interface {
	Reset(ctx context.Context) error
}
