package repositories

import (
	"context"

	"github.com/chrisdamba/distsim/internal/models"
)

type RunRepository interface {
	Create(ctx context.Context, run *models.Run) error
	GetByID(ctx context.Context, id string) (*models.Run, error)
	Delete(ctx context.Context, id string) error
}

type DepotDispatchRepository interface {
	BulkCreate(ctx context.Context, dispatches []models.DepotDispatch) error
	GetByRun(ctx context.Context, runID string) ([]models.DepotDispatch, error)
}

type OutletDispatchRepository interface {
	BulkCreate(ctx context.Context, dispatches []models.OutletDispatch) error
	GetByRun(ctx context.Context, runID string) ([]models.OutletDispatch, error)
}

type StockSnapshotRepository interface {
	BulkCreate(ctx context.Context, snapshots []models.StockSnapshot) error
	GetByRun(ctx context.Context, runID string) ([]models.StockSnapshot, error)
}

// Repositories groups the ledger stores of one backend.
type Repositories struct {
	Runs             RunRepository
	DepotDispatches  DepotDispatchRepository
	OutletDispatches OutletDispatchRepository
	Snapshots        StockSnapshotRepository
}
