package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	query := `
        INSERT INTO runs (
            id, started_at, horizon_days, lead_days, requirement_source,
            depot_dispatches, outlet_dispatches, snapshots
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.StartedAt,
		run.Horizon,
		run.LeadDays,
		run.RequirementFrom,
		run.DepotDispatches,
		run.OutletDispatches,
		run.Snapshots,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	query := `
        SELECT id, started_at, horizon_days, lead_days, requirement_source,
               depot_dispatches, outlet_dispatches, snapshots
        FROM runs WHERE id = $1
    `
	var run models.Run
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.StartedAt,
		&run.Horizon,
		&run.LeadDays,
		&run.RequirementFrom,
		&run.DepotDispatches,
		&run.OutletDispatches,
		&run.Snapshots,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Delete removes a run; its ledgers cascade.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM runs WHERE id = $1", id)
	return err
}
