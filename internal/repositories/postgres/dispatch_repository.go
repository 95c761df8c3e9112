package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DepotDispatchRepository struct {
	pool *pgxpool.Pool
}

func NewDepotDispatchRepository(pool *pgxpool.Pool) *DepotDispatchRepository {
	return &DepotDispatchRepository{pool: pool}
}

func (r *DepotDispatchRepository) BulkCreate(ctx context.Context, dispatches []models.DepotDispatch) error {
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"cg_lg_dispatch"},
		[]string{"run_id", "day", "vehicle_id", "lg_id", "quantity_tons"},
		pgx.CopyFromSlice(len(dispatches), func(i int) ([]interface{}, error) {
			d := dispatches[i]
			return []interface{}{d.RunID, d.Day, d.VehicleID, d.DepotID, d.Quantity}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy depot dispatches: %w", err)
	}
	return nil
}

func (r *DepotDispatchRepository) GetByRun(ctx context.Context, runID string) ([]models.DepotDispatch, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT run_id, day, vehicle_id, lg_id, quantity_tons
        FROM cg_lg_dispatch WHERE run_id = $1 ORDER BY day, vehicle_id
    `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispatches []models.DepotDispatch
	for rows.Next() {
		var d models.DepotDispatch
		if err := rows.Scan(&d.RunID, &d.Day, &d.VehicleID, &d.DepotID, &d.Quantity); err != nil {
			return nil, err
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, rows.Err()
}

type OutletDispatchRepository struct {
	pool *pgxpool.Pool
}

func NewOutletDispatchRepository(pool *pgxpool.Pool) *OutletDispatchRepository {
	return &OutletDispatchRepository{pool: pool}
}

func (r *OutletDispatchRepository) BulkCreate(ctx context.Context, dispatches []models.OutletDispatch) error {
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"lg_fps_dispatch"},
		[]string{"run_id", "day", "vehicle_id", "lg_id", "fps_id", "quantity_tons"},
		pgx.CopyFromSlice(len(dispatches), func(i int) ([]interface{}, error) {
			d := dispatches[i]
			return []interface{}{d.RunID, d.Day, d.VehicleID, d.DepotID, d.OutletID, d.Quantity}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy outlet dispatches: %w", err)
	}
	return nil
}

func (r *OutletDispatchRepository) GetByRun(ctx context.Context, runID string) ([]models.OutletDispatch, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT run_id, day, vehicle_id, lg_id, fps_id, quantity_tons
        FROM lg_fps_dispatch WHERE run_id = $1 ORDER BY day
    `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispatches []models.OutletDispatch
	for rows.Next() {
		var d models.OutletDispatch
		if err := rows.Scan(&d.RunID, &d.Day, &d.VehicleID, &d.DepotID, &d.OutletID, &d.Quantity); err != nil {
			return nil, err
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, rows.Err()
}
