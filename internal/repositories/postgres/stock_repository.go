package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StockSnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewStockSnapshotRepository(pool *pgxpool.Pool) *StockSnapshotRepository {
	return &StockSnapshotRepository{pool: pool}
}

func (r *StockSnapshotRepository) BulkCreate(ctx context.Context, snapshots []models.StockSnapshot) error {
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"stock_levels"},
		[]string{"run_id", "day", "entity_type", "entity_id", "stock_level_tons"},
		pgx.CopyFromSlice(len(snapshots), func(i int) ([]interface{}, error) {
			s := snapshots[i]
			return []interface{}{s.RunID, s.Day, s.EntityType, s.EntityID, s.Level}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy stock snapshots: %w", err)
	}
	return nil
}

func (r *StockSnapshotRepository) GetByRun(ctx context.Context, runID string) ([]models.StockSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT run_id, day, entity_type, entity_id, stock_level_tons
        FROM stock_levels WHERE run_id = $1 ORDER BY day, entity_type, entity_id
    `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []models.StockSnapshot
	for rows.Next() {
		var s models.StockSnapshot
		if err := rows.Scan(&s.RunID, &s.Day, &s.EntityType, &s.EntityID, &s.Level); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
