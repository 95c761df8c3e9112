package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/distsim/internal/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                 TEXT PRIMARY KEY,
    started_at         TIMESTAMPTZ NOT NULL,
    horizon_days       INTEGER NOT NULL,
    lead_days          INTEGER NOT NULL,
    requirement_source TEXT NOT NULL,
    depot_dispatches   INTEGER NOT NULL,
    outlet_dispatches  INTEGER NOT NULL,
    snapshots          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cg_lg_dispatch (
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    day           INTEGER NOT NULL,
    vehicle_id    TEXT NOT NULL,
    lg_id         TEXT NOT NULL,
    quantity_tons DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS lg_fps_dispatch (
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    day           INTEGER NOT NULL,
    vehicle_id    TEXT NOT NULL,
    lg_id         TEXT NOT NULL,
    fps_id        TEXT NOT NULL,
    quantity_tons DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_levels (
    run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    day              INTEGER NOT NULL,
    entity_type      TEXT NOT NULL,
    entity_id        TEXT NOT NULL,
    stock_level_tons DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS cg_lg_dispatch_run_idx ON cg_lg_dispatch (run_id, day);
CREATE INDEX IF NOT EXISTS lg_fps_dispatch_run_idx ON lg_fps_dispatch (run_id, day);
CREATE INDEX IF NOT EXISTS stock_levels_run_idx ON stock_levels (run_id, day);
`

// EnsureSchema creates the ledger tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func NewRepositories(pool *pgxpool.Pool) repositories.Repositories {
	return repositories.Repositories{
		Runs:             NewRunRepository(pool),
		DepotDispatches:  NewDepotDispatchRepository(pool),
		OutletDispatches: NewOutletDispatchRepository(pool),
		Snapshots:        NewStockSnapshotRepository(pool),
	}
}
