package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/repositories"
)

// PostgresOutput buffers ledger messages and persists them in one pass on Close,
// after the run row they reference.
type PostgresOutput struct {
	ctx     context.Context
	repos   repositories.Repositories
	release func()

	run              *models.Run
	depotDispatches  []models.DepotDispatch
	outletDispatches []models.OutletDispatch
	snapshots        []models.StockSnapshot
}

// NewPostgresOutput takes ownership of release, which is called on Close.
func NewPostgresOutput(ctx context.Context, repos repositories.Repositories, release func()) *PostgresOutput {
	return &PostgresOutput{ctx: ctx, repos: repos, release: release}
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	var err error
	switch topic {
	case models.TopicRuns:
		var run models.Run
		if err = json.Unmarshal(msg, &run); err == nil {
			p.run = &run
		}
	case models.TopicDepotDispatch:
		var d models.DepotDispatch
		if err = json.Unmarshal(msg, &d); err == nil {
			p.depotDispatches = append(p.depotDispatches, d)
		}
	case models.TopicOutletDispatch:
		var d models.OutletDispatch
		if err = json.Unmarshal(msg, &d); err == nil {
			p.outletDispatches = append(p.outletDispatches, d)
		}
	case models.TopicStockLevels:
		var s models.StockSnapshot
		if err = json.Unmarshal(msg, &s); err == nil {
			p.snapshots = append(p.snapshots, s)
		}
	default:
		return fmt.Errorf("no table for topic %s", topic)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s message: %w", topic, err)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	if p.release != nil {
		defer p.release()
	}
	if p.run == nil {
		if len(p.depotDispatches)+len(p.outletDispatches)+len(p.snapshots) > 0 {
			return fmt.Errorf("ledger records without a run summary were not persisted")
		}
		return nil
	}

	if err := p.repos.Runs.Create(p.ctx, p.run); err != nil {
		return err
	}
	if err := p.repos.DepotDispatches.BulkCreate(p.ctx, p.depotDispatches); err != nil {
		return p.rollback(err)
	}
	if err := p.repos.OutletDispatches.BulkCreate(p.ctx, p.outletDispatches); err != nil {
		return p.rollback(err)
	}
	if err := p.repos.Snapshots.BulkCreate(p.ctx, p.snapshots); err != nil {
		return p.rollback(err)
	}

	log.Printf("Persisted run %s: %d depot loads, %d outlet trips, %d snapshots",
		p.run.ID, len(p.depotDispatches), len(p.outletDispatches), len(p.snapshots))
	p.run = nil
	return nil
}

// rollback deletes the partially written run; ledger rows cascade.
func (p *PostgresOutput) rollback(cause error) error {
	if err := p.repos.Runs.Delete(p.ctx, p.run.ID); err != nil {
		log.Printf("Failed to remove partial run %s: %v", p.run.ID, err)
	}
	return cause
}
