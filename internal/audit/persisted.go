package audit

import (
	"context"
	"fmt"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
	"github.com/chrisdamba/distsim/internal/repositories"
)

const CheckPersisted = "persisted"

// Load reads a stored run and its three ledgers back.
func Load(ctx context.Context, repos repositories.Repositories, runID string) (*models.Result, error) {
	run, err := repos.Runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	depot, err := repos.DepotDispatches.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read depot dispatches of run %s: %w", runID, err)
	}
	outlet, err := repos.OutletDispatches.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read outlet dispatches of run %s: %w", runID, err)
	}
	snapshots, err := repos.Snapshots.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read stock levels of run %s: %w", runID, err)
	}
	return &models.Result{
		Run:              *run,
		DepotDispatches:  depot,
		OutletDispatches: outlet,
		Snapshots:        snapshots,
	}, nil
}

// VerifyPersisted audits the stored copy of want and flags every ledger whose
// stored row count differs from the run summary or from want.
func VerifyPersisted(ctx context.Context, repos repositories.Repositories, n *network.Network, req RequirementLookup, want *models.Result) (*Report, error) {
	got, err := Load(ctx, repos, want.Run.ID)
	if err != nil {
		return nil, err
	}
	report := Verify(n, req, got)

	if got.Run.LeadDays != want.Run.LeadDays {
		report.add(CheckPersisted, 0, got.Run.ID, "stored %d lead day(s), run had %d", got.Run.LeadDays, want.Run.LeadDays)
	}
	for _, c := range []struct {
		ledger              string
		stored, summary, ran int
	}{
		{models.TopicDepotDispatch, len(got.DepotDispatches), got.Run.DepotDispatches, len(want.DepotDispatches)},
		{models.TopicOutletDispatch, len(got.OutletDispatches), got.Run.OutletDispatches, len(want.OutletDispatches)},
		{models.TopicStockLevels, len(got.Snapshots), got.Run.Snapshots, len(want.Snapshots)},
	} {
		if c.stored != c.summary || c.stored != c.ran {
			report.add(CheckPersisted, 0, c.ledger, "%d stored row(s), summary says %d, run produced %d", c.stored, c.summary, c.ran)
		}
	}
	return report, nil
}
