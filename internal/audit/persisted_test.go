package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/output"
	"github.com/chrisdamba/distsim/internal/repositories"
	"github.com/chrisdamba/distsim/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedRuns map[string]*models.Run

func (s storedRuns) Create(ctx context.Context, run *models.Run) error {
	s[run.ID] = run
	return nil
}

func (s storedRuns) GetByID(ctx context.Context, id string) (*models.Run, error) {
	run, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, nil
}

func (s storedRuns) Delete(ctx context.Context, id string) error {
	delete(s, id)
	return nil
}

type storedRows[T any] struct {
	rows []T
	err  error
}

func (s *storedRows[T]) BulkCreate(ctx context.Context, rows []T) error {
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *storedRows[T]) GetByRun(ctx context.Context, runID string) ([]T, error) {
	return s.rows, s.err
}

type store struct {
	runs      storedRuns
	depot     *storedRows[models.DepotDispatch]
	outlet    *storedRows[models.OutletDispatch]
	snapshots *storedRows[models.StockSnapshot]
}

func (s *store) repos() repositories.Repositories {
	return repositories.Repositories{
		Runs:             s.runs,
		DepotDispatches:  s.depot,
		OutletDispatches: s.outlet,
		Snapshots:        s.snapshots,
	}
}

// persistedRun simulates the audit scenario and stores it through the Postgres sink.
func persistedRun(t *testing.T) (*simulator.Simulator, *models.Result, *store) {
	t.Helper()
	sim := simulator.NewSimulator(models.DefaultConfig(), scenario())
	sim.RunID = "audit-stored"
	res, err := sim.Simulate()
	require.NoError(t, err)

	s := &store{
		runs:      storedRuns{},
		depot:     &storedRows[models.DepotDispatch]{},
		outlet:    &storedRows[models.OutletDispatch]{},
		snapshots: &storedRows[models.StockSnapshot]{},
	}
	out := output.NewPostgresOutput(context.Background(), s.repos(), func() {})
	require.NoError(t, sim.Publish(out, res))
	require.NoError(t, out.Close())
	return sim, res, s
}

func TestLoadReadsBackStoredRun(t *testing.T) {
	_, res, s := persistedRun(t)

	got, err := Load(context.Background(), s.repos(), res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Run.LeadDays, got.Run.LeadDays)
	assert.Equal(t, res.DepotDispatches, got.DepotDispatches)
	assert.Equal(t, res.OutletDispatches, got.OutletDispatches)
	assert.Len(t, got.Snapshots, len(res.Snapshots))
}

func TestVerifyPersisted(t *testing.T) {
	t.Run("clean stored run", func(t *testing.T) {
		sim, res, s := persistedRun(t)

		report, err := VerifyPersisted(context.Background(), s.repos(), sim.Network, sim.Requirement, res)
		require.NoError(t, err)
		assert.True(t, report.OK(), "violations: %v", report.Violations)
	})

	t.Run("lost stock rows", func(t *testing.T) {
		sim, res, s := persistedRun(t)
		s.snapshots.rows = s.snapshots.rows[:len(s.snapshots.rows)-1]

		report, err := VerifyPersisted(context.Background(), s.repos(), sim.Network, sim.Requirement, res)
		require.NoError(t, err)
		assert.Contains(t, checks(report), CheckPersisted)
		assert.ErrorIs(t, report.Err(), models.ErrAuditFailed)
	})

	t.Run("lost pre-stock loads", func(t *testing.T) {
		sim, res, s := persistedRun(t)
		require.NotEmpty(t, s.depot.rows)
		s.depot.rows = s.depot.rows[1:]

		report, err := VerifyPersisted(context.Background(), s.repos(), sim.Network, sim.Requirement, res)
		require.NoError(t, err)
		assert.Contains(t, checks(report), CheckPersisted)
	})

	t.Run("missing run", func(t *testing.T) {
		sim, res, s := persistedRun(t)
		delete(s.runs, res.Run.ID)

		_, err := VerifyPersisted(context.Background(), s.repos(), sim.Network, sim.Requirement, res)
		assert.ErrorContains(t, err, "audit-stored not found")
	})

	t.Run("ledger read failure", func(t *testing.T) {
		sim, res, s := persistedRun(t)
		s.outlet.err = errors.New("connection reset")

		_, err := VerifyPersisted(context.Background(), s.repos(), sim.Network, sim.Requirement, res)
		assert.ErrorContains(t, err, "connection reset")
	})
}
