package star

import (
	"context"
	"fmt"
	"testing"

	"astro-server/internal/shared/database"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(f fixture, store DuplicateStore) *Reconciler {
	if store == nil {
		store = f.repo
	}
	return NewReconciler(f.db, store, discardLogger())
}

func TestReconcilerKeepsLowestID(t *testing.T) {
	f := newFixture(t)
	f.seed(t, named(1, "Sirius"), named(5, "Sirius"), named(2, "Vega"))

	report, err := newTestReconciler(f, nil).Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, f.ids(t))
	assert.Equal(t, 1, report.TotalDeleted)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "Sirius", report.Groups[0].Name)
	assert.Equal(t, 2, report.Groups[0].Count)
	assert.Equal(t, 1, report.Groups[0].Kept.ID)
	assert.Equal(t, []Star{named(5, "Sirius")}, report.Groups[0].Deleted)
	assert.Equal(t, "1 duplicate group, 1 row deleted", report.Summary())
}

func TestReconcilerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, named(1, "Sirius"), named(5, "Sirius"), named(2, "Vega"), named(3, "Vega"), named(4, "Vega"))
	rc := newTestReconciler(f, nil)
	ctx := context.Background()

	first, err := rc.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalDeleted)

	second, err := rc.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, second.TotalDeleted)
	assert.Empty(t, second.Groups)
	assert.Equal(t, "0 duplicate groups, 0 rows deleted", second.Summary())
	assert.Equal(t, []int{1, 2}, f.ids(t))
}

func TestReconcilerTieBreakIgnoresInsertionOrder(t *testing.T) {
	orders := [][]int{
		{9, 3, 7},
		{3, 7, 9},
		{7, 9, 3},
	}

	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			f := newFixture(t)
			for _, id := range order {
				f.seed(t, named(id, "Betelgeuse"))
			}

			report, err := newTestReconciler(f, nil).Run(context.Background(), RunOptions{})
			require.NoError(t, err)

			assert.Equal(t, []int{3}, f.ids(t))
			assert.Equal(t, 3, report.Groups[0].Kept.ID)
			assert.Equal(t, 2, report.TotalDeleted)
		})
	}
}

func TestReconcilerNoDuplicates(t *testing.T) {
	f := newFixture(t)
	f.seed(t, named(1, "Sirius"), named(2, "Vega"))

	report, err := newTestReconciler(f, nil).Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Empty(t, report.Groups)
	assert.Equal(t, "No duplicates found in the database.\n", report.String())
	assert.Equal(t, []int{1, 2}, f.ids(t))
}

func TestReconcilerDryRunDeletesNothing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, named(1, "Sirius"), named(5, "Sirius"), named(2, "Vega"))

	report, err := newTestReconciler(f, nil).Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.TotalDeleted)
	assert.Equal(t, "1 duplicate group, 1 row to delete", report.Summary())
	assert.Equal(t, []int{1, 2, 5}, f.ids(t))
}

// failingStore fails the nth call to Delete.
type failingStore struct {
	*Repository
	failOn  int
	deletes int
}

func (s *failingStore) Delete(ctx context.Context, id int, tx *database.Tx) (bool, error) {
	s.deletes++
	if s.deletes == s.failOn {
		return false, fmt.Errorf("connection reset")
	}
	return s.Repository.Delete(ctx, id, tx)
}

func TestReconcilerRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, named(1, "Sirius"), named(5, "Sirius"), named(2, "Vega"), named(6, "Vega"))
	store := &failingStore{Repository: f.repo, failOn: 2}

	report, err := newTestReconciler(f, store).Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 2, store.deletes)

	// The first deletion succeeded inside the transaction but was rolled back.
	assert.Equal(t, []int{1, 2, 5, 6}, f.ids(t))
}

func TestReportGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, dryRun := range []bool{false, true} {
		name := "reconcile_report"
		if dryRun {
			name += "_dry_run"
		}

		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t,
				named(1, "Sirius"),
				named(2, "Vega"),
				named(3, "Polaris"),
				named(4, "Polaris"),
				named(5, "Sirius"),
				named(8, "Sirius"),
			)

			report, err := newTestReconciler(f, nil).Run(context.Background(), RunOptions{DryRun: dryRun})
			require.NoError(t, err)

			g.Assert(t, name, []byte(report.String()))
		})
	}
}
