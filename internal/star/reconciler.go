package star

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"astro-server/internal/shared/database"
)

// DuplicateStore is the part of the record store the Reconciler works on.
// All calls are made inside the Reconciler's transaction.
type DuplicateStore interface {
	FindDuplicateNames(ctx context.Context, tx *database.Tx) ([]DuplicateGroup, error)
	ListByName(ctx context.Context, name string, tx *database.Tx) ([]Star, error)
	Delete(ctx context.Context, id int, tx *database.Tx) (bool, error)
}

// Reconciler removes stars that share a name, keeping the one with the lowest id.
type Reconciler struct {
	db     *database.DB
	store  DuplicateStore
	logger *slog.Logger
}

type RunOptions struct {
	// DryRun performs every step but rolls the transaction back.
	DryRun bool
}

type GroupResult struct {
	Name    string
	Count   int
	Kept    Star
	Deleted []Star
}

type Report struct {
	DryRun       bool
	Groups       []GroupResult
	TotalDeleted int
}

var errDryRun = errors.New("dry run")

func NewReconciler(db *database.DB, store DuplicateStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		db:     db,
		store:  store,
		logger: logger,
	}
}

// Run deletes every non-kept duplicate in a single transaction. If any step
// fails nothing is deleted and the error is returned.
func (rc *Reconciler) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	logger := rc.logger.With("component", "reconciler", "operation", "run", "dry_run", opts.DryRun)
	logger.Info("Starting duplicate reconciliation")

	var report *Report
	err := database.WithTx(ctx, rc.db, func(tx *database.Tx) error {
		var err error
		report, err = rc.reconcile(ctx, tx, logger)
		if err != nil {
			return err
		}
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		logger.Error("Reconciliation failed, all deletions rolled back", "error", err)
		return nil, err
	}

	report.DryRun = opts.DryRun
	logger.Info("Duplicate reconciliation finished",
		"groups", len(report.Groups),
		"deleted", report.TotalDeleted,
	)
	return report, nil
}

func (rc *Reconciler) reconcile(ctx context.Context, tx *database.Tx, logger *slog.Logger) (*Report, error) {
	groups, err := rc.store.FindDuplicateNames(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate names: %w", err)
	}

	report := &Report{}
	for _, group := range groups {
		members, err := rc.store.ListByName(ctx, group.Name, tx)
		if err != nil {
			return nil, fmt.Errorf("failed to list stars named %q: %w", group.Name, err)
		}
		if len(members) < 2 {
			logger.Warn("Duplicate group shrank before reconciliation", "name", group.Name, "count", len(members))
			continue
		}

		result := GroupResult{
			Name:  group.Name,
			Count: len(members),
			Kept:  members[0],
		}

		for _, dup := range members[1:] {
			deleted, err := rc.store.Delete(ctx, dup.ID, tx)
			if err != nil {
				return nil, fmt.Errorf("failed to delete duplicate %q (ID: %d): %w", dup.Name, dup.ID, err)
			}
			if !deleted {
				logger.Warn("Duplicate already removed", "name", dup.Name, "star_id", dup.ID)
				continue
			}
			logger.Debug("Deleted duplicate", "name", dup.Name, "star_id", dup.ID, "kept_id", result.Kept.ID)
			result.Deleted = append(result.Deleted, dup)
			report.TotalDeleted++
		}

		report.Groups = append(report.Groups, result)
	}

	return report, nil
}

// Summary returns a one-line description such as "1 duplicate group, 1 row deleted".
func (r *Report) Summary() string {
	verb := "deleted"
	if r.DryRun {
		verb = "to delete"
	}
	return fmt.Sprintf("%s, %s %s",
		plural(len(r.Groups), "duplicate group", "duplicate groups"),
		plural(r.TotalDeleted, "row", "rows"),
		verb,
	)
}

// WriteTo writes the human-readable report.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}

func (r *Report) String() string {
	var b strings.Builder

	if r.DryRun {
		b.WriteString("Dry run: no changes were committed.\n\n")
	}

	if len(r.Groups) == 0 {
		b.WriteString("No duplicates found in the database.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Found %s:\n", plural(len(r.Groups), "duplicate group", "duplicate groups"))
	for _, g := range r.Groups {
		fmt.Fprintf(&b, "  - %s: %d occurrences\n", g.Name, g.Count)
	}

	action := "Deleted duplicate"
	if r.DryRun {
		action = "Would delete duplicate"
	}
	for _, g := range r.Groups {
		fmt.Fprintf(&b, "\nKeeping %s (ID: %d)\n", g.Kept.Name, g.Kept.ID)
		for _, d := range g.Deleted {
			fmt.Fprintf(&b, "  %s: %s (ID: %d)\n", action, d.Name, d.ID)
		}
	}

	b.WriteString("\n")
	if r.DryRun {
		fmt.Fprintf(&b, "Would remove %s.\n", plural(r.TotalDeleted, "duplicate row", "duplicate rows"))
	} else {
		fmt.Fprintf(&b, "Removed %s.\n", plural(r.TotalDeleted, "duplicate row", "duplicate rows"))
	}
	return b.String()
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
