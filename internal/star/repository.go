package star

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"astro-server/internal/shared/database"
)

const starColumns = "id, name, magnitude, distance, spectral_type"

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing star repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStar(row rowScanner) (*Star, error) {
	var s Star
	if err := row.Scan(&s.ID, &s.Name, &s.Magnitude, &s.Distance, &s.SpectralType); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) Insert(ctx context.Context, req CreateStarRequest, tx *database.Tx) (*Star, error) {
	exec := r.db.Executor(tx)

	logger := r.logger.With(
		"component", "star_repository",
		"operation", "insert",
		"name", req.Name,
	)
	logger.Debug("Inserting star")

	query := `
		INSERT INTO stars (name, magnitude, distance, spectral_type)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + starColumns

	s, err := scanStar(exec.QueryRowContext(ctx, query, req.Name, req.Magnitude, req.Distance, req.SpectralType))
	if err != nil {
		logger.Error("Failed to insert star", "error", err)
		return nil, fmt.Errorf("failed to insert star: %w", err)
	}

	logger.Debug("Star inserted", "star_id", s.ID)
	return s, nil
}

// FindByName returns the lowest-id star with the given name, or nil when none exists.
func (r *Repository) FindByName(ctx context.Context, name string, tx *database.Tx) (*Star, error) {
	logger := r.logger.With("component", "star_repository", "operation", "find_by_name", "name", name)

	query := `SELECT ` + starColumns + ` FROM stars WHERE name = $1 ORDER BY id LIMIT 1`

	s, err := scanStar(r.db.Executor(tx).QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("No star found with name")
			return nil, nil
		}
		logger.Error("Database error finding star by name", "error", err)
		return nil, fmt.Errorf("failed to find star by name: %w", err)
	}

	return s, nil
}

// FindByID returns the star with the given id, or nil when none exists.
func (r *Repository) FindByID(ctx context.Context, id int, tx *database.Tx) (*Star, error) {
	logger := r.logger.With("component", "star_repository", "operation", "find_by_id", "star_id", id)

	query := `SELECT ` + starColumns + ` FROM stars WHERE id = $1`

	s, err := scanStar(r.db.Executor(tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("No star found with ID")
			return nil, nil
		}
		logger.Error("Database error finding star by ID", "error", err)
		return nil, fmt.Errorf("failed to find star by ID: %w", err)
	}

	return s, nil
}

// List returns every star in storage order.
func (r *Repository) List(ctx context.Context, tx *database.Tx) ([]Star, error) {
	return r.queryStars(ctx, tx, "list", `SELECT `+starColumns+` FROM stars`)
}

// ListByName returns all stars sharing name, lowest id first.
func (r *Repository) ListByName(ctx context.Context, name string, tx *database.Tx) ([]Star, error) {
	return r.queryStars(ctx, tx, "list_by_name", `SELECT `+starColumns+` FROM stars WHERE name = $1 ORDER BY id`, name)
}

func (r *Repository) queryStars(ctx context.Context, tx *database.Tx, operation, query string, args ...any) ([]Star, error) {
	logger := r.logger.With("component", "star_repository", "operation", operation)

	rows, err := r.db.Executor(tx).QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query stars", "error", err)
		return nil, fmt.Errorf("failed to query stars: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var stars []Star
	for rows.Next() {
		s, err := scanStar(rows)
		if err != nil {
			logger.Error("Failed to scan star row", "error", err)
			return nil, fmt.Errorf("failed to scan star: %w", err)
		}
		stars = append(stars, *s)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating stars: %w", err)
	}

	logger.Debug("Stars retrieved", "count", len(stars))
	return stars, nil
}

// Delete removes the star with the given id and reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id int, tx *database.Tx) (bool, error) {
	logger := r.logger.With("component", "star_repository", "operation", "delete", "star_id", id)

	result, err := r.db.Executor(tx).ExecContext(ctx, `DELETE FROM stars WHERE id = $1`, id)
	if err != nil {
		logger.Error("Failed to delete star", "error", err)
		return false, fmt.Errorf("failed to delete star: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	logger.Debug("Star delete executed", "rows_affected", affected)
	return affected > 0, nil
}

// FindDuplicateNames returns every name held by more than one star, ordered by name.
func (r *Repository) FindDuplicateNames(ctx context.Context, tx *database.Tx) ([]DuplicateGroup, error) {
	logger := r.logger.With("component", "star_repository", "operation", "find_duplicate_names")

	query := `
		SELECT name, COUNT(id)
		FROM stars
		GROUP BY name
		HAVING COUNT(id) > 1
		ORDER BY name`

	rows, err := r.db.Executor(tx).QueryContext(ctx, query)
	if err != nil {
		logger.Error("Failed to query duplicate names", "error", err)
		return nil, fmt.Errorf("failed to query duplicate names: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var groups []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		if err := rows.Scan(&g.Name, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate groups: %w", err)
	}

	logger.Debug("Duplicate names retrieved", "groups", len(groups))
	return groups, nil
}

func (r *Repository) Count(ctx context.Context, tx *database.Tx) (int, error) {
	var count int
	if err := r.db.Executor(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM stars`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stars: %w", err)
	}
	return count, nil
}
