package star

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"astro-server/internal/shared/database"
	"astro-server/internal/shared/errors"
)

// Service runs each operation as one unit of work: a single transaction that
// commits on success and rolls back on any failure.
type Service struct {
	db     *database.DB
	repo   *Repository
	logger *slog.Logger
}

func NewService(db *database.DB, repo *Repository, logger *slog.Logger) *Service {
	logger.Debug("Initializing star service")

	return &Service{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// Create looks the name up first and inserts only when it is free. Names are
// compared and stored exactly as given; blank ones are rejected. The check
// and the insert are not atomic across concurrent transactions; duplicates
// that slip through are removed by the Reconciler.
func (s *Service) Create(ctx context.Context, req CreateStarRequest) (*Star, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	logger := s.logger.With("component", "star_service", "operation", "create", "name", req.Name)

	var created *Star
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		existing, err := s.repo.FindByName(ctx, req.Name, tx)
		if err != nil {
			return errors.WrapInternal("failed to check star name", err)
		}
		if existing != nil {
			return &DuplicateNameError{Name: req.Name, ExistingID: existing.ID}
		}

		created, err = s.repo.Insert(ctx, req, tx)
		if err != nil {
			return errors.WrapInternal("failed to create star", err)
		}
		return nil
	})
	if err != nil {
		return nil, asStorageError(err, "failed to create star")
	}

	logger.Info("Star created", "star_id", created.ID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Star, error) {
	var found *Star
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		var err error
		found, err = s.repo.FindByID(ctx, id, tx)
		if err != nil {
			return errors.WrapInternal("failed to get star", err)
		}
		if found == nil {
			return notFound(id)
		}
		return nil
	})
	if err != nil {
		return nil, asStorageError(err, "failed to get star")
	}
	return found, nil
}

// List returns all stars; the slice is empty, never nil, when there are none.
func (s *Service) List(ctx context.Context) ([]Star, error) {
	var stars []Star
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		var err error
		stars, err = s.repo.List(ctx, tx)
		if err != nil {
			return errors.WrapInternal("failed to list stars", err)
		}
		return nil
	})
	if err != nil {
		return nil, asStorageError(err, "failed to list stars")
	}

	if stars == nil {
		stars = []Star{}
	}
	return stars, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	logger := s.logger.With("component", "star_service", "operation", "delete", "star_id", id)

	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		deleted, err := s.repo.Delete(ctx, id, tx)
		if err != nil {
			return errors.WrapInternal("failed to delete star", err)
		}
		if !deleted {
			return notFound(id)
		}
		return nil
	})
	if err != nil {
		return asStorageError(err, "failed to delete star")
	}

	logger.Info("Star deleted")
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx, nil)
	if err != nil {
		return 0, errors.WrapInternal("failed to count stars", err)
	}
	return count, nil
}

func validateCreate(req CreateStarRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.Validation("name is required")
	}
	if strings.TrimSpace(req.SpectralType) == "" {
		return errors.Validation("spectral_type is required")
	}
	if math.IsNaN(req.Magnitude) || math.IsInf(req.Magnitude, 0) {
		return errors.Validation("magnitude must be a finite number")
	}
	if math.IsNaN(req.Distance) || math.IsInf(req.Distance, 0) {
		return errors.Validation("distance must be a finite number")
	}
	return nil
}

// asStorageError keeps typed domain errors as they are and classifies
// anything else (begin/commit failures) as internal.
func asStorageError(err error, message string) error {
	var appErr *errors.AppError
	var typed errors.Typed
	if errors.As(err, &appErr) || errors.As(err, &typed) {
		return err
	}
	return errors.WrapInternal(message, err)
}
