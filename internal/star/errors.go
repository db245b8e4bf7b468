package star

import (
	"fmt"

	"astro-server/internal/shared/errors"
)

// DuplicateNameError is returned by the write path when a star with the same
// name already exists.
type DuplicateNameError struct {
	Name       string
	ExistingID int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("star with name '%s' already exists (ID: %d)", e.Name, e.ExistingID)
}

func (e *DuplicateNameError) ErrorType() errors.ErrorType {
	return errors.ErrorTypeConflict
}

func (e *DuplicateNameError) ErrorDetails() map[string]any {
	return map[string]any{
		"name":        e.Name,
		"existing_id": e.ExistingID,
	}
}

func notFound(id int) error {
	return errors.NotFoundf("star with ID %d not found", id)
}
