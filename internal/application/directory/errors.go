// Package directory exposes the organization and individual use cases on
// top of the record store.
package directory

import (
	"errors"
	"fmt"

	"github.com/isow/backend/internal/domain/shared"
)

// storeError classifies a record store failure. Domain errors keep their
// code; anything else is reported as an unavailable store.
func storeError(op string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, shared.ErrStoreUnavailable.WithCause(err))
}

// inputError reports a domain invariant failure as a validation error
func inputError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return shared.ErrValidation.WithCause(de)
	}
	return err
}
