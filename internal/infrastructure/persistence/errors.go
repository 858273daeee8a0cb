package persistence

import (
	"errors"

	"github.com/dividas/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translate maps gorm errors to domain errors. dup is returned for unique
// key violations; nil dup keeps the generic conflict.
func translate(err error, notFound, dup error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if notFound != nil {
			return notFound
		}
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		if dup != nil {
			return dup
		}
		return shared.ErrAlreadyExists
	default:
		return err
	}
}
