package repository

import (
	"errors"

	"gorm.io/gorm"
)

// notFoundAsNil maps gorm.ErrRecordNotFound to a nil error so lookups can return (nil, nil).
func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
