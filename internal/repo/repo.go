package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrStale means a version-checked write matched no row: the row changed
// (or no longer satisfies the guard) since it was read.
var ErrStale = errors.New("stale write")

type GormRepo struct {
	DB *gorm.DB
}

// Transaction runs fn against a repo bound to a single transaction.
// fn must not touch the outer repo.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}
