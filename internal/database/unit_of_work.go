package database

import (
	"context"

	"gorm.io/gorm"
)

// Mutation is one step of a unit of work, expressed against a store handle S.
type Mutation[S any] func(ctx context.Context, store S) error

// UnitOfWork commits a list of mutations together: either all apply or none do.
type UnitOfWork[S any] interface {
	Commit(ctx context.Context, mutations ...Mutation[S]) error
}

// GormUnitOfWork runs mutations inside one gorm transaction. bind turns the
// transaction handle into the store type the mutations expect.
type GormUnitOfWork[S any] struct {
	db   *gorm.DB
	bind func(tx *gorm.DB) S
}

func NewUnitOfWork[S any](db *gorm.DB, bind func(tx *gorm.DB) S) *GormUnitOfWork[S] {
	return &GormUnitOfWork[S]{db: db, bind: bind}
}

func (u *GormUnitOfWork[S]) Commit(ctx context.Context, mutations ...Mutation[S]) error {
	if len(mutations) == 0 {
		return nil
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := u.bind(tx)
		for _, m := range mutations {
			if err := m(ctx, store); err != nil {
				return err
			}
		}
		return nil
	})
}
