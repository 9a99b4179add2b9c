package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/kubotadaichi/HealthManagement/internal/errs"
	"github.com/kubotadaichi/HealthManagement/internal/models"
)

// DefaultListLimit is used when List is called without a positive limit.
const DefaultListLimit = 100

// ResultPtr constrains Store to pointer-to-result types.
type ResultPtr[T any] interface {
	*T
	models.Result
}

// Store persists one kind of task result. Rows are insert-only.
type Store[T any, P ResultPtr[T]] struct {
	db       *gorm.DB
	resource string
	now      func() time.Time
}

func newStore[T any, P ResultPtr[T]](db *gorm.DB, resource string, now func() time.Time) *Store[T, P] {
	return &Store[T, P]{db: db, resource: resource, now: now}
}

// Insert assigns the record a fresh identity and completion time and saves it.
func (s *Store[T, P]) Insert(ctx context.Context, rec P) error {
	rec.Stamp(s.now())
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		rec.Stamp(time.Time{})
		return storageError("insert "+s.resource, err)
	}
	return nil
}

// List returns records most-recent first.
func (s *Store[T, P]) List(ctx context.Context, offset, limit int) ([]T, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	results := []T{}
	err := s.db.WithContext(ctx).
		Order("completed_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, storageError("list "+s.resource, err)
	}
	return results, nil
}

// Get returns the record with id or an *errs.NotFoundError.
func (s *Store[T, P]) Get(ctx context.Context, id int) (*T, error) {
	// ids are assigned from 1
	if id <= 0 {
		return nil, &errs.NotFoundError{Resource: s.resource, ID: id}
	}
	var rec T
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &errs.NotFoundError{Resource: s.resource, ID: id}
	}
	if err != nil {
		return nil, storageError("get "+s.resource, err)
	}
	return &rec, nil
}

// storageError wraps err, copying SQLSTATE details when the postgres driver
// produced it.
func storageError(op string, err error) error {
	se := &errs.StorageError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		se.Code = pgErr.Code
		se.Message = pgErr.Message
		se.Detail = pgErr.Detail
	}
	return se
}
