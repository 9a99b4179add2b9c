package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kubotadaichi/HealthManagement/internal/models"
)

// Repository owns the persisted result rows, one Store per task type.
type Repository struct {
	db  *gorm.DB
	now func() time.Time

	PVT     *Store[models.PVTResult, *models.PVTResult]
	Flanker *Store[models.FlankerResult, *models.FlankerResult]
	EFSI    *Store[models.EFSIResult, *models.EFSIResult]
	VAS     *Store[models.VASResult, *models.VASResult]
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func New(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(r)
	}
	r.PVT = newStore[models.PVTResult, *models.PVTResult](db, "pvt result", r.now)
	r.Flanker = newStore[models.FlankerResult, *models.FlankerResult](db, "flanker result", r.now)
	r.EFSI = newStore[models.EFSIResult, *models.EFSIResult](db, "efsi result", r.now)
	r.VAS = newStore[models.VASResult, *models.VASResult](db, "vas result", r.now)
	return r
}

// InsertAtomic saves all records in a single transaction. Either every
// record is committed or none is; on failure the records' identities are
// cleared again so no caller sees an ID that was rolled back.
func (r *Repository) InsertAtomic(ctx context.Context, records ...models.Result) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			rec.Stamp(r.now())
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for _, rec := range records {
			rec.Stamp(time.Time{})
		}
		return storageError("insert session", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}
