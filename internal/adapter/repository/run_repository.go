package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
)

// RunRepository persists completed pipeline runs.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun stores a finished run.
func (r *RunRepository) CreateRun(ctx context.Context, record *entities.RunRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// GetRunByName retrieves a run by its friendly name. Returns nil when the run
// does not exist.
func (r *RunRepository) GetRunByName(ctx context.Context, runName string) (*entities.RunRecord, error) {
	var record entities.RunRecord
	if err := r.db.WithContext(ctx).Where("run_name = ?", runName).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]entities.RunRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []entities.RunRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
