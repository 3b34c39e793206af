package sqlite

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"sigcopy/internal/store/model"
)

// executionRepository implements store.ExecutionRepository.
type executionRepository struct {
	db *gorm.DB
}

func NewExecutionRepo(db *gorm.DB) *executionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) Append(ctx context.Context, rec *model.ExecutionModel) error {
	if rec == nil {
		return errors.New("execution record cannot be nil")
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *executionRepository) ListBySignal(ctx context.Context, signalID string) ([]model.ExecutionModel, error) {
	var recs []model.ExecutionModel
	if err := r.db.WithContext(ctx).
		Where("signal_id = ?", signalID).
		Order("attempt ASC, id ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *executionRepository) CountByStatus(ctx context.Context) (map[model.ExecutionStatus]int64, error) {
	type row struct {
		Status model.ExecutionStatus
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&model.ExecutionModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[model.ExecutionStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
