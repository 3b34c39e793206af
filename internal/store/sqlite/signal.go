package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sigcopy/internal/store/model"
)

// signalRepository implements store.SignalRepository.
type signalRepository struct {
	db *gorm.DB
}

func NewSignalRepo(db *gorm.DB) *signalRepository {
	return &signalRepository{db: db}
}

// Insert is idempotent on signal_id: a duplicate insert returns the existing
// row untouched.
func (r *signalRepository) Insert(ctx context.Context, sig *model.SignalModel) (*model.SignalModel, bool, error) {
	if sig == nil {
		return nil, false, errors.New("signal cannot be nil")
	}
	if existing, err := r.FindByID(ctx, sig.SignalID); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, true, nil
	}
	if sig.CreatedAtUnix == 0 {
		sig.CreatedAtUnix = time.Now().Unix()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signal_id"}},
		DoNothing: true,
	}).Create(sig).Error
	if err != nil {
		return nil, false, err
	}
	// Re-read to cover the conflict path under concurrent inserts.
	stored, err := r.FindByID(ctx, sig.SignalID)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *signalRepository) FindByID(ctx context.Context, signalID string) (*model.SignalModel, error) {
	var sig model.SignalModel
	err := r.db.WithContext(ctx).Where("signal_id = ?", signalID).First(&sig).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sig, nil
}

func (r *signalRepository) ListRecent(ctx context.Context, limit int) ([]model.SignalModel, error) {
	var signals []model.SignalModel
	if limit <= 0 {
		limit = 100
	}
	if err := r.db.WithContext(ctx).
		Order("received_at DESC, id DESC").
		Limit(limit).
		Find(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}

func (r *signalRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SignalModel{}).Count(&count).Error
	return count, err
}
