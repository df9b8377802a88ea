package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PointsHistoryFilter narrows the transaction history listing
type PointsHistoryFilter struct {
	Type   string // earn, redeem or empty for all
	Source string // report_submission, ... or empty for all
}

type PointsRepository interface {
	Create(ctx context.Context, tx *model.PointsTransaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int, filter PointsHistoryFilter) ([]model.PointsTransaction, int64, error)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) Create(ctx context.Context, tx *model.PointsTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *pointsRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int, filter PointsHistoryFilter) ([]model.PointsTransaction, int64, error) {
	var txs []model.PointsTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PointsTransaction{}).Where("user_id = ?", userID)
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Source != "" {
		db = db.Where("source = ?", filter.Source)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
