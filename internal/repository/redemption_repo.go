package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedemptionRepository interface {
	Create(ctx context.Context, redemption *model.Redemption) error
	Update(ctx context.Context, redemption *model.Redemption) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Redemption, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Redemption, int64, error)
}

type redemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) RedemptionRepository {
	return &redemptionRepository{db: db}
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *model.Redemption) error {
	return GetDB(ctx, r.db).Create(redemption).Error
}

func (r *redemptionRepository) Update(ctx context.Context, redemption *model.Redemption) error {
	return GetDB(ctx, r.db).Save(redemption).Error
}

func (r *redemptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	var redemption model.Redemption
	if err := GetDB(ctx, r.db).First(&redemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *redemptionRepository) List(ctx context.Context, page, limit int, status string) ([]model.Redemption, int64, error) {
	var redemptions []model.Redemption
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Redemption{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Preload("Product").Preload("User").
		Scopes(func(q *gorm.DB) *gorm.DB {
			if status != "" {
				return q.Where("status = ?", status)
			}
			return q
		}).
		Order("created_at desc").Offset(offset).Limit(limit).Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}

	return redemptions, total, nil
}

func (r *redemptionRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Redemption, int64, error) {
	var redemptions []model.Redemption
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Redemption{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Preload("Product").Where("user_id = ?", userID).
		Order("created_at desc").Offset(offset).Limit(limit).Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}

	return redemptions, total, nil
}
