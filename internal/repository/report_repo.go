package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportFilter narrows report listings
type ReportFilter struct {
	Status   string
	Category string
	City     string
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	Update(ctx context.Context, report *model.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Report, error)
	List(ctx context.Context, page, limit int, filter ReportFilter) ([]model.Report, int64, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, page, limit int) ([]model.Report, int64, error)
	AppendHistory(ctx context.Context, entry *model.ReportStatusHistory) error
	History(ctx context.Context, reportID uuid.UUID) ([]model.ReportStatusHistory, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Create(report).Error
}

func (r *reportRepository) Update(ctx context.Context, report *model.Report) error {
	return GetDB(ctx, r.db).Save(report).Error
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Report{}).Error
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := GetDB(ctx, r.db).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// FindByIDForUpdate locks the report row so status transitions and the AI
// enrichment merge cannot interleave on the same report.
func (r *reportRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, page, limit int, filter ReportFilter) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Report{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.City != "" {
		db = db.Where("city ILIKE ?", "%"+filter.City+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *reportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, page, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Report{}).Where("reporter_id = ?", reporterID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *reportRepository) AppendHistory(ctx context.Context, entry *model.ReportStatusHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *reportRepository) History(ctx context.Context, reportID uuid.UUID) ([]model.ReportStatusHistory, error) {
	var entries []model.ReportStatusHistory
	if err := GetDB(ctx, r.db).Where("report_id = ?", reportID).
		Order("created_at asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
