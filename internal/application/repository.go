package application

import (
	"context"

	"gorm.io/gorm"

	"devboard/internal/database"
	"devboard/internal/pagination"
)

// Repository 是投递记录的窄存储接口。
type Repository interface {
	ByID(ctx context.Context, id uint) (*database.Application, error)
	Create(ctx context.Context, app *database.Application) error
	Save(ctx context.Context, app *database.Application) error
	Exists(ctx context.Context, jobID, applicantID uint) (bool, error)
	ListByApplicant(ctx context.Context, applicantID uint, f ListFilters, p pagination.Params) ([]database.Application, int64, error)
	ListByJob(ctx context.Context, jobID uint, f ListFilters, p pagination.Params) ([]database.Application, int64, error)
	ListByEmployer(ctx context.Context, employerID uint, f ListFilters, p pagination.Params) ([]database.Application, int64, error)
}

// GormRepository 基于 GORM 实现 Repository。
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository 构造 GORM 仓库。
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ByID(ctx context.Context, id uint) (*database.Application, error) {
	var app database.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *GormRepository) Create(ctx context.Context, app *database.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *GormRepository) Save(ctx context.Context, app *database.Application) error {
	return r.db.WithContext(ctx).Save(app).Error
}

// Exists 报告 (jobID, applicantID) 是否已有投递，含已撤回的。
func (r *GormRepository) Exists(ctx context.Context, jobID, applicantID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&database.Application{}).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepository) ListByApplicant(ctx context.Context, applicantID uint, f ListFilters, p pagination.Params) ([]database.Application, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&database.Application{}).
		Where("applications.applicant_id = ?", applicantID)
	return r.page(applyStatusFilter(q, f), p)
}

func (r *GormRepository) ListByJob(ctx context.Context, jobID uint, f ListFilters, p pagination.Params) ([]database.Application, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&database.Application{}).
		Where("applications.job_id = ?", jobID)
	return r.page(applyStatusFilter(q, f), p)
}

func (r *GormRepository) ListByEmployer(ctx context.Context, employerID uint, f ListFilters, p pagination.Params) ([]database.Application, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&database.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("jobs.posted_by_id = ?", employerID)
	return r.page(applyStatusFilter(q, f), p)
}

func applyStatusFilter(q *gorm.DB, f ListFilters) *gorm.DB {
	if f.Status != "" {
		q = q.Where("applications.status = ?", string(f.Status))
	}
	return q
}

func (r *GormRepository) page(q *gorm.DB, p pagination.Params) ([]database.Application, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []database.Application
	if err := q.Order("applications.created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}
