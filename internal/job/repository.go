package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"devboard/internal/database"
	"devboard/internal/pagination"
)

// Filters 描述职位检索条件。所有条件按合取组合，仅作用于在架职位。
// SalaryMin/SalaryMax 为接口兼容而保留：解析但不参与过滤。
type Filters struct {
	Query      string
	Location   string
	Type       Type
	Experience Experience
	Skills     []string
	IsRemote   *bool
	SalaryMin  *int64 // accepted, never applied
	SalaryMax  *int64 // accepted, never applied
}

// Repository 是职位记录的窄存储接口，核心只依赖它而非具体 ORM。
type Repository interface {
	ByID(ctx context.Context, id uint) (*database.Job, error)
	Create(ctx context.Context, j *database.Job) error
	Save(ctx context.Context, j *database.Job) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, f Filters, p pagination.Params) ([]database.Job, int64, error)
	CountApplications(ctx context.Context, id uint) (int64, error)
	DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormRepository 基于 GORM 实现 Repository。
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository 构造 GORM 仓库。
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ByID(ctx context.Context, id uint) (*database.Job, error) {
	var j database.Job
	if err := r.db.WithContext(ctx).First(&j, id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *GormRepository) Create(ctx context.Context, j *database.Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *GormRepository) Save(ctx context.Context, j *database.Job) error {
	return r.db.WithContext(ctx).Save(j).Error
}

// Delete 删除职位并级联删除其投递，单事务完成。
func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&database.Application{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		if err := tx.Delete(&database.Job{}, id).Error; err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		return nil
	})
}

// Search 将过滤条件编译为合取查询：先 COUNT 再取窗口，按创建时间降序。
// 公司名匹配通过 companies.owner_id 关联雇主的公司主页。
func (r *GormRepository) Search(ctx context.Context, f Filters, p pagination.Params) ([]database.Job, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&database.Job{}).
		Where("jobs.is_active = ?", true)

	if text := strings.ToLower(strings.TrimSpace(f.Query)); text != "" {
		pattern := "%" + text + "%"
		q = q.Joins("LEFT JOIN companies ON companies.owner_id = jobs.posted_by_id").
			Where(
				"LOWER(jobs.title) LIKE ? OR LOWER(jobs.description) LIKE ? OR LOWER(COALESCE(companies.name, '')) LIKE ?",
				pattern, pattern, pattern,
			)
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" {
		q = q.Where("LOWER(jobs.location) LIKE ?", "%"+loc+"%")
	}
	if f.Type != "" {
		q = q.Where("jobs.type = ?", string(f.Type))
	}
	if f.Experience != "" {
		q = q.Where("jobs.experience = ?", string(f.Experience))
	}
	if f.IsRemote != nil {
		q = q.Where("jobs.is_remote = ?", *f.IsRemote)
	}
	if len(f.Skills) > 0 {
		// 技能是集合交叠语义：命中任意一个请求技能即可。
		conds := make([]string, 0, len(f.Skills))
		args := make([]any, 0, len(f.Skills))
		for _, s := range f.Skills {
			skill := strings.ToLower(strings.TrimSpace(s))
			if skill == "" {
				continue
			}
			conds = append(conds, "jobs.skills LIKE ?")
			args = append(args, "%,"+skill+",%")
		}
		if len(conds) > 0 {
			q = q.Where(strings.Join(conds, " OR "), args...)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	var jobs []database.Job
	if err := q.Order("jobs.created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("find jobs: %w", err)
	}

	return jobs, total, nil
}

func (r *GormRepository) CountApplications(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&database.Application{}).
		Where("job_id = ?", id).
		Count(&count).Error
	return count, err
}

// DeactivateOlderThan 下架创建时间早于 cutoff 的在架职位，返回影响行数。
func (r *GormRepository) DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&database.Job{}).
		Where("is_active = ? AND created_at < ?", true, cutoff).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
