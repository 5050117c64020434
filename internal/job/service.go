package job

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"devboard/internal/database"
	"devboard/internal/errcode"
	"devboard/internal/identity"
	"devboard/internal/pagination"
	"devboard/internal/policy"
)

// Service 承载职位生命周期：创建、修改、上下架切换与删除。
// 所有权限判定委托给 policy 包。
type Service struct {
	repo Repository
}

// NewService 构造职位服务。
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PatchInput 是部分更新输入；nil 字段表示保持原值。
type PatchInput struct {
	Title            *string
	Description      *string
	Requirements     []string
	Responsibilities []string
	Skills           []string
	SalaryMin        *int64
	SalaryMax        *int64
	SalaryCurrency   *string
	Location         *string
	Type             *string
	Experience       *string
	IsRemote         *bool
}

// Create 校验薪资不变量后落库，默认在架，所有者取自请求身份。
func (s *Service) Create(ctx context.Context, id identity.Identity, in SpecInput) (*database.Job, error) {
	if err := policy.CanCreateJob(id); err != nil {
		return nil, err
	}

	spec, err := ParseSpec(in)
	if err != nil {
		return nil, err
	}

	j := &database.Job{
		Title:            spec.Title,
		Description:      spec.Description,
		Requirements:     EncodeList(spec.Requirements),
		Responsibilities: EncodeList(spec.Responsibilities),
		Skills:           EncodeSkills(spec.Skills),
		SalaryMin:        spec.SalaryMin,
		SalaryMax:        spec.SalaryMax,
		SalaryCurrency:   spec.SalaryCurrency,
		Location:         spec.Location,
		Type:             string(spec.Type),
		Experience:       string(spec.Experience),
		IsRemote:         spec.IsRemote,
		IsActive:         true,
		PostedByID:       id.UserID,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

// Get 返回职位记录。
func (s *Service) Get(ctx context.Context, jobID uint) (*database.Job, error) {
	return s.load(ctx, jobID)
}

// CountApplications 返回职位收到的投递总数，用于详情页摘要。
func (s *Service) CountApplications(ctx context.Context, jobID uint) (int64, error) {
	return s.repo.CountApplications(ctx, jobID)
}

// List 走检索引擎并返回分页信封。
func (s *Service) List(ctx context.Context, f Filters, p pagination.Params) ([]database.Job, pagination.Envelope, error) {
	jobs, total, err := s.repo.Search(ctx, f, p)
	if err != nil {
		return nil, pagination.Envelope{}, fmt.Errorf("search jobs: %w", err)
	}
	return jobs, pagination.NewEnvelope(p, total), nil
}

// Update 按补丁合并字段后整体重校验，过程中任何违例都不落库。
func (s *Service) Update(ctx context.Context, id identity.Identity, jobID uint, patch PatchInput) (*database.Job, error) {
	j, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutateJob(id, j); err != nil {
		return nil, err
	}

	merged := SpecInput{
		Title:            valueOr(patch.Title, j.Title),
		Description:      valueOr(patch.Description, j.Description),
		Requirements:     listOr(patch.Requirements, DecodeList(j.Requirements)),
		Responsibilities: listOr(patch.Responsibilities, DecodeList(j.Responsibilities)),
		Skills:           listOr(patch.Skills, DecodeSkills(j.Skills)),
		SalaryMin:        int64Or(patch.SalaryMin, j.SalaryMin),
		SalaryMax:        int64Or(patch.SalaryMax, j.SalaryMax),
		SalaryCurrency:   valueOr(patch.SalaryCurrency, j.SalaryCurrency),
		Location:         valueOr(patch.Location, j.Location),
		Type:             valueOr(patch.Type, j.Type),
		Experience:       valueOr(patch.Experience, j.Experience),
		IsRemote:         boolOr(patch.IsRemote, j.IsRemote),
	}

	spec, err := ParseSpec(merged)
	if err != nil {
		return nil, err
	}

	j.Title = spec.Title
	j.Description = spec.Description
	j.Requirements = EncodeList(spec.Requirements)
	j.Responsibilities = EncodeList(spec.Responsibilities)
	j.Skills = EncodeSkills(spec.Skills)
	j.SalaryMin = spec.SalaryMin
	j.SalaryMax = spec.SalaryMax
	j.SalaryCurrency = spec.SalaryCurrency
	j.Location = spec.Location
	j.Type = string(spec.Type)
	j.Experience = string(spec.Experience)
	j.IsRemote = spec.IsRemote

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return j, nil
}

// Delete 是所有者路径：删除职位并级联删除其投递。
func (s *Service) Delete(ctx context.Context, id identity.Identity, jobID uint) error {
	j, err := s.load(ctx, jobID)
	if err != nil {
		return err
	}
	if err := policy.CanMutateJob(id, j); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// AdminDelete 是管理端路径：存在投递时拒绝删除，不做级联。
func (s *Service) AdminDelete(ctx context.Context, id identity.Identity, jobID uint) error {
	if id.Role != identity.RoleAdmin {
		return errcode.Forbidden(errcode.ReasonWrongRole, "admin role required")
	}
	j, err := s.load(ctx, jobID)
	if err != nil {
		return err
	}
	count, err := s.repo.CountApplications(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("count applications: %w", err)
	}
	if count > 0 {
		return errcode.Conflict("", "job has applications")
	}
	if err := s.repo.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// ToggleActive 翻转在架标记并返回最新记录。
func (s *Service) ToggleActive(ctx context.Context, id identity.Identity, jobID uint) (*database.Job, error) {
	j, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutateJob(id, j); err != nil {
		return nil, err
	}

	j.IsActive = !j.IsActive
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return j, nil
}

func (s *Service) load(ctx context.Context, jobID uint) (*database.Job, error) {
	j, err := s.repo.ByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.NotFound("job not found")
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	return j, nil
}

func valueOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

func int64Or(p *int64, fallback int64) int64 {
	if p != nil {
		return *p
	}
	return fallback
}

func boolOr(p *bool, fallback bool) bool {
	if p != nil {
		return *p
	}
	return fallback
}

func listOr(p []string, fallback []string) []string {
	if p != nil {
		return p
	}
	return fallback
}
