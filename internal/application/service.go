package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"devboard/internal/database"
	"devboard/internal/errcode"
	"devboard/internal/identity"
	"devboard/internal/job"
	"devboard/internal/pagination"
	"devboard/internal/policy"
)

const (
	maxCoverLetterLen = 8000
	maxRefLen         = 512
)

// Form 是投递表单。简历与作品集引用是 opaque URL，核心原样存取。
type Form struct {
	CoverLetter  string
	ResumeURL    string
	PortfolioURL string
}

// ListFilters 约束投递列表；零值 Status 表示不过滤。
type ListFilters struct {
	Status Status
}

// Service 承载投递状态机：投递、状态流转与撤回。
// 并发的状态更新不做乐观锁，后写覆盖先写。
type Service struct {
	apps Repository
	jobs job.Repository
	now  func() time.Time
}

// NewService 构造投递服务。
func NewService(apps Repository, jobs job.Repository) *Service {
	return &Service{apps: apps, jobs: jobs, now: time.Now}
}

// Apply 创建一条 PENDING 投递。
// 检查顺序：职位存在且在架 -> 身份授权 -> 无重复投递。
func (s *Service) Apply(ctx context.Context, id identity.Identity, jobID uint, form Form) (*database.Application, error) {
	j, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	exists, err := s.apps.Exists(ctx, jobID, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if err := policy.CanApply(id, j, exists); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}

	app := &database.Application{
		JobID:        jobID,
		ApplicantID:  id.UserID,
		Status:       string(StatusPending),
		CoverLetter:  strings.TrimSpace(form.CoverLetter),
		ResumeURL:    strings.TrimSpace(form.ResumeURL),
		PortfolioURL: strings.TrimSpace(form.PortfolioURL),
		AppliedAt:    s.now(),
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

// UpdateStatus 由职位雇主推进状态机。目标状态必须在流转表内可达。
func (s *Service) UpdateStatus(ctx context.Context, id identity.Identity, appID uint, targetRaw string) (*database.Application, error) {
	app, err := s.loadApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	j, err := s.loadJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutateApplication(id, app, j); err != nil {
		return nil, err
	}

	target, ok := ParseStatus(targetRaw)
	if !ok {
		return nil, errcode.Validationf("unknown status %q", targetRaw)
	}

	current := Status(app.Status)
	if !CanEmployerTransition(current, target) {
		return nil, errcode.InvalidTransition(
			fmt.Sprintf("cannot move application from %s to %s", current, target))
	}

	app.Status = string(target)
	if err := s.apps.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}
	return app, nil
}

// Withdraw 由投递人撤回。ACCEPTED / REJECTED / WITHDRAWN 状态下不可撤回。
func (s *Service) Withdraw(ctx context.Context, id identity.Identity, appID uint) (*database.Application, error) {
	app, err := s.loadApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanWithdraw(id, app); err != nil {
		return nil, err
	}

	current := Status(app.Status)
	if !CanApplicantWithdraw(current) {
		return nil, errcode.TerminalState(
			fmt.Sprintf("cannot withdraw application in %s state", current))
	}

	app.Status = string(StatusWithdrawn)
	if err := s.apps.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}
	return app, nil
}

// Get 返回投递记录，只允许投递人或职位雇主读取。
func (s *Service) Get(ctx context.Context, id identity.Identity, appID uint) (*database.Application, error) {
	app, err := s.loadApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if id.UserID == app.ApplicantID {
		return app, nil
	}
	j, err := s.loadJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewJobApplications(id, j); err != nil {
		return nil, err
	}
	return app, nil
}

// JobOf 返回投递所属的职位记录。
func (s *Service) JobOf(ctx context.Context, app *database.Application) (*database.Job, error) {
	return s.loadJob(ctx, app.JobID)
}

// ListMine 返回当前用户的投递。
func (s *Service) ListMine(ctx context.Context, id identity.Identity, f ListFilters, p pagination.Params) ([]database.Application, pagination.Envelope, error) {
	apps, total, err := s.apps.ListByApplicant(ctx, id.UserID, f, p)
	if err != nil {
		return nil, pagination.Envelope{}, fmt.Errorf("list applications: %w", err)
	}
	return apps, pagination.NewEnvelope(p, total), nil
}

// ListForJob 返回某职位收到的投递，仅职位所有者可见。
func (s *Service) ListForJob(ctx context.Context, id identity.Identity, jobID uint, f ListFilters, p pagination.Params) ([]database.Application, pagination.Envelope, error) {
	j, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, pagination.Envelope{}, err
	}
	if err := policy.CanViewJobApplications(id, j); err != nil {
		return nil, pagination.Envelope{}, err
	}
	apps, total, err := s.apps.ListByJob(ctx, jobID, f, p)
	if err != nil {
		return nil, pagination.Envelope{}, fmt.Errorf("list applications: %w", err)
	}
	return apps, pagination.NewEnvelope(p, total), nil
}

// ListForEmployer 返回当前雇主全部职位收到的投递。
func (s *Service) ListForEmployer(ctx context.Context, id identity.Identity, f ListFilters, p pagination.Params) ([]database.Application, pagination.Envelope, error) {
	apps, total, err := s.apps.ListByEmployer(ctx, id.UserID, f, p)
	if err != nil {
		return nil, pagination.Envelope{}, fmt.Errorf("list applications: %w", err)
	}
	return apps, pagination.NewEnvelope(p, total), nil
}

func validateForm(form Form) error {
	cover := strings.TrimSpace(form.CoverLetter)
	if cover == "" {
		return errcode.Validation("cover letter is required")
	}
	if len(cover) > maxCoverLetterLen {
		return errcode.Validationf("cover letter exceeds %d characters", maxCoverLetterLen)
	}
	resume := strings.TrimSpace(form.ResumeURL)
	if resume == "" {
		return errcode.Validation("resume reference is required")
	}
	if len(resume) > maxRefLen {
		return errcode.Validationf("resume reference exceeds %d characters", maxRefLen)
	}
	if len(strings.TrimSpace(form.PortfolioURL)) > maxRefLen {
		return errcode.Validationf("portfolio reference exceeds %d characters", maxRefLen)
	}
	return nil
}

func (s *Service) loadApplication(ctx context.Context, appID uint) (*database.Application, error) {
	app, err := s.apps.ByID(ctx, appID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.NotFound("application not found")
		}
		return nil, fmt.Errorf("load application: %w", err)
	}
	return app, nil
}

func (s *Service) loadJob(ctx context.Context, jobID uint) (*database.Job, error) {
	j, err := s.jobs.ByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.NotFound("job not found")
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	return j, nil
}
