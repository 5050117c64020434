// Package policy 集中所有授权判定。每个函数都是纯函数：输入身份与目标记录，
// 输出 nil（放行）或带原因的 errcode.Error（拒绝），不触碰存储。
package policy

import (
	"devboard/internal/database"
	"devboard/internal/errcode"
	"devboard/internal/identity"
)

// CanCreateJob 仅允许 EMPLOYER 发布职位。
func CanCreateJob(id identity.Identity) error {
	if id.Anonymous() {
		return errcode.Unauthenticated()
	}
	if id.Role != identity.RoleEmployer {
		return errcode.Forbidden(errcode.ReasonWrongRole, "only employers can post jobs")
	}
	return nil
}

// CanMutateJob 允许职位的所有者或 ADMIN 修改、删除与切换上下架。
func CanMutateJob(id identity.Identity, job *database.Job) error {
	if id.Anonymous() {
		return errcode.Unauthenticated()
	}
	if id.Role == identity.RoleAdmin {
		return nil
	}
	if id.Role != identity.RoleEmployer {
		return errcode.Forbidden(errcode.ReasonWrongRole, "only employers can manage jobs")
	}
	if id.UserID != job.PostedByID {
		return errcode.Forbidden(errcode.ReasonNotOwner, "job belongs to another employer")
	}
	return nil
}

// CanViewJobApplications 仅允许职位所有者查看其候选人列表。
// ADMIN 不在此处放行：管理端有独立的全量列表操作。
func CanViewJobApplications(id identity.Identity, job *database.Job) error {
	if id.Anonymous() {
		return errcode.Unauthenticated()
	}
	if id.UserID != job.PostedByID {
		return errcode.Forbidden(errcode.ReasonNotOwner, "job belongs to another employer")
	}
	return nil
}

// CanApply 检查投递资格：DEVELOPER 角色、职位在架、且此前未投递过。
// 已撤回的投递同样占用名额。
func CanApply(id identity.Identity, job *database.Job, alreadyApplied bool) error {
	if id.Anonymous() {
		return errcode.Unauthenticated()
	}
	if !job.IsActive {
		return errcode.JobInactive()
	}
	if id.Role != identity.RoleDeveloper {
		return errcode.Forbidden(errcode.ReasonWrongRole, "only developers can apply")
	}
	if alreadyApplied {
		return errcode.Conflict(errcode.ReasonAlreadyApplied, "already applied to this job")
	}
	return nil
}

// CanMutateApplication 仅允许投递所属职位的雇主修改其状态。
func CanMutateApplication(id identity.Identity, app *database.Application, job *database.Job) error {
	if id.Anonymous() {
		return errcode.Unauthenticated()
	}
	if id.Role != identity.RoleEmployer {
		return errcode.Forbidden(errcode.ReasonWrongRole, "only the hiring employer can update application status")
	}
	if id.UserID != job.PostedByID {
		return errcode.Forbidden(errcode.ReasonNotOwner, "application belongs to another employer's job")
	}
	return nil
}

// CanWithdraw 仅允许投递人本人撤回，且不允许从 ACCEPTED/REJECTED 撤回。
func CanWithdraw(id identity.Identity, app *database.Application) error {
	if id.Anonymous() {
		return errcode.Unauthenticated()
	}
	if id.Role != identity.RoleDeveloper {
		return errcode.Forbidden(errcode.ReasonWrongRole, "only the applicant can withdraw")
	}
	if id.UserID != app.ApplicantID {
		return errcode.Forbidden(errcode.ReasonNotOwner, "application belongs to another developer")
	}
	return nil
}
