package application

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"devboard/internal/database"
	"devboard/internal/errcode"
	"devboard/internal/identity"
	"devboard/internal/job"
	"devboard/internal/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewService(NewGormRepository(db), job.NewGormRepository(db)), db
}

func seedJob(t *testing.T, db *gorm.DB, ownerID uint, active bool) *database.Job {
	t.Helper()
	j := &database.Job{
		Title:       "Backend Engineer",
		Description: "Work on the platform.",
		Type:        "FULL_TIME",
		Experience:  "MID",
		IsActive:    active,
		PostedByID:  ownerID,
	}
	if err := db.Create(j).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return j
}

func developer(id uint) identity.Identity {
	return identity.Identity{UserID: id, Role: identity.RoleDeveloper}
}

func employer(id uint) identity.Identity {
	return identity.Identity{UserID: id, Role: identity.RoleEmployer}
}

func validForm() Form {
	return Form{
		CoverLetter: "I would like to work here.",
		ResumeURL:   "https://cdn.example.com/user-assets/2/resume/r.pdf",
	}
}

func TestApply(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	app, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != string(StatusPending) {
		t.Errorf("status = %q, want PENDING", app.Status)
	}
	if app.AppliedAt.IsZero() {
		t.Error("appliedAt not stamped")
	}

	// 重复投递冲突。
	if _, err := svc.Apply(ctx, developer(2), j.ID, validForm()); !errcode.IsKind(err, errcode.KindConflict) {
		t.Errorf("duplicate apply should conflict, got %v", err)
	}

	if _, err := svc.Apply(ctx, employer(3), j.ID, validForm()); !errcode.IsKind(err, errcode.KindForbidden) {
		t.Errorf("employer apply should be forbidden, got %v", err)
	}
	if _, err := svc.Apply(ctx, developer(2), 9999, validForm()); !errcode.IsKind(err, errcode.KindNotFound) {
		t.Errorf("missing job should be not found, got %v", err)
	}
}

func TestApply_InactiveJob(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, false)

	_, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if !errcode.IsKind(err, errcode.KindValidation) {
		t.Fatalf("inactive job should reject, got %v", err)
	}
}

func TestApply_FormValidation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	form := validForm()
	form.CoverLetter = "  "
	if _, err := svc.Apply(ctx, developer(2), j.ID, form); !errcode.IsKind(err, errcode.KindValidation) {
		t.Errorf("empty cover letter should fail, got %v", err)
	}

	form = validForm()
	form.ResumeURL = ""
	if _, err := svc.Apply(ctx, developer(2), j.ID, form); !errcode.IsKind(err, errcode.KindValidation) {
		t.Errorf("missing resume should fail, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	app, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	createdAt := app.UpdatedAt
	time.Sleep(5 * time.Millisecond)

	app, err = svc.UpdateStatus(ctx, employer(7), app.ID, "REVIEWING")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if app.Status != string(StatusReviewing) {
		t.Errorf("status = %q, want REVIEWING", app.Status)
	}
	if !app.UpdatedAt.After(createdAt) {
		t.Error("updatedAt did not advance")
	}

	// 非所属雇主被拒。
	if _, err := svc.UpdateStatus(ctx, employer(8), app.ID, "ACCEPTED"); !errcode.IsKind(err, errcode.KindForbidden) {
		t.Errorf("foreign employer should be forbidden, got %v", err)
	}
	// 开发者不能走雇主流转。
	if _, err := svc.UpdateStatus(ctx, developer(2), app.ID, "ACCEPTED"); !errcode.IsKind(err, errcode.KindForbidden) {
		t.Errorf("developer should be forbidden, got %v", err)
	}
	// 未知状态值。
	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "DONE"); !errcode.IsKind(err, errcode.KindValidation) {
		t.Errorf("unknown status should fail validation, got %v", err)
	}
	// 流转表外的跳转。
	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "PENDING"); !errcode.IsKind(err, errcode.KindInvalidTransition) {
		t.Errorf("backwards move should be invalid, got %v", err)
	}
	// 幂等空转允许。
	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "REVIEWING"); err != nil {
		t.Errorf("REVIEWING no-op should pass: %v", err)
	}
}

func TestUpdateStatus_TerminalIsLocked(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	app, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "ACCEPTED"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	for _, target := range []string{"PENDING", "REVIEWING", "INTERVIEWING", "REJECTED"} {
		if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, target); !errcode.IsKind(err, errcode.KindInvalidTransition) {
			t.Errorf("ACCEPTED -> %s should be invalid, got %v", target, err)
		}
	}
}

// 状态更新不做乐观锁：每次调用都重新读库、针对现值校验并整体覆盖。
// 两个写入方基于同一个旧视图先后提交时，后写者生效，先写者不会收到冲突。
func TestUpdateStatus_LastWriteWins(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	app, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// 两个写入方都在 PENDING 时读到了这条投递。
	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "REVIEWING"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	// 第二个写入方带着过期视图提交：校验针对库内现值（REVIEWING），
	// 流转合法即直接覆盖，没有冲突反馈。
	updated, err := svc.UpdateStatus(ctx, employer(7), app.ID, "ACCEPTED")
	if err != nil {
		t.Fatalf("second write surfaced an error: %v", err)
	}
	if updated.Status != string(StatusAccepted) {
		t.Errorf("status = %q, want ACCEPTED", updated.Status)
	}

	var stored database.Application
	if err := db.First(&stored, app.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != string(StatusAccepted) {
		t.Errorf("stored status = %q, later write should win", stored.Status)
	}

	// 仍以为状态是 REVIEWING 的写入方此时提交 INTERVIEWING：
	// 检查针对现值 ACCEPTED，失败类别是 InvalidTransition，不是冲突。
	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "INTERVIEWING"); !errcode.IsKind(err, errcode.KindInvalidTransition) {
		t.Errorf("stale transition should fail as InvalidTransition, got %v", err)
	}

	// 仓库层同样没有版本号：两个陈旧副本先后 Save，后写静默覆盖先写。
	repo := NewGormRepository(db)
	stale1, err := repo.ByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("load copy 1: %v", err)
	}
	stale2, err := repo.ByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("load copy 2: %v", err)
	}
	stale1.Status = string(StatusRejected)
	if err := repo.Save(ctx, stale1); err != nil {
		t.Fatalf("save copy 1: %v", err)
	}
	if err := repo.Save(ctx, stale2); err != nil {
		t.Fatalf("save copy 2: %v", err)
	}
	if err := db.First(&stored, app.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != string(StatusAccepted) {
		t.Errorf("stored status = %q, want the later save (ACCEPTED) to win", stored.Status)
	}
}

func TestWithdraw(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	app, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := svc.Withdraw(ctx, developer(3), app.ID); !errcode.IsKind(err, errcode.KindForbidden) {
		t.Errorf("foreign developer should be forbidden, got %v", err)
	}
	if _, err := svc.Withdraw(ctx, employer(7), app.ID); !errcode.IsKind(err, errcode.KindForbidden) {
		t.Errorf("employer withdraw should be forbidden, got %v", err)
	}

	app, err = svc.Withdraw(ctx, developer(2), app.ID)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if app.Status != string(StatusWithdrawn) {
		t.Errorf("status = %q, want WITHDRAWN", app.Status)
	}

	// 已撤回即终态，不能再次撤回。
	if _, err := svc.Withdraw(ctx, developer(2), app.ID); !errcode.IsKind(err, errcode.KindInvalidTransition) {
		t.Errorf("double withdraw should be invalid, got %v", err)
	}
}

// 场景 A：投递 -> REVIEWING -> 撤回 -> 再投递被拒。
func TestLifecycle_ApplyReviewWithdrawReapply(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	app, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != string(StatusPending) {
		t.Fatalf("status = %q, want PENDING", app.Status)
	}

	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "REVIEWING"); err != nil {
		t.Fatalf("review: %v", err)
	}

	app, err = svc.Withdraw(ctx, developer(2), app.ID)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if app.Status != string(StatusWithdrawn) {
		t.Fatalf("status = %q, want WITHDRAWN", app.Status)
	}

	// 撤回不释放名额。
	if _, err := svc.Apply(ctx, developer(2), j.ID, validForm()); !errcode.IsKind(err, errcode.KindConflict) {
		t.Fatalf("re-apply after withdrawal should conflict, got %v", err)
	}
}

// 场景 D：ACCEPTED 后撤回被拒。
func TestWithdraw_FromAccepted(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	j := seedJob(t, db, 7, true)

	app, err := svc.Apply(ctx, developer(2), j.ID, validForm())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, employer(7), app.ID, "ACCEPTED"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := svc.Withdraw(ctx, developer(2), app.ID); !errcode.IsKind(err, errcode.KindInvalidTransition) {
		t.Fatalf("withdraw from ACCEPTED should be invalid, got %v", err)
	}
}

func TestLists(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	j1 := seedJob(t, db, 7, true)
	j2 := seedJob(t, db, 7, true)
	j3 := seedJob(t, db, 8, true)

	for _, jid := range []uint{j1.ID, j2.ID, j3.ID} {
		if _, err := svc.Apply(ctx, developer(2), jid, validForm()); err != nil {
			t.Fatalf("apply to %d: %v", jid, err)
		}
	}
	if _, err := svc.Apply(ctx, developer(3), j1.ID, validForm()); err != nil {
		t.Fatalf("apply: %v", err)
	}

	p := pagination.Params{Page: 1, Limit: 10}

	mine, env, err := svc.ListMine(ctx, developer(2), ListFilters{}, p)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 3 || env.Total != 3 {
		t.Errorf("list mine = %d items, total %d", len(mine), env.Total)
	}

	forJob, _, err := svc.ListForJob(ctx, employer(7), j1.ID, ListFilters{}, p)
	if err != nil {
		t.Fatalf("list for job: %v", err)
	}
	if len(forJob) != 2 {
		t.Errorf("list for job = %d items, want 2", len(forJob))
	}

	// 非所有者不能看职位的候选人。
	if _, _, err := svc.ListForJob(ctx, employer(8), j1.ID, ListFilters{}, p); !errcode.IsKind(err, errcode.KindForbidden) {
		t.Errorf("foreign employer should be forbidden, got %v", err)
	}

	forEmployer, env, err := svc.ListForEmployer(ctx, employer(7), ListFilters{}, p)
	if err != nil {
		t.Fatalf("list for employer: %v", err)
	}
	if len(forEmployer) != 3 || env.Total != 3 {
		t.Errorf("list for employer = %d items, total %d", len(forEmployer), env.Total)
	}

	// 状态过滤。
	if _, err := svc.Withdraw(ctx, developer(2), mine[0].ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	withdrawn, _, err := svc.ListMine(ctx, developer(2), ListFilters{Status: StatusWithdrawn}, p)
	if err != nil {
		t.Fatalf("list mine filtered: %v", err)
	}
	if len(withdrawn) != 1 {
		t.Errorf("filtered list = %d items, want 1", len(withdrawn))
	}
}
