package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"devboard/internal/database"
	"devboard/internal/job"
	"devboard/internal/tasks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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

func seedJobAt(t *testing.T, db *gorm.DB, title string, createdAt time.Time, active bool) *database.Job {
	t.Helper()
	j := &database.Job{Title: title, IsActive: active, PostedByID: 7}
	if err := db.Create(j).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := db.Model(j).UpdateColumn("created_at", createdAt).Error; err != nil {
		t.Fatalf("backdate job: %v", err)
	}
	return j
}

func TestSweepDeactivatesExpiredJobs(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	stale := seedJobAt(t, db, "stale", now.AddDate(0, 0, -40), true)
	fresh := seedJobAt(t, db, "fresh", now.AddDate(0, 0, -5), true)
	alreadyOff := seedJobAt(t, db, "off", now.AddDate(0, 0, -40), false)

	h := NewSweepTaskHandler(job.NewGormRepository(db), discardLogger(), 30)
	h.now = func() time.Time { return now }

	task, err := tasks.NewJobSweepTask(0, "test")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	assertActive := func(id uint, want bool) {
		t.Helper()
		var j database.Job
		if err := db.First(&j, id).Error; err != nil {
			t.Fatalf("reload job %d: %v", id, err)
		}
		if j.IsActive != want {
			t.Errorf("job %q active = %v, want %v", j.Title, j.IsActive, want)
		}
	}
	assertActive(stale.ID, false)
	assertActive(fresh.ID, true)
	assertActive(alreadyOff.ID, false)
}

func TestSweepPayloadOverridesTTL(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	j := seedJobAt(t, db, "borderline", now.AddDate(0, 0, -10), true)

	h := NewSweepTaskHandler(job.NewGormRepository(db), discardLogger(), 30)
	h.now = func() time.Time { return now }

	// Payload 指定更短的 TTL，覆盖默认配置。
	task, err := tasks.NewJobSweepTask(7, "test")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	var reloaded database.Job
	if err := db.First(&reloaded, j.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsActive {
		t.Error("job older than payload TTL should be deactivated")
	}
}

func TestSweepRejectsMalformedPayload(t *testing.T) {
	h := NewSweepTaskHandler(nil, discardLogger(), 30)
	task := asynq.NewTask(tasks.TypeJobSweep, []byte("{not json"))
	if err := h.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("malformed payload should error")
	}
}
