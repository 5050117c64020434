package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"devboard/internal/job"
	"devboard/internal/metrics"
	"devboard/internal/tasks"
)

// SweepTaskHandler 负责消费过期职位下线任务。
type SweepTaskHandler struct {
	jobs    job.Repository
	logger  *slog.Logger
	ttlDays int
	now     func() time.Time
}

// NewSweepTaskHandler 创建任务处理器。
func NewSweepTaskHandler(jobs job.Repository, logger *slog.Logger, ttlDays int) *SweepTaskHandler {
	return &SweepTaskHandler{
		jobs:    jobs,
		logger:  logger,
		ttlDays: ttlDays,
		now:     time.Now,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *SweepTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.JobSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	ttlDays := payload.TTLDays
	if ttlDays <= 0 {
		ttlDays = h.ttlDays
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("ttl_days", ttlDays),
	)

	cutoff := h.now().AddDate(0, 0, -ttlDays)
	affected, err := h.jobs.DeactivateOlderThan(ctx, cutoff)
	if err != nil {
		log.Error("deactivate expired jobs failed", slog.Any("error", err))
		return err
	}
	metrics.AddJobsDeactivated(affected)

	log.Info("expired jobs deactivated",
		slog.Int64("affected", affected),
		slog.Time("cutoff", cutoff),
	)
	return nil
}
