package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeJobSweep = "job:sweep"
)

// JobSweepPayload 描述一次过期职位下线扫描。
type JobSweepPayload struct {
	TTLDays       int    `json:"ttl_days"`
	CorrelationID string `json:"correlation_id"`
}

// NewJobSweepTask 构造一个过期职位下线任务。
func NewJobSweepTask(ttlDays int, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(JobSweepPayload{
		TTLDays:       ttlDays,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeJobSweep, payload), nil
}
