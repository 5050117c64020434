package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// applicationEvent 是推送到实时通道的投递事件。
// 发布发生在 HTTP 层、核心操作成功之后；核心本身不产生副作用。
type applicationEvent struct {
	Type          string    `json:"type"` // application.received / application.status_changed / application.withdrawn
	ApplicationID uint      `json:"application_id"`
	JobID         uint      `json:"job_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type eventPublisher struct {
	redis  *redis.Client
	logger *slog.Logger
}

func newEventPublisher(client *redis.Client, logger *slog.Logger) *eventPublisher {
	return &eventPublisher{redis: client, logger: logger}
}

// userEventChannel 返回某用户的事件通道名，WebSocket 端按同样规则订阅。
func userEventChannel(userID uint) string {
	return fmt.Sprintf("events:user:%d", userID)
}

// publish 尽力而为地发布事件；失败只记日志，不影响请求结果。
func (p *eventPublisher) publish(ctx context.Context, userID uint, ev applicationEvent) {
	if p == nil || p.redis == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, userEventChannel(userID), payload).Err(); err != nil && p.logger != nil {
		p.logger.Warn("publish application event failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err),
		)
	}
}
