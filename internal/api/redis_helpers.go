package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisRateCounter 抽出限流计数所需的最小 redis 能力，便于测试注入。
type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// incrWithTTL 自增计数键并在首次创建时设置过期时间。
// 登录限流和上传配额共用这一把计数器。
func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
