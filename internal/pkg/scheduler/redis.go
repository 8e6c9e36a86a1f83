package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultQueueKey is the sorted set of pending deletions scored by due time in ms.
	DefaultQueueKey = "relay:deletions"
	PollInterval    = time.Second
	pollBatch       = 100
)

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Redis client connected", zap.String("addr", addr))
	return rdb, nil
}

// RedisScheduler persists deletions in a sorted set so they survive restarts.
// Several pollers may share one queue: a job runs on the poller whose ZREM removes it.
type RedisScheduler struct {
	client  *redis.Client
	deleter Deleter
	key     string
	now     func() time.Time
	logger  *zap.Logger
}

func NewRedisScheduler(client *redis.Client, deleter Deleter, key string, logger *zap.Logger) *RedisScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisScheduler{
		client:  client,
		deleter: deleter,
		key:     key,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *RedisScheduler) ScheduleDeletion(ctx context.Context, chatID int64, messageID int, delay time.Duration) error {
	job := newJob(chatID, messageID, s.now().Add(delay))
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	err = s.client.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(job.DueAt.UnixMilli()),
		Member: string(raw),
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	s.logger.Debug("deletion scheduled",
		zap.String("job_id", job.ID),
		zap.Int64("chat_id", chatID),
		zap.Int("message_id", messageID),
		zap.Time("due_at", job.DueAt),
	)
	return nil
}

// Run polls for due jobs until ctx is done.
func (s *RedisScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("deletion poller stopping")
			return
		case <-ticker.C:
			if _, err := s.PollOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("deletion poll failed", zap.Error(err))
			}
		}
	}
}

// PollOnce claims and runs every job due by now. It returns how many ran.
func (s *RedisScheduler) PollOnce(ctx context.Context) (int, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(s.now().UnixMilli(), 10),
		Count: pollBatch,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore: %w", err)
	}

	ran := 0
	for _, member := range members {
		removed, err := s.client.ZRem(ctx, s.key, member).Result()
		if err != nil {
			return ran, fmt.Errorf("zrem: %w", err)
		}
		if removed == 0 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			s.logger.Warn("invalid deletion job dropped", zap.String("raw", member), zap.Error(err))
			continue
		}
		execute(ctx, s.deleter, job, s.logger)
		ran++
	}
	return ran, nil
}
