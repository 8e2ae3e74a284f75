package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisHistoryPrefix = "chat:history:"

// RedisHistory shares history rings between server instances. Each ring is
// a Redis list trimmed to HistorySize and expired after ttl of inactivity.
type RedisHistory struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisHistory connects to url (redis://...) and pings it.
func NewRedisHistory(ctx context.Context, url string, ttl time.Duration) (*RedisHistory, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisHistoryFromClient(rdb, ttl), nil
}

func NewRedisHistoryFromClient(rdb *redis.Client, ttl time.Duration) *RedisHistory {
	return &RedisHistory{rdb: rdb, ttl: ttl}
}

func historyKey(patientID string) string {
	return redisHistoryPrefix + patientID
}

// Push appends and trims in one MULTI/EXEC so concurrent pushes for the
// same patient cannot leave more than HistorySize entries.
func (h *RedisHistory) Push(ctx context.Context, patientID string, e Exchange) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}
	key := historyKey(patientID)
	_, err = h.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, raw)
		pipe.LTrim(ctx, key, -HistorySize, -1)
		if h.ttl > 0 {
			pipe.Expire(ctx, key, h.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("push history for %s: %w", patientID, err)
	}
	return nil
}

func (h *RedisHistory) Recent(ctx context.Context, patientID string) ([]Exchange, error) {
	vals, err := h.rdb.LRange(ctx, historyKey(patientID), -HistorySize, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history for %s: %w", patientID, err)
	}
	out := make([]Exchange, 0, len(vals))
	for _, v := range vals {
		var e Exchange
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (h *RedisHistory) Ping(ctx context.Context) error {
	return h.rdb.Ping(ctx).Err()
}

func (h *RedisHistory) Close() error {
	if h == nil || h.rdb == nil {
		return nil
	}
	return h.rdb.Close()
}
