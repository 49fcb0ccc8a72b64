package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peridot-indexer-sol/internal/logic/programs"

	"github.com/redis/go-redis/v9"
)

// RedisProgressStore 管理 Redis 中的 slot 状态记录（幂等控制）
type RedisProgressStore struct {
	rdb    redis.UniversalClient
	prefix string
}

const (
	processedTTL = 7 * 24 * time.Hour
	pendingTTL   = 10 * time.Minute
	lastSlotKey  = "last_slot"
)

// NewRedisProgressStore 创建 Redis 判重管理器，prefix 为空时使用 "peridot:sol"
func NewRedisProgressStore(rdb redis.UniversalClient, prefix string) *RedisProgressStore {
	if prefix == "" {
		prefix = "peridot:sol"
	}
	return &RedisProgressStore{rdb: rdb, prefix: prefix}
}

// key 形如 peridot:sol:progress:spl_token:slot:123
func (r *RedisProgressStore) key(slot uint64, protocol programs.Protocol) string {
	return fmt.Sprintf("%s:progress:%s:slot:%d", r.prefix, protocol, slot)
}

func ttlOf(status SlotStatus) time.Duration {
	if status == SlotPending {
		return pendingTTL
	}
	return processedTTL
}

// GetSlotStatus 获取 slot 的状态（Unknown / Processed / Invalid / Pending）
func (r *RedisProgressStore) GetSlotStatus(ctx context.Context, slot uint64, protocol programs.Protocol) (SlotStatus, error) {
	val, err := r.rdb.Get(ctx, r.key(slot, protocol)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return SlotUnknown, nil
	case err != nil:
		return SlotUnknown, fmt.Errorf("redis get error: %w", err)
	}
	switch s := SlotStatus(val); s {
	case SlotProcessed, SlotInvalid, SlotPending:
		return s, nil
	default:
		return SlotUnknown, nil
	}
}

// MarkSlotStatus 设置 slot 的状态
func (r *RedisProgressStore) MarkSlotStatus(ctx context.Context, slot uint64, protocol programs.Protocol, status SlotStatus) error {
	return r.rdb.Set(ctx, r.key(slot, protocol), int(status), ttlOf(status)).Err()
}

// UpdateLastSlot 记录已投递的最大 slot，只增不减
func (r *RedisProgressStore) UpdateLastSlot(ctx context.Context, slot uint64) error {
	key := r.prefix + ":" + lastSlotKey
	return r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && cur >= slot {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, slot, 0)
			return nil
		})
		return err
	}, key)
}

// LastSlot 返回已投递的最大 slot，不存在时为 0
func (r *RedisProgressStore) LastSlot(ctx context.Context) (uint64, error) {
	v, err := r.rdb.Get(ctx, r.prefix+":"+lastSlotKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
