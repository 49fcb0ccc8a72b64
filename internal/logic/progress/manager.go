package progress

import (
	"context"
	"time"

	"peridot-indexer-sol/internal/logic/programs"
	"peridot-indexer-sol/internal/pkg/logger"
)

// StatusStore slot 状态热存储，由 RedisProgressStore 实现
type StatusStore interface {
	GetSlotStatus(ctx context.Context, slot uint64, protocol programs.Protocol) (SlotStatus, error)
	MarkSlotStatus(ctx context.Context, slot uint64, protocol programs.Protocol, status SlotStatus) error
	UpdateLastSlot(ctx context.Context, slot uint64) error
}

// RecordStore slot 记录持久化存储，由 DBProgressStore 实现
type RecordStore interface {
	CheckSlotExists(ctx context.Context, slot uint64, protocol programs.Protocol) (bool, error)
	BatchInsertSlots(ctx context.Context, records []*SlotRecord) error
	DeleteOldSlots(ctx context.Context, protocol programs.Protocol, retainDays int) error
}

// ProgressOption 进度管理参数
type ProgressOption struct {
	RecentThresholdSec int
	FlushIntervalSec   int
	BufferSize         int
}

// ProgressManager 统一封装 Redis + DB + 缓冲，控制进度判重与写入。
// db 为 nil 时只使用 Redis。
type ProgressManager struct {
	redis           StatusStore
	db              RecordStore
	buffer          *slotBuffer
	recentThreshold time.Duration
	flushInterval   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

const (
	gcInterval = time.Hour
	retainDays = 7
)

func NewProgressManager(redis StatusStore, db RecordStore, opt ProgressOption) *ProgressManager {
	threshold := opt.RecentThresholdSec
	if threshold <= 0 {
		threshold = 60
	}
	flush := opt.FlushIntervalSec
	if flush <= 0 {
		flush = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ProgressManager{
		redis:           redis,
		db:              db,
		buffer:          newSlotBuffer(opt.BufferSize),
		recentThreshold: time.Duration(threshold) * time.Second,
		flushInterval:   time.Duration(flush) * time.Second,
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}
}

// ShouldProcessSlot 判断是否需要处理该 slot 的某个协议：
//   - 近期区块直接处理（重连补推的旧区块才需要判重）；
//   - 否则先查 Redis，再 fallback 到 DB。
func (pm *ProgressManager) ShouldProcessSlot(ctx context.Context, slot uint64, protocol programs.Protocol, blockTime *int64) (bool, error) {
	if blockTime != nil && time.Since(time.Unix(*blockTime, 0)) <= pm.recentThreshold {
		return true, nil
	}

	status, err := pm.redis.GetSlotStatus(ctx, slot, protocol)
	if err != nil {
		return false, err
	}
	if status == SlotProcessed || status == SlotInvalid {
		return false, nil
	}
	if pm.db == nil {
		return true, nil
	}

	exists, err := pm.db.CheckSlotExists(ctx, slot, protocol)
	if err != nil {
		return false, err
	}
	if exists {
		// 回填 Redis，下次直接命中
		_ = pm.redis.MarkSlotStatus(ctx, slot, protocol, SlotProcessed)
		return false, nil
	}
	return true, nil
}

// MarkSlotPending 标记 slot 正在处理
func (pm *ProgressManager) MarkSlotPending(ctx context.Context, slot uint64, protocol programs.Protocol) error {
	return pm.redis.MarkSlotStatus(ctx, slot, protocol, SlotPending)
}

// MarkSlotStatus 更新 Redis 状态并加入缓冲区，待后续批量持久化。
// 只有 Processed / Invalid 会被记录。
func (pm *ProgressManager) MarkSlotStatus(ctx context.Context, record SlotRecord) error {
	if record.Status != SlotProcessed && record.Status != SlotInvalid {
		return nil
	}
	if err := pm.redis.MarkSlotStatus(ctx, record.Slot, record.Protocol, record.Status); err != nil {
		return err
	}
	if record.Status == SlotProcessed {
		if err := pm.redis.UpdateLastSlot(ctx, record.Slot); err != nil {
			logger.Warnf("[progress] update last slot %d failed: %v", record.Slot, err)
		}
	}
	if pm.db != nil {
		pm.buffer.Add(&record)
	}
	return nil
}

// Flush 将缓冲区写入 DB，失败时放回缓冲区等待下一轮
func (pm *ProgressManager) Flush(ctx context.Context) error {
	if n := pm.buffer.Dropped(); n > 0 {
		logger.Warnf("[progress] buffer full, %d slot records dropped", n)
	}
	records := pm.buffer.Flush()
	if len(records) == 0 || pm.db == nil {
		return nil
	}
	if err := pm.db.BatchInsertSlots(ctx, records); err != nil {
		pm.buffer.Add(records...)
		return err
	}
	return nil
}

// Start 运行定时 flush 与 GC，直到 Stop 被调用
func (pm *ProgressManager) Start() {
	defer close(pm.done)

	flushTicker := time.NewTicker(pm.flushInterval)
	defer flushTicker.Stop()
	gcTicker := time.NewTicker(gcInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-pm.ctx.Done():
			// 退出前最后一次 flush
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := pm.Flush(ctx); err != nil {
				logger.Errorf("[progress] final flush failed: %v", err)
			}
			cancel()
			return
		case <-flushTicker.C:
			if err := pm.Flush(pm.ctx); err != nil {
				logger.Warnf("[progress] flush failed, %d records kept: %v", pm.buffer.Len(), err)
			}
		case <-gcTicker.C:
			pm.gc()
		}
	}
}

func (pm *ProgressManager) gc() {
	if pm.db == nil {
		return
	}
	for _, p := range trackedProtocols {
		if err := pm.db.DeleteOldSlots(pm.ctx, p, retainDays); err != nil {
			logger.Warnf("[progress] gc %s failed: %v", p, err)
		}
	}
}

// Stop 停止后台循环并等待最后一次 flush 完成
func (pm *ProgressManager) Stop() {
	pm.cancel()
	<-pm.done
}
