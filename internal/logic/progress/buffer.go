package progress

import (
	"sync"
)

// slotBuffer 暂存待写入 DB 的记录，超过容量时丢弃最旧的记录
type slotBuffer struct {
	mu      sync.Mutex
	records []*SlotRecord
	limit   int
	dropped int
}

func newSlotBuffer(limit int) *slotBuffer {
	if limit <= 0 {
		limit = 2048
	}
	return &slotBuffer{limit: limit}
}

func (b *slotBuffer) Add(records ...*SlotRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, records...)
	if over := len(b.records) - b.limit; over > 0 {
		b.records = append(b.records[:0:0], b.records[over:]...)
		b.dropped += over
	}
}

// Flush 取出全部记录并清空缓冲区
func (b *slotBuffer) Flush() []*SlotRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	flushed := b.records
	b.records = nil
	return flushed
}

func (b *slotBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Dropped 返回并清零因超出容量被丢弃的记录数
func (b *slotBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.dropped
	b.dropped = 0
	return n
}
