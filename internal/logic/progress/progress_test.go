package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"peridot-indexer-sol/internal/logic/programs"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *RedisProgressStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisProgressStore(rdb, "test")
}

type fakeRecordStore struct {
	exists   map[string]bool
	inserted []*SlotRecord
	failNext bool
	gc       []programs.Protocol
}

func recordKey(slot uint64, p programs.Protocol) string {
	return fmt.Sprintf("%s:%d", p, slot)
}

func (f *fakeRecordStore) CheckSlotExists(_ context.Context, slot uint64, p programs.Protocol) (bool, error) {
	return f.exists[recordKey(slot, p)], nil
}

func (f *fakeRecordStore) BatchInsertSlots(_ context.Context, records []*SlotRecord) error {
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *fakeRecordStore) DeleteOldSlots(_ context.Context, p programs.Protocol, _ int) error {
	f.gc = append(f.gc, p)
	return nil
}

func TestRedisProgressStore_Status(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	st, err := r.GetSlotStatus(ctx, 10, programs.ProtocolToken)
	require.NoError(t, err)
	assert.Equal(t, SlotUnknown, st)

	require.NoError(t, r.MarkSlotStatus(ctx, 10, programs.ProtocolToken, SlotProcessed))
	st, err = r.GetSlotStatus(ctx, 10, programs.ProtocolToken)
	require.NoError(t, err)
	assert.Equal(t, SlotProcessed, st)

	// 协议之间互不影响
	st, err = r.GetSlotStatus(ctx, 10, programs.ProtocolBridge)
	require.NoError(t, err)
	assert.Equal(t, SlotUnknown, st)
}

func TestRedisProgressStore_LastSlotMonotonic(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	last, err := r.LastSlot(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, r.UpdateLastSlot(ctx, 100))
	require.NoError(t, r.UpdateLastSlot(ctx, 90))
	last, err = r.LastSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), last)

	require.NoError(t, r.UpdateLastSlot(ctx, 101))
	last, err = r.LastSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), last)
}

func TestProgressManager_ShouldProcessSlot(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	db := &fakeRecordStore{exists: map[string]bool{recordKey(7, programs.ProtocolMetadata): true}}
	pm := NewProgressManager(r, db, ProgressOption{RecentThresholdSec: 60})

	old := time.Now().Add(-time.Hour).Unix()
	recent := time.Now().Unix()

	ok, err := pm.ShouldProcessSlot(ctx, 5, programs.ProtocolToken, &old)
	require.NoError(t, err)
	assert.True(t, ok, "unknown slot without db record")

	ok, err = pm.ShouldProcessSlot(ctx, 5, programs.ProtocolToken, nil)
	require.NoError(t, err)
	assert.True(t, ok, "nil block time falls through to stores")

	require.NoError(t, r.MarkSlotStatus(ctx, 6, programs.ProtocolToken, SlotProcessed))
	ok, err = pm.ShouldProcessSlot(ctx, 6, programs.ProtocolToken, &old)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = pm.ShouldProcessSlot(ctx, 6, programs.ProtocolToken, &recent)
	require.NoError(t, err)
	assert.True(t, ok, "recent blocks skip dedup")

	ok, err = pm.ShouldProcessSlot(ctx, 7, programs.ProtocolMetadata, &old)
	require.NoError(t, err)
	assert.False(t, ok)
	st, err := r.GetSlotStatus(ctx, 7, programs.ProtocolMetadata)
	require.NoError(t, err)
	assert.Equal(t, SlotProcessed, st, "db hit is written back to redis")
}

func TestProgressManager_MarkAndFlush(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	db := &fakeRecordStore{}
	pm := NewProgressManager(r, db, ProgressOption{})

	require.NoError(t, pm.MarkSlotPending(ctx, 20, programs.ProtocolBridge))
	require.NoError(t, pm.MarkSlotStatus(ctx, SlotRecord{Protocol: programs.ProtocolBridge, Slot: 20, Status: SlotProcessed, Events: 2}))
	require.NoError(t, pm.MarkSlotStatus(ctx, SlotRecord{Protocol: programs.ProtocolToken, Slot: 21, Status: SlotInvalid}))
	require.NoError(t, pm.MarkSlotStatus(ctx, SlotRecord{Protocol: programs.ProtocolToken, Slot: 22, Status: SlotPending}))

	last, err := r.LastSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), last)

	db.failNext = true
	require.Error(t, pm.Flush(ctx))
	assert.Equal(t, 2, pm.buffer.Len(), "failed flush keeps records")

	require.NoError(t, pm.Flush(ctx))
	require.Len(t, db.inserted, 2)
	assert.Equal(t, uint64(20), db.inserted[0].Slot)
	assert.Equal(t, 2, db.inserted[0].Events)
	assert.Equal(t, SlotInvalid, db.inserted[1].Status)
	assert.Zero(t, pm.buffer.Len())
}

func TestProgressManager_WithoutDB(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	pm := NewProgressManager(r, nil, ProgressOption{})

	require.NoError(t, pm.MarkSlotStatus(ctx, SlotRecord{Protocol: programs.ProtocolToken, Slot: 1, Status: SlotProcessed}))
	assert.Zero(t, pm.buffer.Len())
	require.NoError(t, pm.Flush(ctx))

	old := time.Now().Add(-time.Hour).Unix()
	ok, err := pm.ShouldProcessSlot(ctx, 2, programs.ProtocolToken, &old)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProgressManager_StartStop(t *testing.T) {
	r := newTestRedis(t)
	db := &fakeRecordStore{}
	pm := NewProgressManager(r, db, ProgressOption{FlushIntervalSec: 3600})
	go pm.Start()

	require.NoError(t, pm.MarkSlotStatus(context.Background(), SlotRecord{Protocol: programs.ProtocolToken, Slot: 3, Status: SlotProcessed}))
	pm.Stop()
	require.Len(t, db.inserted, 1, "stop performs a final flush")
}

func TestSlotBuffer_DropsOldest(t *testing.T) {
	b := newSlotBuffer(2)
	b.Add(&SlotRecord{Slot: 1}, &SlotRecord{Slot: 2}, &SlotRecord{Slot: 3})
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 1, b.Dropped())
	assert.Zero(t, b.Dropped())

	out := b.Flush()
	require.Len(t, out, 2)
	assert.Equal(t, uint64(2), out[0].Slot)
	assert.Equal(t, uint64(3), out[1].Slot)
}

func TestBuildInsertQuery(t *testing.T) {
	q, args := buildInsertQuery([]*SlotRecord{
		{Protocol: programs.ProtocolToken, Slot: 1, Source: SourceGrpc, BlockTime: 100, Status: SlotProcessed, Events: 3},
		{Protocol: programs.ProtocolBridge, Slot: 2, Source: SourceRpc, Status: SlotInvalid},
	})
	assert.True(t, strings.HasPrefix(q, "INSERT INTO progress_slot"))
	assert.Contains(t, q, "($7,$8,$9,$10,$11,$12,CURRENT_TIMESTAMP)")
	assert.Contains(t, q, "ON CONFLICT (protocol, slot)")
	require.Len(t, args, 12)
	assert.Equal(t, programs.ProtocolToken.String(), args[0])
	assert.Equal(t, int64(1), args[1])
	assert.Equal(t, int16(SlotInvalid), args[10])
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "grpc", SourceName(SourceGrpc))
	assert.Equal(t, "rpc", SourceName(SourceRpc))
	assert.Equal(t, "unknown", SourceName(99))
}
