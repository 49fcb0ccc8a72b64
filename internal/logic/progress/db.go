package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"peridot-indexer-sol/internal/logic/programs"
	"peridot-indexer-sol/internal/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBProgressStore 管理 slot 的 PostgreSQL 存储。
// 写入用于持久记录进度，服务恢复后可用；高频判重由 Redis 承担，DB 只做 fallback。
type DBProgressStore struct {
	pool *pgxpool.Pool
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS progress_slot (
	protocol   TEXT        NOT NULL,
	slot       BIGINT      NOT NULL,
	source     SMALLINT    NOT NULL,
	block_time BIGINT      NOT NULL,
	status     SMALLINT    NOT NULL,
	events     INTEGER     NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (protocol, slot)
)`

// NewDBProgressStore 连接 PostgreSQL 并确保进度表存在
func NewDBProgressStore(ctx context.Context, dsn string) (*DBProgressStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create progress_slot: %w", err)
	}
	return &DBProgressStore{pool: pool}, nil
}

func (d *DBProgressStore) Close() {
	d.pool.Close()
}

// CheckSlotExists 判定某 slot 是否已存在于 DB 中
func (d *DBProgressStore) CheckSlotExists(ctx context.Context, slot uint64, protocol programs.Protocol) (bool, error) {
	var dummy int
	err := d.pool.QueryRow(ctx,
		`SELECT 1 FROM progress_slot WHERE protocol = $1 AND slot = $2`,
		protocol.String(), int64(slot),
	).Scan(&dummy)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check slot exists error: %w", err)
	}
	return true, nil
}

// BatchInsertSlots 按 batchLimit 分批写入 slot 记录，主键冲突时更新状态
func (d *DBProgressStore) BatchInsertSlots(ctx context.Context, records []*SlotRecord) error {
	const batchLimit = 1000
	for i := 0; i < len(records); i += batchLimit {
		end := min(i+batchLimit, len(records))
		query, args := buildInsertQuery(records[i:end])
		if _, err := d.pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %d slot records: %w", end-i, err)
		}
	}
	return nil
}

const slotRecordColumns = 6

// buildInsertQuery 构造多行 upsert 语句
func buildInsertQuery(records []*SlotRecord) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO progress_slot (protocol, slot, source, block_time, status, events, updated_at) VALUES `)

	args := make([]any, 0, len(records)*slotRecordColumns)
	for i, r := range records {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * slotRecordColumns
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,CURRENT_TIMESTAMP)",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, r.Protocol.String(), int64(r.Slot), r.Source, r.BlockTime, int16(r.Status), r.Events)
	}
	sb.WriteString(` ON CONFLICT (protocol, slot) DO UPDATE SET status = EXCLUDED.status, events = EXCLUDED.events, updated_at = CURRENT_TIMESTAMP`)
	return sb.String(), args
}

// slotsPerDay 按每秒约 2.5 个 slot 估算
const slotsPerDay = 24 * 3600 * 5 / 2

// DeleteOldSlots 删除 retainDays 天以前的记录，分批删除避免长事务
func (d *DBProgressStore) DeleteOldSlots(ctx context.Context, protocol programs.Protocol, retainDays int) error {
	var latest *int64
	if err := d.pool.QueryRow(ctx,
		`SELECT MAX(slot) FROM progress_slot WHERE protocol = $1`, protocol.String(),
	).Scan(&latest); err != nil {
		return fmt.Errorf("fetch latest slot failed: %w", err)
	}
	if latest == nil {
		return nil
	}

	safeSlot := *latest - int64(retainDays)*slotsPerDay
	if safeSlot <= 0 {
		return nil
	}

	const batchSize = 1000
	for {
		tag, err := d.pool.Exec(ctx,
			`DELETE FROM progress_slot WHERE ctid IN (
				SELECT ctid FROM progress_slot WHERE protocol = $1 AND slot < $2 LIMIT $3)`,
			protocol.String(), safeSlot, batchSize,
		)
		if err != nil {
			return fmt.Errorf("delete old slots failed: %w", err)
		}
		n := tag.RowsAffected()
		if n == 0 {
			return nil
		}
		logger.Infof("[progress:GC] deleted %d old %s progress rows", n, protocol)
	}
}
