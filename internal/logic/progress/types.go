package progress

import "peridot-indexer-sol/internal/logic/programs"

// SlotStatus 表示 slot 的处理状态（统一 Redis 与 DB 编码）
type SlotStatus int

const (
	SlotUnknown   SlotStatus = 0 // Redis 不存在
	SlotProcessed SlotStatus = 1 // 已成功投递
	SlotInvalid   SlotStatus = 2 // 区块结构错误，跳过
	SlotPending   SlotStatus = 3 // 处理中，仅 Redis 使用
)

// 进度按协议分别记录，同一 slot 三类集合各自投递、各自判重
var trackedProtocols = programs.AllProtocols

// Source 表示区块来源（grpc、rpc）
const (
	SourceUnknown int16 = 0
	SourceGrpc    int16 = 1
	SourceRpc     int16 = 2
)

func SourceName(src int16) string {
	switch src {
	case SourceGrpc:
		return "grpc"
	case SourceRpc:
		return "rpc"
	default:
		return "unknown"
	}
}

// SlotRecord 表示一条待写入 DB 的 slot 记录
type SlotRecord struct {
	Protocol  programs.Protocol
	Slot      uint64
	Source    int16
	BlockTime int64 // Unix 秒，区块无时间戳时为 0
	Status    SlotStatus
	Events    int // 该协议在此 slot 抽取到的事件数
}
