package consts

import "runtime"

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()

// Metaplex Token Metadata 指令判别字节
const (
	MetaplexUpdateMetadataAccountV2 byte = 15
	MetaplexCreateMetadataAccountV3 byte = 33
)

// Wormhole Core Bridge 指令判别字节
const (
	WormholePostMessage           byte = 1
	WormholePostVAA               byte = 2
	WormholePostMessageUnreliable byte = 8
)

// 编码后事件集合的类型前缀（写入 Kafka 消息头 4 字节）
const (
	CollectionTypeToken    uint32 = 1
	CollectionTypeMetadata uint32 = 2
	CollectionTypeBridge   uint32 = 3
)
