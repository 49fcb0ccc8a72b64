package config

import (
	"time"

	"peridot-indexer-sol/internal/logic/programs"
	"peridot-indexer-sol/internal/pkg/logger"
	"peridot-indexer-sol/internal/pkg/mq"
)

type LogConfig struct {
	Format   string `json:"format,default=console"` // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional"`       // 日志目录，为空时输出到 stdout
	Level    string `json:"level,default=info"`     // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional"`      // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// ProgramsConfig 三个目标程序的 base58 地址，留空使用内置默认值
type ProgramsConfig struct {
	Token    string `json:"token,optional"`
	Metadata string `json:"metadata,optional"`
	Bridge   string `json:"bridge,optional"`
}

func (c *ProgramsConfig) ToProgramIDs() programs.IDs {
	return programs.IDs{
		Token:    c.Token,
		Metadata: c.Metadata,
		Bridge:   c.Bridge,
	}
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers   string `json:"brokers"`              // Kafka broker 地址，多个用英文逗号分隔
	BatchSize int    `json:"batch_size,optional"`  // 批处理大小（单位字节）
	LingerMs  int    `json:"linger_ms,default=-1"` // 批处理最大延迟（毫秒），负数使用默认值

	Topics struct {
		Token    string `json:"token,default=peridot.spl_token.v1"`
		Metadata string `json:"metadata,default=peridot.metaplex.v1"`
		Bridge   string `json:"bridge,default=peridot.wormhole.v1"`
	} `json:"topics,optional"`

	Partitions struct {
		Token    int `json:"token,default=1"`
		Metadata int `json:"metadata,default=1"`
		Bridge   int `json:"bridge,default=1"`
	} `json:"partitions,optional"`
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
		Topics: []mq.TopicOption{
			{Topic: c.Topics.Token, Partitions: c.Partitions.Token},
			{Topic: c.Topics.Metadata, Partitions: c.Partitions.Metadata},
			{Topic: c.Topics.Bridge, Partitions: c.Partitions.Bridge},
		},
	}
}

// TimeConfig 表示各种超时配置（单位：毫秒）
type TimeConfig struct {
	SlotDispatchTimeoutMs int `json:"slot_dispatch_timeout_ms,default=5000"` // 每个 slot 的处理最大耗时（Kafka + Redis）
	EventSendTimeoutMs    int `json:"event_send_timeout_ms,default=3000"`    // 单条消息发送到 Kafka 并等待 ack 的超时时间
}

// SlotDispatchTimeout 未配置时为 5s
func (c TimeConfig) SlotDispatchTimeout() time.Duration {
	return msOrDefault(c.SlotDispatchTimeoutMs, 5000)
}

// EventSendTimeout 未配置时为 3s
func (c TimeConfig) EventSendTimeout() time.Duration {
	return msOrDefault(c.EventSendTimeoutMs, 3000)
}

func msOrDefault(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

// RedisConfig slot 进度热数据
type RedisConfig struct {
	Addr      string `json:"addr"`
	Password  string `json:"password,optional"`
	DB        int    `json:"db,optional"`
	KeyPrefix string `json:"key_prefix,default=peridot:sol"`
}

// ProgressConfig 索引进度管理配置
type ProgressConfig struct {
	RecentThresholdSec int `json:"recent_threshold_sec,default=60"` // 判定为"近期 block"的时间阈值（秒）
	FlushIntervalSec   int `json:"flush_interval_sec,default=10"`   // 缓冲区刷入 PostgreSQL 的间隔（秒）
	BufferSize         int `json:"buffer_size,default=2048"`        // 缓冲区最多保留的 slot 数
}

// GrpcClientConfig gRPC 客户端连接相关配置
type GrpcClientConfig struct {
	Endpoint string `json:"endpoint"`         // gRPC 服务端地址
	XToken   string `json:"x_token,optional"` // x-token 认证
	Insecure bool   `json:"insecure,optional"`

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `json:"stream_ping_interval_sec,default=10"`

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int `json:"keepalive_ping_interval_sec,default=30"`
	KeepalivePingTimeoutSec  int `json:"keepalive_ping_timeout_sec,default=10"`

	// gRPC 窗口大小调优（用于大数据流推送）
	InitialWindowSize     int `json:"initial_window_size,default=1073741824"`
	InitialConnWindowSize int `json:"initial_conn_window_size,default=1073741824"`

	// 消息体大小限制
	MaxCallSendMsgSize int `json:"max_call_send_msg_size,default=67108864"`
	MaxCallRecvMsgSize int `json:"max_call_recv_msg_size,default=67108864"`

	// 超时与重连策略
	ReconnectIntervalSec int `json:"reconnect_interval_sec,default=2"`
	ConnectTimeoutSec    int `json:"connect_timeout_sec,default=10"`
	SendTimeoutSec       int `json:"send_timeout_sec,default=5"`
	BlockRecvTimeoutSec  int `json:"block_recv_timeout_sec,default=30"` // 超过该时间未收到区块触发重连
	MaxLatencyWarnMs     int `json:"max_latency_warn_ms,default=3000"`  // 延迟告警阈值（毫秒）
}

// MetricsConfig prometheus 指标服务
type MetricsConfig struct {
	ListenAddr string `json:"listen_addr,optional"` // 为空时不启动
}

// GrpcConfig 是主配置结构体，用于驱动索引器服务
type GrpcConfig struct {
	LogConf           LogConfig           `json:"logger"`
	Programs          ProgramsConfig      `json:"programs,optional"`
	KafkaProducerConf KafkaProducerConfig `json:"kafka_producer"`
	TimeConf          TimeConfig          `json:"time_conf,optional"`
	Redis             RedisConfig         `json:"redis"`
	PostgresDSN       string              `json:"postgres_dsn,optional"` // 为空时只记录 Redis 进度
	ProgressConf      ProgressConfig      `json:"progress,optional"`
	Grpc              GrpcClientConfig    `json:"grpc"`
	Metrics           MetricsConfig       `json:"metrics,optional"`
	RpcEndpoint       string              `json:"rpc_endpoint,optional"` // 用于漏块检测，为空时不启用
	DumpDir           string              `json:"dump_dir,optional"`     // 不为空时保存包含目标事件的原始区块
}

// ReplayConfig 回放命令读取的配置，只使用程序地址与日志部分
type ReplayConfig struct {
	LogConf  LogConfig      `json:"logger,optional"`
	Programs ProgramsConfig `json:"programs,optional"`
}
