package svc

import (
	"context"
	"fmt"
	"time"

	"peridot-indexer-sol/internal/config"
	"peridot-indexer-sol/internal/logic/eventparser"
	"peridot-indexer-sol/internal/logic/progress"
	"peridot-indexer-sol/internal/pkg/logger"
	"peridot-indexer-sol/internal/pkg/mq"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"
)

// GrpcServiceContext 包含GRPC服务资源
type GrpcServiceContext struct {
	Config          config.GrpcConfig
	Extractor       *eventparser.Extractor
	Producer        *kafka.Producer
	Redis           redis.UniversalClient
	RedisStore      *progress.RedisProgressStore
	DBStore         *progress.DBProgressStore // PostgresDSN 为空时为 nil
	ProgressManager *progress.ProgressManager
}

// NewGrpcServiceContext 创建一个新的 GRPC 服务上下文
func NewGrpcServiceContext(c config.GrpcConfig) (*GrpcServiceContext, error) {
	// 1. 程序 ID 表，配置错误时直接退出
	extractor := eventparser.NewExtractor(c.Programs.ToProgramIDs())
	if _, err := extractor.Programs(); err != nil {
		return nil, err
	}

	// 2. 初始化 Redis 客户端（用于 slot 状态缓存）
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", c.Redis.Addr, err)
	}
	redisStore := progress.NewRedisProgressStore(rdb, c.Redis.KeyPrefix)

	// 3. 初始化 PostgreSQL（可选，用于 slot 落库）
	var (
		dbStore     *progress.DBProgressStore
		recordStore progress.RecordStore
	)
	if c.PostgresDSN != "" {
		store, err := progress.NewDBProgressStore(pingCtx, c.PostgresDSN)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		dbStore, recordStore = store, store
	} else {
		logger.Warnf("postgres_dsn 未配置，slot 进度只记录在 Redis")
	}

	// 4. 初始化 Kafka 生产者
	producer, err := mq.NewKafkaProducer(c.KafkaProducerConf.ToKafkaOption())
	if err != nil {
		logger.Errorf("Kafka producer 初始化失败: %v", err)
		_ = rdb.Close()
		if dbStore != nil {
			dbStore.Close()
		}
		return nil, err
	}

	// 5. 初始化进度管理器（Redis + DB + 缓冲）
	pm := progress.NewProgressManager(redisStore, recordStore, progress.ProgressOption{
		RecentThresholdSec: c.ProgressConf.RecentThresholdSec,
		FlushIntervalSec:   c.ProgressConf.FlushIntervalSec,
		BufferSize:         c.ProgressConf.BufferSize,
	})

	logger.Infof("GRPC 服务上下文初始化完成")
	return &GrpcServiceContext{
		Config:          c,
		Extractor:       extractor,
		Producer:        producer,
		Redis:           rdb,
		RedisStore:      redisStore,
		DBStore:         dbStore,
		ProgressManager: pm,
	}, nil
}

// Close 关闭服务上下文中的资源，需在所有服务停止后调用
func (ctx *GrpcServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.DBStore != nil {
		ctx.DBStore.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
