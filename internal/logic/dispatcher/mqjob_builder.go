package dispatcher

import (
	"peridot-indexer-sol/internal/config"
	"peridot-indexer-sol/internal/logic/eventparser"
	"peridot-indexer-sol/internal/mq"
	"peridot-indexer-sol/internal/pb"
)

// BuildAllKafkaJobs 将一个区块的三类事件集合封装为 KafkaJob 列表。
// 每个协议写入各自的 topic，空集合不产生消息。
// 构建后的 []*mq.KafkaJob 可直接传入 mq.SendKafkaJobs 发送。
func BuildAllKafkaJobs(
	slot uint64,
	events *eventparser.BlockEvents,
	cfg config.KafkaProducerConfig,
) ([]*mq.KafkaJob, error) {
	tokenJobs, err := BuildEventKafkaJobs(slot, cfg.Topics.Token, cfg.Partitions.Token,
		events.Token.Events, tokenPartitionKey,
		func(list []*pb.MintOrBurnEvent) pb.Collection { return &pb.MintOrBurnEvents{Events: list} })
	if err != nil {
		return nil, err
	}

	metadataJobs, err := BuildEventKafkaJobs(slot, cfg.Topics.Metadata, cfg.Partitions.Metadata,
		events.Metadata.Events, metadataPartitionKey,
		func(list []*pb.MetaplexEvent) pb.Collection { return &pb.MetaplexEvents{Events: list} })
	if err != nil {
		return nil, err
	}

	bridgeJobs, err := BuildEventKafkaJobs(slot, cfg.Topics.Bridge, cfg.Partitions.Bridge,
		events.Bridge.Events, bridgePartitionKey,
		func(list []*pb.WormholeEvent) pb.Collection { return &pb.WormholeEvents{Events: list} })
	if err != nil {
		return nil, err
	}

	jobs := make([]*mq.KafkaJob, 0, len(tokenJobs)+len(metadataJobs)+len(bridgeJobs))
	jobs = append(jobs, tokenJobs...)
	jobs = append(jobs, metadataJobs...)
	jobs = append(jobs, bridgeJobs...)
	return jobs, nil
}
