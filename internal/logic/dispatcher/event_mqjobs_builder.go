package dispatcher

import (
	"fmt"

	"peridot-indexer-sol/internal/mq"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/utils"
)

// BuildEventKafkaJobs 按分区 key 将事件分桶，每个非空分区生成一个 KafkaJob。
// 同一分区内保持事件在区块中的原始顺序；消息 key 为 slot。
func BuildEventKafkaJobs[E any](
	slot uint64,
	topic string,
	partitions int,
	events []E,
	partitionKey func(E) []byte,
	wrap func([]E) pb.Collection,
) ([]*mq.KafkaJob, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if partitions <= 0 {
		partitions = 1
	}

	buckets := make([][]E, partitions)
	capacity := utils.CalcCapPerPartition(len(events), partitions, 10)
	for _, evt := range events {
		pid := utils.PartitionHashBytes(partitionKey(evt), uint32(partitions))
		if buckets[pid] == nil {
			buckets[pid] = make([]E, 0, capacity)
		}
		buckets[pid] = append(buckets[pid], evt)
	}

	key := utils.SlotKey(slot)
	jobs := make([]*mq.KafkaJob, 0, len(buckets))
	for pid, list := range buckets {
		if len(list) == 0 {
			continue
		}
		value, err := utils.EncodeCollection(wrap(list))
		if err != nil {
			return nil, fmt.Errorf("encode %s partition %d at slot %d: %w", topic, pid, slot, err)
		}
		jobs = append(jobs, &mq.KafkaJob{
			Topic:     topic,
			Partition: int32(pid),
			Key:       key,
			Value:     value,
		})
	}
	return jobs, nil
}
