package mq

import (
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingTopics(t *testing.T) {
	existing := map[string]kafka.TopicMetadata{"token": {Topic: "token"}}
	wanted := []TopicOption{
		{Topic: "token", Partitions: 4},
		{Topic: "metadata", Partitions: 0},
		{Topic: "bridge", Partitions: 2},
		{Topic: "bridge", Partitions: 8},
		{Topic: ""},
	}

	specs := missingTopics(wanted, existing, 2)
	require.Len(t, specs, 2)
	assert.Equal(t, kafka.TopicSpecification{Topic: "metadata", NumPartitions: 1, ReplicationFactor: 2}, specs[0])
	assert.Equal(t, kafka.TopicSpecification{Topic: "bridge", NumPartitions: 2, ReplicationFactor: 2}, specs[1])
}

func TestBuildProducerConfig(t *testing.T) {
	cm := buildProducerConfig(KafkaProducerOption{Brokers: "b:9092", LingerMs: -1}, "10.0.0.1")

	get := func(key string) kafka.ConfigValue {
		v, err := cm.Get(key, nil)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "b:9092", get("bootstrap.servers"))
	assert.Equal(t, "peridot-indexer-sol-10.0.0.1", get("client.id"))
	assert.Equal(t, defaultBatchSize, get("batch.size"))
	assert.Equal(t, defaultLingerMs, get("linger.ms"))
	assert.Equal(t, true, get("enable.idempotence"))

	cm = buildProducerConfig(KafkaProducerOption{BatchSize: 1024, LingerMs: 0}, "x")
	v, err := cm.Get("linger.ms", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}
