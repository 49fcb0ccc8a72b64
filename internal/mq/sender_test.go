package mq

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProducer 按 topic 决定投递结果
type fakeProducer struct {
	mu       sync.Mutex
	produced []*kafka.Message

	rejectTopic  string // Produce 直接返回错误
	failTopic    string // 投递报告带错误
	silentTopic  string // 不返回投递报告
	closeTopic   string // 关闭投递通道
	wrongTypeTop string // 投递报告类型错误
}

func (p *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	topic := *msg.TopicPartition.Topic
	if topic == p.rejectTopic {
		return kafka.NewError(kafka.ErrQueueFull, "queue full", false)
	}

	p.mu.Lock()
	p.produced = append(p.produced, msg)
	p.mu.Unlock()

	switch topic {
	case p.silentTopic:
	case p.closeTopic:
		close(deliveryChan)
	case p.wrongTypeTop:
		deliveryChan <- kafka.NewError(kafka.ErrTransport, "transport", false)
	case p.failTopic:
		reply := *msg
		reply.TopicPartition.Error = kafka.NewError(kafka.ErrMsgSizeTooLarge, "too large", false)
		deliveryChan <- &reply
	default:
		deliveryChan <- msg
	}
	return nil
}

func topicsOf(jobs []*KafkaJob) []string {
	var out []string
	for _, j := range jobs {
		out = append(out, j.Topic)
	}
	sort.Strings(out)
	return out
}

func TestSendKafkaJobs(t *testing.T) {
	p := &fakeProducer{
		rejectTopic:  "reject",
		failTopic:    "fail",
		silentTopic:  "silent",
		closeTopic:   "closed",
		wrongTypeTop: "wrong",
	}
	jobs := []*KafkaJob{
		{Topic: "a", Partition: 0, Key: []byte("k"), Value: []byte("v1")},
		{Topic: "b", Partition: 3, Value: []byte("v2")},
		{Topic: "reject"},
		{Topic: "fail"},
		{Topic: "silent"},
		{Topic: "closed"},
		{Topic: "wrong"},
	}

	ok, failed := SendKafkaJobs(context.Background(), p, jobs, 100*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, topicsOf(ok))
	require.Len(t, failed, 5)

	errs := map[string]error{}
	for _, f := range failed {
		errs[f.Job.Topic] = f.Err
	}
	assert.Contains(t, errs["reject"].Error(), "produce error")
	var kerr kafka.Error
	require.True(t, errors.As(errs["fail"], &kerr))
	assert.Equal(t, kafka.ErrMsgSizeTooLarge, kerr.Code())
	assert.Contains(t, errs["silent"].Error(), "delivery timeout")
	assert.ErrorIs(t, errs["closed"], errDeliveryChanClosed)
	assert.Contains(t, errs["wrong"].Error(), "invalid message type")

	// Key / Partition 原样透传
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.produced {
		if *m.TopicPartition.Topic == "a" {
			assert.Equal(t, []byte("k"), m.Key)
			assert.Equal(t, []byte("v1"), m.Value)
		}
		if *m.TopicPartition.Topic == "b" {
			assert.Equal(t, int32(3), m.TopicPartition.Partition)
		}
	}
}

func TestSendKafkaJobs_ContextCancelled(t *testing.T) {
	p := &fakeProducer{silentTopic: "silent"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, failed := SendKafkaJobs(ctx, p, []*KafkaJob{{Topic: "silent"}}, time.Minute)
	assert.Empty(t, ok)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0].Err, context.Canceled)
}

func TestSendKafkaJobs_Empty(t *testing.T) {
	ok, failed := SendKafkaJobs(context.Background(), &fakeProducer{}, nil, time.Second)
	assert.Empty(t, ok)
	assert.Empty(t, failed)
}
