package grpc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"peridot-indexer-sol/internal/config"
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/dispatcher"
	"peridot-indexer-sol/internal/logic/eventparser"
	"peridot-indexer-sol/internal/logic/programs"
	"peridot-indexer-sol/internal/logic/progress"
	"peridot-indexer-sol/internal/logic/txadapter"
	"peridot-indexer-sol/internal/metrics"
	"peridot-indexer-sol/internal/mq"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/logger"
	"peridot-indexer-sol/internal/svc"

	ypb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// BlockProcessor 顺序消费区块：抽取事件、投递 Kafka、记录进度
type BlockProcessor struct {
	sc           *svc.GrpcServiceContext
	producer     mq.Producer
	blockChan    chan *ypb.SubscribeUpdateBlock
	backfillChan chan *core.Block // RPC 补拉的区块
	slotChecker  *SlotChecker     // 未配置 rpc_endpoint 时为 nil
	lastSlot     uint64
	ctx          context.Context
	cancel       func(err error)
	done         chan struct{}
}

func NewBlockProcessor(sc *svc.GrpcServiceContext, blockChan chan *ypb.SubscribeUpdateBlock, backfillChan chan *core.Block) *BlockProcessor {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &BlockProcessor{
		sc:           sc,
		producer:     sc.Producer,
		blockChan:    blockChan,
		backfillChan: backfillChan,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// SetSlotChecker 启用 slot 跳跃检测，需在 Start 之前调用
func (p *BlockProcessor) SetSlotChecker(checker *SlotChecker) {
	p.slotChecker = checker
}

func (p *BlockProcessor) Start() {
	defer close(p.done)
	for {
		select {
		case <-p.ctx.Done():
			return
		case block := <-p.blockChan:
			p.procBlock(block)
			if len(p.blockChan) > 10 {
				logger.Debugf("[processor] block chan len:%v", len(p.blockChan))
			}
		case block := <-p.backfillChan:
			p.dispatch(block, progress.SourceRpc, nil)
		}
	}
}

// Stop 等待正在处理的区块完成后返回
func (p *BlockProcessor) Stop() {
	p.cancel(errors.New("service stop"))
	<-p.done
}

func (p *BlockProcessor) procBlock(raw *ypb.SubscribeUpdateBlock) {
	p.trackGap(raw.Slot)

	pm := p.sc.ProgressManager
	block, err := txadapter.FromGrpcBlock(raw)
	if err != nil {
		logger.Errorf("[processor] slot %d 区块结构错误，跳过: %v", raw.Slot, err)
		for _, proto := range programs.AllProtocols {
			metrics.BlocksSkipped.WithLabelValues(proto.String(), "invalid").Inc()
			_ = pm.MarkSlotStatus(p.ctx, progress.SlotRecord{
				Protocol: proto, Slot: raw.Slot, Source: progress.SourceGrpc, Status: progress.SlotInvalid,
			})
		}
		return
	}
	p.dispatch(block, progress.SourceGrpc, raw)
}

// dispatch 处理一个已转换的区块，raw 仅在来源为 gRPC 时非空
func (p *BlockProcessor) dispatch(block *core.Block, source int16, raw *ypb.SubscribeUpdateBlock) {
	startTime := time.Now()
	defer func() {
		logger.Debugf("[processor] 区块处理总耗时: %v, slot: %d, source: %s",
			time.Since(startTime), block.Slot, progress.SourceName(source))
	}()
	pm := p.sc.ProgressManager

	// 1. 判重，只投递尚未处理的协议
	pending := p.pendingProtocols(block)
	if len(pending) == 0 {
		return
	}

	// 2. 抽取事件
	events, err := p.sc.Extractor.ExtractAll(block)
	if err != nil {
		logger.Errorf("[processor] slot %d 抽取失败: %v", block.Slot, err)
		return
	}
	events = maskEvents(events, pending)

	// 3. 投递 Kafka
	cfg := p.sc.Config
	jobs, err := dispatcher.BuildAllKafkaJobs(block.Slot, events, cfg.KafkaProducerConf)
	if err != nil {
		logger.Errorf("[processor] slot %d 构建 Kafka 消息失败: %v", block.Slot, err)
		return
	}
	ctx, cancel := context.WithTimeout(p.ctx, cfg.TimeConf.SlotDispatchTimeout())
	defer cancel()
	_, failed := mq.SendKafkaJobs(ctx, p.producer, jobs, cfg.TimeConf.EventSendTimeout())
	failedSet := failedProtocols(failed, cfg.KafkaProducerConf)

	// 4. 记录进度，投递失败的协议保持未处理状态
	for proto := range pending {
		if failedSet[proto] {
			logger.Errorf("[processor] slot %d %s 投递失败，等待重新推送", block.Slot, proto)
			continue
		}
		err := pm.MarkSlotStatus(ctx, progress.SlotRecord{
			Protocol:  proto,
			Slot:      block.Slot,
			Source:    source,
			BlockTime: block.UnixTime(),
			Status:    progress.SlotProcessed,
			Events:    collectionOf(events, proto).Len(),
		})
		if err != nil {
			logger.Warnf("[processor] slot %d %s 标记进度失败: %v", block.Slot, proto, err)
		}
	}
	if len(failedSet) == 0 {
		metrics.LastProcessedSlot.Set(float64(block.Slot))
	}
	logger.Infof("[processor] slot %d: tx=%d token=%d metadata=%d bridge=%d jobs=%d failed=%d",
		block.Slot, len(block.Transactions), events.Token.Len(), events.Metadata.Len(), events.Bridge.Len(),
		len(jobs), len(failed))

	// 5. 保存区块供离线回放：gRPC 区块存 protobuf，RPC 区块存 YAML 样本
	if cfg.DumpDir != "" && events.Total() > 0 {
		var err error
		if raw != nil {
			err = txadapter.WriteBlockDump(filepath.Join(cfg.DumpDir, fmt.Sprintf("block_%d.pb", block.Slot)), raw)
		} else {
			err = txadapter.WriteFixture(filepath.Join(cfg.DumpDir, fmt.Sprintf("block_%d.yaml", block.Slot)), block)
		}
		if err != nil {
			logger.Warnf("[processor] dump slot %d failed: %v", block.Slot, err)
		}
	}
}

// pendingProtocols 返回需要处理的协议集合，判重失败时按需要处理
func (p *BlockProcessor) pendingProtocols(block *core.Block) map[programs.Protocol]bool {
	pending := make(map[programs.Protocol]bool, len(programs.AllProtocols))
	for _, proto := range programs.AllProtocols {
		ok, err := p.sc.ProgressManager.ShouldProcessSlot(p.ctx, block.Slot, proto, block.BlockTime)
		if err != nil {
			logger.Warnf("[processor] slot %d %s 判重失败，继续处理: %v", block.Slot, proto, err)
			ok = true
		}
		if ok {
			pending[proto] = true
		} else {
			metrics.BlocksSkipped.WithLabelValues(proto.String(), "duplicate").Inc()
		}
	}
	return pending
}

// trackGap 发现 slot 跳跃时提交给 SlotChecker 核对是否漏块
func (p *BlockProcessor) trackGap(slot uint64) {
	if p.lastSlot != 0 && slot > p.lastSlot+1 && p.slotChecker != nil {
		p.slotChecker.Submit(p.lastSlot+1, slot-1)
	}
	if slot > p.lastSlot {
		p.lastSlot = slot
	}
}

// maskEvents 将不需要投递的协议替换为空集合
func maskEvents(events *eventparser.BlockEvents, pending map[programs.Protocol]bool) *eventparser.BlockEvents {
	out := *events
	if !pending[programs.ProtocolToken] {
		out.Token = &pb.MintOrBurnEvents{}
	}
	if !pending[programs.ProtocolMetadata] {
		out.Metadata = &pb.MetaplexEvents{}
	}
	if !pending[programs.ProtocolBridge] {
		out.Bridge = &pb.WormholeEvents{}
	}
	return &out
}

func collectionOf(events *eventparser.BlockEvents, proto programs.Protocol) pb.Collection {
	switch proto {
	case programs.ProtocolToken:
		return events.Token
	case programs.ProtocolMetadata:
		return events.Metadata
	default:
		return events.Bridge
	}
}

// failedProtocols 根据失败消息的 topic 反查协议
func failedProtocols(failed []mq.KafkaSendResult, cfg config.KafkaProducerConfig) map[programs.Protocol]bool {
	if len(failed) == 0 {
		return nil
	}
	byTopic := map[string]programs.Protocol{
		cfg.Topics.Token:    programs.ProtocolToken,
		cfg.Topics.Metadata: programs.ProtocolMetadata,
		cfg.Topics.Bridge:   programs.ProtocolBridge,
	}
	out := make(map[programs.Protocol]bool, len(failed))
	for _, f := range failed {
		if proto, ok := byTopic[f.Job.Topic]; ok {
			out[proto] = true
		}
	}
	return out
}
