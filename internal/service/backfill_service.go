package service

import (
	"context"
	"errors"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/pkg/logger"
)

// BlockFetcher RpcBlockFetcher 满足该接口
type BlockFetcher interface {
	FetchBlock(ctx context.Context, slot uint64) (*core.Block, error)
}

// BackfillService 补拉 gRPC 流漏掉的区块，交给 BlockProcessor 处理
type BackfillService struct {
	fetcher  BlockFetcher
	slotCh   chan uint64
	out      chan<- *core.Block
	ctx      context.Context
	cancel   func(err error)
	stopChan chan struct{}
}

func NewBackfillService(fetcher BlockFetcher, out chan<- *core.Block) *BackfillService {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &BackfillService{
		fetcher:  fetcher,
		slotCh:   make(chan uint64, 1024),
		out:      out,
		ctx:      ctx,
		cancel:   cancel,
		stopChan: make(chan struct{}),
	}
}

// Submit 提交一个需要补拉的 slot，队列满时丢弃
func (s *BackfillService) Submit(slot uint64) {
	select {
	case s.slotCh <- slot:
	default:
		logger.Warnf("[BackfillService] queue full, slot %d dropped", slot)
	}
}

func (s *BackfillService) Start() {
	defer close(s.stopChan)
	for {
		select {
		case <-s.ctx.Done():
			return
		case slot := <-s.slotCh:
			block, err := s.fetcher.FetchBlock(s.ctx, slot)
			if err != nil {
				logger.Errorf("[BackfillService] slot %d 补拉失败: %v", slot, err)
				continue
			}
			select {
			case s.out <- block:
				logger.Infof("[BackfillService] slot %d 补拉成功, tx=%d", slot, len(block.Transactions))
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func (s *BackfillService) Stop() {
	s.cancel(errors.New("BackfillService stop"))
	<-s.stopChan
}
