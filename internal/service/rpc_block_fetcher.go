package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/txadapter"
	"peridot-indexer-sol/internal/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
)

// RpcBlockFetcher 通过 Solana JSON-RPC 拉取区块
type RpcBlockFetcher struct {
	client     *client.Client
	timeout    time.Duration
	retryCount int
}

func NewRpcBlockFetcher(endpoint string) (*RpcBlockFetcher, error) {
	if endpoint == "" {
		return nil, errors.New("empty rpc endpoint")
	}
	c := client.NewClient(endpoint)
	if c == nil {
		return nil, errors.New("rpc client init failed")
	}
	return &RpcBlockFetcher{client: c, timeout: 15 * time.Second, retryCount: 3}, nil
}

// FetchBlock 拉取单个区块并转换为 core.Block，失败时重试
func (f *RpcBlockFetcher) FetchBlock(ctx context.Context, slot uint64) (block *core.Block, err error) {
	for i := 0; i < f.retryCount; i++ {
		block, err = f.fetchOnce(ctx, slot)
		if err == nil {
			return block, nil
		}
		logger.Warnf("[RpcBlockFetcher] 第 %d 次 getBlock(%d) 失败: %v", i+1, slot, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 300 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("getBlock %d: %w", slot, err)
}

func (f *RpcBlockFetcher) fetchOnce(ctx context.Context, slot uint64) (block *core.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[RpcBlockFetcher] getBlock panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("getBlock panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	raw, err := f.client.GetBlock(ctx, slot)
	if err != nil {
		return nil, err
	}
	return txadapter.FromRpcBlock(slot, raw)
}

// ListSlots 返回 [from, to] 内实际出块的 slot
func (f *RpcBlockFetcher) ListSlots(ctx context.Context, from, to uint64) ([]uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	resp, err := f.client.RpcClient.GetBlocks(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getBlocks [%d, %d]: %v", from, to, resp.Error)
	}
	return resp.Result, nil
}
