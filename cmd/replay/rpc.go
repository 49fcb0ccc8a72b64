package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser"
	"peridot-indexer-sol/internal/logic/txadapter"
	"peridot-indexer-sol/internal/pkg/logger"
	"peridot-indexer-sol/internal/service"
	"peridot-indexer-sol/internal/utils"

	"github.com/spf13/cobra"
)

// getBlocks 单次查询的最大 slot 跨度
const rpcChunk = 1000

func newRpcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc",
		Short: "Fetch blocks over JSON-RPC and extract events",
		RunE:  runRpc,
	}
	cmd.Flags().String("rpc", "", "Solana RPC URL")
	cmd.Flags().Uint64("from", 0, "start slot (inclusive)")
	cmd.Flags().Uint64("to", 0, "end slot (inclusive)")
	cmd.Flags().Int("workers", consts.CpuCount, "blocks fetched and extracted concurrently")
	cmd.Flags().String("save-fixture", "", "directory to save blocks with events as YAML fixtures")
	_ = cmd.MarkFlagRequired("rpc")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

type fetchedBlock struct {
	slot   uint64
	block  *core.Block
	events *eventparser.BlockEvents
	err    error
}

func runRpc(cmd *cobra.Command, _ []string) error {
	url, _ := cmd.Flags().GetString("rpc")
	from, _ := cmd.Flags().GetUint64("from")
	to, _ := cmd.Flags().GetUint64("to")
	workers, _ := cmd.Flags().GetInt("workers")
	fixtureDir, _ := cmd.Flags().GetString("save-fixture")
	if to == 0 {
		to = from
	}
	if from > to {
		return fmt.Errorf("invalid slot range [%d, %d]", from, to)
	}

	r, err := newReplayer(cmd)
	if err != nil {
		return err
	}
	defer r.summary()

	fetcher, err := service.NewRpcBlockFetcher(url)
	if err != nil {
		return err
	}
	if fixtureDir != "" {
		if err := os.MkdirAll(fixtureDir, 0o755); err != nil {
			return fmt.Errorf("create fixture dir: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failures := 0
	for chunkFrom := from; ; chunkFrom += rpcChunk {
		chunkTo := min(chunkFrom+rpcChunk-1, to)
		slots, err := fetcher.ListSlots(ctx, chunkFrom, chunkTo)
		if err != nil {
			return fmt.Errorf("list slots [%d, %d]: %w", chunkFrom, chunkTo, err)
		}
		logger.Infof("[replay] slots [%d, %d]: %d blocks", chunkFrom, chunkTo, len(slots))

		results := utils.ParallelMap(slots, workers, func(slot uint64) fetchedBlock {
			block, err := fetcher.FetchBlock(ctx, slot)
			if err != nil {
				return fetchedBlock{slot: slot, err: err}
			}
			events, err := r.extractor.ExtractAll(block)
			return fetchedBlock{slot: slot, block: block, events: events, err: err}
		})

		// 按 slot 顺序写出
		for _, res := range results {
			if res.err != nil {
				if errors.Is(res.err, context.Canceled) {
					return res.err
				}
				logger.Errorf("[replay] slot %d: %v", res.slot, res.err)
				failures++
				continue
			}
			if err := r.write(res.slot, res.events); err != nil {
				return err
			}
			if fixtureDir != "" && res.events.Total() > 0 {
				path := filepath.Join(fixtureDir, fmt.Sprintf("block_%d.yaml", res.slot))
				if err := txadapter.WriteFixture(path, res.block); err != nil {
					return err
				}
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if chunkTo == to {
			break
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d slots failed", failures)
	}
	return nil
}
