package eventparser

import (
	"runtime/debug"
	"time"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/logic/eventparser/metaplex"
	"peridot-indexer-sol/internal/logic/eventparser/spltoken"
	"peridot-indexer-sol/internal/logic/eventparser/wormhole"
	"peridot-indexer-sol/internal/logic/programs"
	"peridot-indexer-sol/internal/metrics"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/logger"
	"peridot-indexer-sol/internal/types"
)

// Extractor 持有只读的程序 ID 表与三张判别字节路由表，可被多个 goroutine 并发使用。
// 每次抽取只读取输入区块，不保留跨区块状态。
type Extractor struct {
	table   *programs.Table
	loadErr error

	token    common.DispatchTable[*pb.MintOrBurnEvent]
	metadata common.DispatchTable[*pb.MetaplexEvent]
	bridge   common.DispatchTable[*pb.WormholeEvent]
}

// NewExtractor 加载程序 ID 表并注册所有协议 handler。
// 程序 ID 表加载失败不会 panic，之后每次抽取都返回该错误。
func NewExtractor(ids programs.IDs) *Extractor {
	table, err := programs.Load(ids)
	if err != nil {
		logger.Errorf("[eventparser] 程序 ID 表加载失败: %v", err)
	}

	e := &Extractor{
		table:    table,
		loadErr:  err,
		token:    common.DispatchTable[*pb.MintOrBurnEvent]{},
		metadata: common.DispatchTable[*pb.MetaplexEvent]{},
		bridge:   common.DispatchTable[*pb.WormholeEvent]{},
	}
	spltoken.RegisterHandlers(e.token)
	metaplex.RegisterHandlers(e.metadata)
	wormhole.RegisterHandlers(e.bridge)
	return e
}

// Programs 返回程序 ID 表
func (e *Extractor) Programs() (*programs.Table, error) {
	return e.table, e.loadErr
}

// ExtractTokenEvents 抽取区块中的 SPL Token MintTo / Burn 事件
func (e *Extractor) ExtractTokenEvents(block *core.Block) (*pb.MintOrBurnEvents, error) {
	events, err := extractBlock(e, block, programs.ProtocolToken, e.token)
	if err != nil {
		return nil, err
	}
	return &pb.MintOrBurnEvents{Events: events}, nil
}

// ExtractMetadataEvents 抽取区块中的 Metaplex 元数据创建 / 更新事件
func (e *Extractor) ExtractMetadataEvents(block *core.Block) (*pb.MetaplexEvents, error) {
	events, err := extractBlock(e, block, programs.ProtocolMetadata, e.metadata)
	if err != nil {
		return nil, err
	}
	return &pb.MetaplexEvents{Events: events}, nil
}

// ExtractBridgeEvents 抽取区块中的 Wormhole 消息 / VAA 事件
func (e *Extractor) ExtractBridgeEvents(block *core.Block) (*pb.WormholeEvents, error) {
	events, err := extractBlock(e, block, programs.ProtocolBridge, e.bridge)
	if err != nil {
		return nil, err
	}
	return &pb.WormholeEvents{Events: events}, nil
}

// BlockEvents 一个区块三类事件的抽取结果
type BlockEvents struct {
	Token    *pb.MintOrBurnEvents
	Metadata *pb.MetaplexEvents
	Bridge   *pb.WormholeEvents
}

// Collections 按固定顺序返回三类集合
func (b *BlockEvents) Collections() []pb.Collection {
	return []pb.Collection{b.Token, b.Metadata, b.Bridge}
}

// Total 事件总数
func (b *BlockEvents) Total() int {
	return b.Token.Len() + b.Metadata.Len() + b.Bridge.Len()
}

// ExtractAll 依次执行三个抽取函数，任一返回致命错误即返回
func (e *Extractor) ExtractAll(block *core.Block) (*BlockEvents, error) {
	token, err := e.ExtractTokenEvents(block)
	if err != nil {
		return nil, err
	}
	metadata, err := e.ExtractMetadataEvents(block)
	if err != nil {
		return nil, err
	}
	bridge, err := e.ExtractBridgeEvents(block)
	if err != nil {
		return nil, err
	}
	return &BlockEvents{Token: token, Metadata: metadata, Bridge: bridge}, nil
}

// extractBlock 按交易顺序、指令顺序遍历区块，产出事件的顺序与 (交易序号, 指令序号) 一致
func extractBlock[E any](
	e *Extractor,
	block *core.Block,
	protocol programs.Protocol,
	handlers common.DispatchTable[E],
) ([]E, error) {
	if e.loadErr != nil {
		return nil, e.loadErr
	}

	start := time.Now()
	defer func() {
		metrics.BlockExtractSeconds.WithLabelValues(protocol.String()).Observe(time.Since(start).Seconds())
	}()

	programID := e.table.ID(protocol)
	events := make([]E, 0)
	for _, tx := range block.Transactions {
		if tx == nil {
			continue
		}
		if tx.Failed {
			metrics.FailedTxSkipped.WithLabelValues(protocol.String()).Inc()
			continue
		}
		events = append(events, extractTx(block, tx, protocol, programID, handlers)...)
	}
	return events, nil
}

// extractTx 处理单笔交易
func extractTx[E any](
	block *core.Block,
	tx *core.Transaction,
	protocol programs.Protocol,
	programID types.Pubkey,
	handlers common.DispatchTable[E],
) (result []E) {
	var ctx *common.ParserContext
	keys := tx.Message.AccountKeys
	for i := range tx.Message.Instructions {
		ix := &tx.Message.Instructions[i]

		// 1. 程序 ID 按原始字节比较，下标越界直接跳过
		id, ok := common.KeyAt(keys, ix.ProgramIDIndex)
		if !ok || id != programID {
			continue
		}

		// 2. 判别字节查表，未注册的指令类型静默跳过
		if len(ix.Data) == 0 {
			continue
		}
		h, ok := handlers[ix.Data[0]]
		if !ok {
			continue
		}

		// 3. 解码，失败只丢弃当前指令
		if ctx == nil {
			ctx = common.BuildParserContext(block, tx)
		}
		event, err := decodeSafe(h, ctx, ix, i)
		if err != nil {
			metrics.InstructionsSkipped.WithLabelValues(protocol.String(), common.SkipReason(err)).Inc()
			logger.Warnf("[%s:%s] skip instruction %d: %v, slot=%d, tx=%s",
				protocol, h.Kind, i, err, block.Slot, ctx.TxHash)
			continue
		}
		metrics.EventsEmitted.WithLabelValues(protocol.String(), h.Kind).Inc()
		result = append(result, event)
	}
	return result
}

// decodeSafe 调用 handler，panic 只丢弃当前指令
func decodeSafe[E any](h common.Handler[E], ctx *common.ParserContext, ix *core.Instruction, index int) (event E, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[eventparser::decodeSafe] panic kind=%s slot=%d tx=%s ix=%d: %+v\nstack: %s",
				h.Kind, ctx.Slot, ctx.TxHash, index, r, debug.Stack())
			var zero E
			event = zero
			err = common.HandlerPanicked(r)
		}
	}()
	return h.Decode(ctx, ix, index)
}
