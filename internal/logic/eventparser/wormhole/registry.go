package wormhole

import (
	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"
)

// RegisterHandlers 注册 Wormhole Core Bridge 中需要抽取的指令
func RegisterHandlers(m common.DispatchTable[*pb.WormholeEvent]) {
	m[consts.WormholePostMessage] = common.Handler[*pb.WormholeEvent]{Kind: "PostMessage", Decode: extractPostMessageEvent}
	m[consts.WormholePostVAA] = common.Handler[*pb.WormholeEvent]{Kind: "PostVaa", Decode: extractPostVAAEvent}
	m[consts.WormholePostMessageUnreliable] = common.Handler[*pb.WormholeEvent]{Kind: "PostMessageUnreliable", Decode: extractPostMessageUnreliableEvent}
}

func baseEvent(ctx *common.ParserContext, index int, typ pb.InstructionType) *pb.WormholeEvent {
	return &pb.WormholeEvent{
		TxSignature:      ctx.TxHash,
		BlockSlot:        ctx.Slot,
		BlockTime:        ctx.UnixBlockTime(),
		InstructionType:  typ,
		InstructionIndex: uint32(index),
	}
}
