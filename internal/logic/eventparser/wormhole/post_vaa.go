package wormhole

import (
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
	"peridot-indexer-sol/internal/types"
)

// postVAAArgs PostVAA 的指令参数
type postVAAArgs struct {
	Version          uint8
	GuardianSetIndex uint32
	Timestamp        uint32
	Nonce            uint32
	EmitterChain     uint16
	EmitterAddress   [types.PubkeySize]byte
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}

// extractPostVAAEvent 解析 PostVAA 指令。
//
// 账户布局：
//
// #0 - Guardian Set 账户
// #1 - Bridge 配置账户
// #2 - Signature Set 账户
// #3 - Posted VAA 账户
// #4 - Payer（签名者）
// #5 - Clock
// #6 - Rent
// #7 - System Program
func extractPostVAAEvent(ctx *common.ParserContext, ix *core.Instruction, index int) (*pb.WormholeEvent, error) {
	var args postVAAArgs
	if err := binlayout.DecodeBorsh(ix.Data[1:], &args); err != nil {
		return nil, common.DecodeFailed(ix.Data, err)
	}

	emitter := make([]byte, types.PubkeySize)
	copy(emitter, args.EmitterAddress[:])

	event := baseEvent(ctx, index, pb.InstructionTypePostVaa)
	event.PostedVaa = &pb.PostedVaaData{
		Version:          uint32(args.Version),
		GuardianSetIndex: args.GuardianSetIndex,
		VaaTimestamp:     args.Timestamp,
		VaaNonce:         args.Nonce,
		EmitterChain:     uint32(args.EmitterChain),
		EmitterAddress:   emitter,
		Sequence:         args.Sequence,
		ConsistencyLevel: uint32(args.ConsistencyLevel),
		Payload:          args.Payload,
		Payer:            ctx.AccountAt(ix, payerRole),
	}
	return event, nil
}
