package wormhole

import (
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
)

// postMessageArgs PostMessage 与 PostMessageUnreliable 的指令参数
type postMessageArgs struct {
	Nonce            uint32
	Payload          []byte
	ConsistencyLevel uint8
}

// PostMessage / PostMessageUnreliable 账户布局：
//
// #0 - Bridge 配置账户
// #1 - Message 账户
// #2 - Emitter（签名者）
// #3 - Sequence 账户
// #4 - Payer（签名者）
// #5 - Fee Collector
// #6 - Clock
// #7 - System Program
// #8 - Rent
const (
	emitterRole = 2
	payerRole   = 4
)

func decodePostedMessage(ctx *common.ParserContext, ix *core.Instruction) (*pb.PostedMessageData, error) {
	var args postMessageArgs
	if err := binlayout.DecodeBorsh(ix.Data[1:], &args); err != nil {
		return nil, common.DecodeFailed(ix.Data, err)
	}
	return &pb.PostedMessageData{
		Emitter:          ctx.AccountAt(ix, emitterRole),
		Nonce:            args.Nonce,
		Payload:          args.Payload,
		ConsistencyLevel: uint32(args.ConsistencyLevel),
		Payer:            ctx.AccountAt(ix, payerRole),
	}, nil
}

// extractPostMessageEvent 解析 PostMessage 指令
func extractPostMessageEvent(ctx *common.ParserContext, ix *core.Instruction, index int) (*pb.WormholeEvent, error) {
	msg, err := decodePostedMessage(ctx, ix)
	if err != nil {
		return nil, err
	}
	event := baseEvent(ctx, index, pb.InstructionTypePostMessage)
	event.PostedMessage = msg
	return event, nil
}

// extractPostMessageUnreliableEvent 解析 PostMessageUnreliable 指令，数据布局与 PostMessage 相同
func extractPostMessageUnreliableEvent(ctx *common.ParserContext, ix *core.Instruction, index int) (*pb.WormholeEvent, error) {
	msg, err := decodePostedMessage(ctx, ix)
	if err != nil {
		return nil, err
	}
	event := baseEvent(ctx, index, pb.InstructionTypePostMessageUnreliable)
	event.PostedMessageUnreliable = msg
	return event, nil
}
