package metaplex

import (
	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// RegisterHandlers 注册 Token Metadata Program 中需要抽取的指令
func RegisterHandlers(m common.DispatchTable[*pb.MetaplexEvent]) {
	m[consts.MetaplexCreateMetadataAccountV3] = common.Handler[*pb.MetaplexEvent]{Kind: "CreateMetadataAccountV3", Decode: extractCreateEvent}
	m[consts.MetaplexUpdateMetadataAccountV2] = common.Handler[*pb.MetaplexEvent]{Kind: "UpdateMetadataAccountV2", Decode: extractUpdateEvent}
}

// blockTimestamp 区块时间转为 Timestamp，缺失时为 nil
func blockTimestamp(ctx *common.ParserContext) *timestamppb.Timestamp {
	if ctx.BlockTime == nil {
		return nil
	}
	return &timestamppb.Timestamp{Seconds: *ctx.BlockTime}
}

// baseEvent 填充 Create / Update 共用字段。payer 固定取交易的 AccountKeys[0]。
func baseEvent(ctx *common.ParserContext, index int) *pb.MetaplexEvent {
	return &pb.MetaplexEvent{
		TxHash:           ctx.TxHash,
		BlockSlot:        ctx.Slot,
		BlockTime:        blockTimestamp(ctx),
		InstructionIndex: uint32(index),
		PayerAddress:     ctx.Payer(),
	}
}
