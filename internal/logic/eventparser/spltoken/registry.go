package spltoken

import (
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
)

// RegisterHandlers 注册 Token Program 中需要抽取的指令
func RegisterHandlers(m common.DispatchTable[*pb.MintOrBurnEvent]) {
	m[byte(sdktoken.InstructionMintTo)] = common.Handler[*pb.MintOrBurnEvent]{Kind: "MintTo", Decode: extractMintToEvent}
	m[byte(sdktoken.InstructionBurn)] = common.Handler[*pb.MintOrBurnEvent]{Kind: "Burn", Decode: extractBurnEvent}
}

// amountArgs MintTo / Burn 的指令参数，仅一个 u64 数量
type amountArgs struct {
	Amount uint64
}

// minAccounts MintTo / Burn 至少需要三个账户角色
const minAccounts = 3

func buildEvent(
	ctx *common.ParserContext,
	programID string,
	index int,
	eventType pb.TokenEventType,
	mint, tokenAccount, authority string,
	amount uint64,
) *pb.MintOrBurnEvent {
	return &pb.MintOrBurnEvent{
		TxSignature:      ctx.TxHash,
		BlockSlot:        ctx.Slot,
		BlockTime:        ctx.UnixBlockTime(),
		InstructionIndex: uint32(index),
		EventType:        eventType,
		ProgramID:        programID,
		MintAccount:      mint,
		TokenAccount:     tokenAccount,
		Authority:        authority,
		Amount:           amount,
	}
}
