package spltoken

import (
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
)

// extractMintToEvent 解析 SPL Token MintTo 指令。
//
// 账户布局：
//
// #0 - Mint 账户
// #1 - 接收增发的 TokenAccount
// #2 - Mint Authority（多签时其后为签名者）
func extractMintToEvent(ctx *common.ParserContext, ix *core.Instruction, index int) (*pb.MintOrBurnEvent, error) {
	if len(ix.Accounts) < minAccounts {
		return nil, common.NotEnoughAccounts(len(ix.Accounts), minAccounts)
	}

	var args amountArgs
	if err := binlayout.DecodeBorsh(ix.Data[1:], &args); err != nil {
		return nil, common.DecodeFailed(ix.Data, err)
	}

	return buildEvent(ctx, ctx.ProgramOf(ix), index, pb.TokenEventTypeMint,
		ctx.AccountAt(ix, 0), // mint
		ctx.AccountAt(ix, 1), // token account
		ctx.AccountAt(ix, 2), // authority
		args.Amount,
	), nil
}
