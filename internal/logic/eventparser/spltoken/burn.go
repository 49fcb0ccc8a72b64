package spltoken

import (
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
)

// extractBurnEvent 解析 SPL Token Burn 指令。
// 注意账户顺序与 MintTo 不同，TokenAccount 在前，Mint 在后。
//
// 账户布局：
//
// #0 - 被销毁的 TokenAccount
// #1 - Mint 账户
// #2 - Owner 或 Delegate
func extractBurnEvent(ctx *common.ParserContext, ix *core.Instruction, index int) (*pb.MintOrBurnEvent, error) {
	if len(ix.Accounts) < minAccounts {
		return nil, common.NotEnoughAccounts(len(ix.Accounts), minAccounts)
	}

	var args amountArgs
	if err := binlayout.DecodeBorsh(ix.Data[1:], &args); err != nil {
		return nil, common.DecodeFailed(ix.Data, err)
	}

	return buildEvent(ctx, ctx.ProgramOf(ix), index, pb.TokenEventTypeBurn,
		ctx.AccountAt(ix, 1), // mint
		ctx.AccountAt(ix, 0), // token account
		ctx.AccountAt(ix, 2), // authority
		args.Amount,
	), nil
}
