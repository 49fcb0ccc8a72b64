package common

import (
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/types"
)

// ParserContext 是传入每个指令 handler 的解析上下文，
// 携带区块级字段（slot、区块时间）与交易级字段（签名、账户表）。
type ParserContext struct {
	Slot      uint64
	BlockTime *int64 // nil 表示区块没有时间戳
	TxHash    string // Signatures[0] 的 base58
	Tx        *core.Transaction
}

// BuildParserContext 构造交易的解析上下文，每笔交易只在首次命中目标程序时构造一次
func BuildParserContext(block *core.Block, tx *core.Transaction) *ParserContext {
	return &ParserContext{
		Slot:      block.Slot,
		BlockTime: block.BlockTime,
		TxHash:    types.EncodeAddress(tx.ID()),
		Tx:        tx,
	}
}

// UnixBlockTime 区块时间，缺失时为 0
func (ctx *ParserContext) UnixBlockTime() int64 {
	if ctx.BlockTime == nil {
		return 0
	}
	return *ctx.BlockTime
}

// AccountAt 将指令的第 role 个账户角色解析为 base58 地址。
// 角色不存在或账户下标越界时返回空字符串，不视为错误。
func (ctx *ParserContext) AccountAt(ix *core.Instruction, role int) string {
	key, ok := ctx.AccountKeyAt(ix, role)
	if !ok {
		return ""
	}
	return key.String()
}

// AccountKeyAt 同 AccountAt，返回原始公钥
func (ctx *ParserContext) AccountKeyAt(ix *core.Instruction, role int) (types.Pubkey, bool) {
	if role < 0 || role >= len(ix.Accounts) {
		return types.Pubkey{}, false
	}
	return KeyAt(ctx.Tx.Message.AccountKeys, ix.Accounts[role])
}

// Payer 返回手续费支付者（AccountKeys[0]）的 base58 地址
func (ctx *ParserContext) Payer() string {
	payer, ok := ctx.Tx.Message.FeePayer()
	if !ok {
		return ""
	}
	return payer.String()
}

// KeyAt 按下标读取账户表，越界返回 false
func KeyAt(keys []types.Pubkey, index uint32) (types.Pubkey, bool) {
	if uint64(index) >= uint64(len(keys)) {
		return types.Pubkey{}, false
	}
	return keys[index], true
}

// ProgramOf 返回指令目标程序的 base58 地址
func (ctx *ParserContext) ProgramOf(ix *core.Instruction) string {
	id, ok := KeyAt(ctx.Tx.Message.AccountKeys, ix.ProgramIDIndex)
	if !ok {
		return ""
	}
	return id.String()
}
