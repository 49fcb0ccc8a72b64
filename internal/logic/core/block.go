package core

import (
	"peridot-indexer-sol/internal/types"
)

// Block 一个区块的只读视图，由 txadapter 从 Geyser / RPC / 样本文件构造。
// 抽取流程只读不写。
type Block struct {
	Slot         uint64
	ParentSlot   uint64
	BlockHash    string
	BlockTime    *int64 // Unix 秒，nil 表示区块没有时间戳
	Transactions []*Transaction
}

// UnixTime 返回区块时间，缺失时为 0
func (b *Block) UnixTime() int64 {
	if b.BlockTime == nil {
		return 0
	}
	return *b.BlockTime
}

// Transaction 约定：
//   - Signatures[0] 是交易的唯一标识；
//   - Message.AccountKeys[0] 是手续费支付者。
type Transaction struct {
	Index      uint64   // 在区块中的序号
	Signatures [][]byte // 原始 64 字节签名
	Failed     bool     // 链上执行失败（或缺少执行结果），整笔跳过
	Message    Message
}

// ID 返回 Signatures[0]，没有签名时为 nil
func (tx *Transaction) ID() []byte {
	if len(tx.Signatures) == 0 {
		return nil
	}
	return tx.Signatures[0]
}

// Message 账户表包含静态账户，以及 v0 交易通过地址查找表加载的 writable / readonly 账户（按此顺序拼接）
type Message struct {
	AccountKeys  []types.Pubkey
	Instructions []Instruction
}

// FeePayer 返回 AccountKeys[0]
func (m *Message) FeePayer() (types.Pubkey, bool) {
	if len(m.AccountKeys) == 0 {
		return types.Pubkey{}, false
	}
	return m.AccountKeys[0], true
}

// Instruction 顶层指令。ProgramIDIndex 与 Accounts 均为 AccountKeys 的下标，
// Data[0] 为判别字节，其余字节由具体协议解释。
type Instruction struct {
	ProgramIDIndex uint32
	Accounts       []uint32
	Data           []byte
}
