package eventparser

import (
	"crypto/sha256"
	"encoding/binary"

	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/types"
)

var (
	tokenProgram    = types.PubkeyFromBase58(consts.TokenProgramStr)
	metadataProgram = types.PubkeyFromBase58(consts.TokenMetaProgramStr)
	bridgeProgram   = types.PubkeyFromBase58(consts.WormholeProgramStr)
)

// pk 由名字派生一个确定的测试公钥
func pk(name string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte(name)))
}

func sig(name string) []byte {
	h := sha256.Sum256([]byte("sig:" + name))
	out := make([]byte, 64)
	copy(out, h[:])
	copy(out[32:], h[:])
	return out
}

func amountData(disc byte, amount uint64) []byte {
	return binary.LittleEndian.AppendUint64([]byte{disc}, amount)
}

type txBuilder struct {
	tx    *core.Transaction
	index map[types.Pubkey]uint32
}

// newTx payer 固定位于 AccountKeys[0]
func newTx(name string, payer types.Pubkey) *txBuilder {
	b := &txBuilder{
		tx:    &core.Transaction{Signatures: [][]byte{sig(name)}},
		index: map[types.Pubkey]uint32{},
	}
	b.key(payer)
	return b
}

func (b *txBuilder) key(p types.Pubkey) uint32 {
	if i, ok := b.index[p]; ok {
		return i
	}
	i := uint32(len(b.tx.Message.AccountKeys))
	b.tx.Message.AccountKeys = append(b.tx.Message.AccountKeys, p)
	b.index[p] = i
	return i
}

func (b *txBuilder) ix(program types.Pubkey, accounts []types.Pubkey, data []byte) *txBuilder {
	ix := core.Instruction{ProgramIDIndex: b.key(program), Data: data}
	for _, a := range accounts {
		ix.Accounts = append(ix.Accounts, b.key(a))
	}
	b.tx.Message.Instructions = append(b.tx.Message.Instructions, ix)
	return b
}

// rawIx 直接指定下标，用于构造越界场景
func (b *txBuilder) rawIx(programIndex uint32, accounts []uint32, data []byte) *txBuilder {
	b.tx.Message.Instructions = append(b.tx.Message.Instructions, core.Instruction{
		ProgramIDIndex: programIndex,
		Accounts:       accounts,
		Data:           data,
	})
	return b
}

func (b *txBuilder) failed() *txBuilder {
	b.tx.Failed = true
	return b
}

func (b *txBuilder) build() *core.Transaction {
	return b.tx
}

func newBlock(slot uint64, blockTime *int64, txs ...*core.Transaction) *core.Block {
	for i, tx := range txs {
		tx.Index = uint64(i)
	}
	return &core.Block{Slot: slot, BlockTime: blockTime, Transactions: txs}
}

func ptr[T any](v T) *T {
	return &v
}
