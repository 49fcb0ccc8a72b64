package txadapter

import (
	"fmt"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/types"

	"github.com/blocto/solana-go-sdk/client"
)

// FromRpcBlock 将 getBlock 返回的区块转换为 core.Block。
// BlockTransaction.AccountKeys 已包含地址查找表加载的账户，顺序与 Geyser 一致。
func FromRpcBlock(slot uint64, block *client.Block) (*core.Block, error) {
	if block == nil {
		return nil, fmt.Errorf("nil block at slot %d", slot)
	}

	out := &core.Block{
		Slot:         slot,
		ParentSlot:   block.ParentSlot,
		BlockHash:    block.Blockhash,
		Transactions: make([]*core.Transaction, 0, len(block.Transactions)),
	}
	if block.BlockTime != nil {
		ts := block.BlockTime.Unix()
		out.BlockTime = &ts
	}

	for i, btx := range block.Transactions {
		signatures := make([][]byte, len(btx.Transaction.Signatures))
		for j, s := range btx.Transaction.Signatures {
			signatures[j] = s
		}

		source := btx.AccountKeys
		if len(source) == 0 {
			source = btx.Transaction.Message.Accounts
		}
		keys := make([]types.Pubkey, len(source))
		for j, k := range source {
			keys[j] = types.Pubkey(k)
		}

		instructions := make([]core.Instruction, len(btx.Transaction.Message.Instructions))
		for j, ix := range btx.Transaction.Message.Instructions {
			accounts := make([]uint32, len(ix.Accounts))
			for k, a := range ix.Accounts {
				accounts[k] = uint32(a)
			}
			instructions[j] = core.Instruction{
				ProgramIDIndex: uint32(ix.ProgramIDIndex),
				Accounts:       accounts,
				Data:           ix.Data,
			}
		}

		out.Transactions = append(out.Transactions, &core.Transaction{
			Index:      uint64(i),
			Signatures: signatures,
			Failed:     btx.Meta == nil || btx.Meta.Err != nil,
			Message: core.Message{
				AccountKeys:  keys,
				Instructions: instructions,
			},
		})
	}
	return out, nil
}
