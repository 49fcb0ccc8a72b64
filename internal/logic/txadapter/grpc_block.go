package txadapter

import (
	"fmt"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/pkg/logger"
	"peridot-indexer-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// signatureSize 交易签名长度
const signatureSize = 64

// FromGrpcBlock 将 Geyser 推送的 SubscribeUpdateBlock 转换为 core.Block。
//   - vote 交易不会包含目标程序指令，直接丢弃；
//   - 缺少 meta 或执行失败的交易标记为 Failed，由抽取流程整笔跳过；
//   - 结构不完整的交易记录告警后丢弃，不影响区块内其它交易。
func FromGrpcBlock(block *pb.SubscribeUpdateBlock) (*core.Block, error) {
	if block == nil {
		return nil, fmt.Errorf("nil block")
	}

	out := &core.Block{
		Slot:         block.Slot,
		ParentSlot:   block.ParentSlot,
		BlockHash:    block.Blockhash,
		Transactions: make([]*core.Transaction, 0, len(block.Transactions)),
	}
	if block.BlockTime != nil {
		ts := block.BlockTime.Timestamp
		out.BlockTime = &ts
	}

	for _, info := range block.Transactions {
		if info == nil || info.IsVote {
			continue
		}
		tx, err := fromGrpcTx(info)
		if err != nil {
			logger.Warnf("[txadapter:grpc] slot %d tx index %d skipped: %v", block.Slot, info.Index, err)
			continue
		}
		out.Transactions = append(out.Transactions, tx)
	}
	return out, nil
}

func fromGrpcTx(info *pb.SubscribeUpdateTransactionInfo) (*core.Transaction, error) {
	if info.Transaction == nil || info.Transaction.Message == nil {
		return nil, fmt.Errorf("missing transaction message")
	}
	if len(info.Transaction.Signatures) == 0 {
		return nil, fmt.Errorf("missing transaction signature")
	}
	if n := len(info.Transaction.Signatures[0]); n != signatureSize {
		return nil, fmt.Errorf("invalid transaction signature length: %d", n)
	}

	msg := info.Transaction.Message
	var loadedWritable, loadedReadonly [][]byte
	if info.Meta != nil {
		loadedWritable = info.Meta.LoadedWritableAddresses
		loadedReadonly = info.Meta.LoadedReadonlyAddresses
	}
	keys, err := buildFullAccountKeys(msg.AccountKeys, loadedWritable, loadedReadonly)
	if err != nil {
		return nil, err
	}

	instructions := make([]core.Instruction, len(msg.Instructions))
	for i, ix := range msg.Instructions {
		if ix == nil {
			continue
		}
		accounts := make([]uint32, len(ix.Accounts))
		for j, a := range ix.Accounts {
			accounts[j] = uint32(a)
		}
		instructions[i] = core.Instruction{
			ProgramIDIndex: ix.ProgramIdIndex,
			Accounts:       accounts,
			Data:           ix.Data,
		}
	}

	return &core.Transaction{
		Index:      info.Index,
		Signatures: info.Transaction.Signatures,
		Failed:     info.Meta == nil || info.Meta.Err != nil,
		Message: core.Message{
			AccountKeys:  keys,
			Instructions: instructions,
		},
	}, nil
}

// buildFullAccountKeys 构造交易中完整的账户 Pubkey 列表。
// 拼接 message.accountKeys 与 Address Lookup Table 中的 writable / readonly 地址，
// 指令中的账户下标即指向该列表。
func buildFullAccountKeys(
	accountKeys, loadedWritable, loadedReadonly [][]byte,
) ([]types.Pubkey, error) {
	total := len(accountKeys) + len(loadedWritable) + len(loadedReadonly)
	pubkeys := make([]types.Pubkey, total)

	i := 0
	for _, part := range []struct {
		name string
		keys [][]byte
	}{
		{"accountKeys", accountKeys},
		{"loadedWritable", loadedWritable},
		{"loadedReadonly", loadedReadonly},
	} {
		for _, b := range part.keys {
			if len(b) != types.PubkeySize {
				return nil, fmt.Errorf("invalid pubkey in %s at index %d", part.name, i)
			}
			copy(pubkeys[i][:], b)
			i++
		}
	}
	return pubkeys, nil
}
