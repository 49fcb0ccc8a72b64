package txadapter

import (
	"encoding/hex"
	"fmt"
	"os"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/types"

	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// BlockFixture 区块样本文件格式，用于回放与测试。
// 地址与签名使用 base58，指令数据使用 hex。
type BlockFixture struct {
	Slot         uint64               `yaml:"slot"`
	ParentSlot   uint64               `yaml:"parent_slot,omitempty"`
	BlockHash    string               `yaml:"blockhash,omitempty"`
	BlockTime    *int64               `yaml:"block_time,omitempty"`
	Transactions []TransactionFixture `yaml:"transactions"`
}

type TransactionFixture struct {
	Signature    string               `yaml:"signature"`
	Failed       bool                 `yaml:"failed,omitempty"`
	AccountKeys  []string             `yaml:"account_keys"`
	Instructions []InstructionFixture `yaml:"instructions"`
}

type InstructionFixture struct {
	ProgramIndex uint32   `yaml:"program_index"`
	Accounts     []uint32 `yaml:"accounts,flow"`
	Data         string   `yaml:"data"`
}

// ParseFixture 解析 YAML 样本为 core.Block
func ParseFixture(data []byte) (*core.Block, error) {
	var f BlockFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return f.ToBlock()
}

// LoadFixture 读取并解析 YAML 样本文件
func LoadFixture(path string) (*core.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return block, nil
}

// ToBlock 转换为 core.Block，交易序号按文件中的顺序分配
func (f *BlockFixture) ToBlock() (*core.Block, error) {
	block := &core.Block{
		Slot:         f.Slot,
		ParentSlot:   f.ParentSlot,
		BlockHash:    f.BlockHash,
		BlockTime:    f.BlockTime,
		Transactions: make([]*core.Transaction, 0, len(f.Transactions)),
	}
	for i, tf := range f.Transactions {
		tx, err := tf.toTransaction(uint64(i))
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		block.Transactions = append(block.Transactions, tx)
	}
	return block, nil
}

func (tf *TransactionFixture) toTransaction(index uint64) (*core.Transaction, error) {
	tx := &core.Transaction{Index: index, Failed: tf.Failed}
	if tf.Signature != "" {
		sig, err := base58.Decode(tf.Signature)
		if err != nil {
			return nil, fmt.Errorf("signature: %w", err)
		}
		tx.Signatures = [][]byte{sig}
	}

	tx.Message.AccountKeys = make([]types.Pubkey, len(tf.AccountKeys))
	for i, s := range tf.AccountKeys {
		key, err := types.TryPubkeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("account key %d: %w", i, err)
		}
		tx.Message.AccountKeys[i] = key
	}

	tx.Message.Instructions = make([]core.Instruction, len(tf.Instructions))
	for i, inf := range tf.Instructions {
		data, err := hex.DecodeString(inf.Data)
		if err != nil {
			return nil, fmt.Errorf("instruction %d data: %w", i, err)
		}
		tx.Message.Instructions[i] = core.Instruction{
			ProgramIDIndex: inf.ProgramIndex,
			Accounts:       inf.Accounts,
			Data:           data,
		}
	}
	return tx, nil
}

// NewFixture 由 core.Block 生成样本，用于把 RPC / Geyser 区块保存为回放文件
func NewFixture(block *core.Block) *BlockFixture {
	f := &BlockFixture{
		Slot:         block.Slot,
		ParentSlot:   block.ParentSlot,
		BlockHash:    block.BlockHash,
		BlockTime:    block.BlockTime,
		Transactions: make([]TransactionFixture, 0, len(block.Transactions)),
	}
	for _, tx := range block.Transactions {
		tf := TransactionFixture{
			Signature:    types.EncodeAddress(tx.ID()),
			Failed:       tx.Failed,
			AccountKeys:  make([]string, len(tx.Message.AccountKeys)),
			Instructions: make([]InstructionFixture, len(tx.Message.Instructions)),
		}
		for i, k := range tx.Message.AccountKeys {
			tf.AccountKeys[i] = k.String()
		}
		for i, ix := range tx.Message.Instructions {
			tf.Instructions[i] = InstructionFixture{
				ProgramIndex: ix.ProgramIDIndex,
				Accounts:     ix.Accounts,
				Data:         hex.EncodeToString(ix.Data),
			}
		}
		f.Transactions = append(f.Transactions, tf)
	}
	return f
}

// WriteFixture 将区块保存为 YAML 样本文件
func WriteFixture(path string, block *core.Block) error {
	data, err := yaml.Marshal(NewFixture(block))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadBlockDump 读取 protobuf 编码的 SubscribeUpdateBlock 文件并转换为 core.Block
func LoadBlockDump(path string) (*core.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw pb.SubscribeUpdateBlock
	if err := proto.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: unmarshal block dump: %w", path, err)
	}
	return FromGrpcBlock(&raw)
}

// WriteBlockDump 将 Geyser 原始区块保存为 protobuf 文件，供离线回放
func WriteBlockDump(path string, block *pb.SubscribeUpdateBlock) error {
	data, err := proto.Marshal(block)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
