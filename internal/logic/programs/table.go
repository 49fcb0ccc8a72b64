package programs

import (
	"errors"
	"fmt"

	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/types"
)

// Protocol 抽取器支持的链上协议
type Protocol int

const (
	ProtocolToken Protocol = iota
	ProtocolMetadata
	ProtocolBridge
)

// AllProtocols 按固定顺序列出所有协议
var AllProtocols = []Protocol{ProtocolToken, ProtocolMetadata, ProtocolBridge}

func (p Protocol) String() string {
	switch p {
	case ProtocolToken:
		return "spl_token"
	case ProtocolMetadata:
		return "metaplex"
	case ProtocolBridge:
		return "wormhole"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// ErrProgramTable 程序 ID 表无法加载，属于区块级致命错误
var ErrProgramTable = errors.New("invalid program table")

// IDs 各协议程序 ID 的 base58 文本，空字符串表示使用默认值
type IDs struct {
	Token    string
	Metadata string
	Bridge   string
}

// DefaultIDs 内置的程序 ID
func DefaultIDs() IDs {
	return IDs{
		Token:    consts.TokenProgramStr,
		Metadata: consts.TokenMetaProgramStr,
		Bridge:   consts.WormholeProgramStr,
	}
}

// Table 进程启动时加载一次的只读程序 ID 表，按原始字节比较
type Table struct {
	ids  [3]types.Pubkey
	text [3]string
}

// Load 解析全部程序 ID，任意一个失败即返回包装了 ErrProgramTable 的错误
func Load(ids IDs) (*Table, error) {
	def := DefaultIDs()
	texts := [3]string{
		orDefault(ids.Token, def.Token),
		orDefault(ids.Metadata, def.Metadata),
		orDefault(ids.Bridge, def.Bridge),
	}

	t := &Table{text: texts}
	for i, s := range texts {
		id, err := types.DecodeProgramID(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrProgramTable, Protocol(i), err)
		}
		t.ids[i] = id
	}
	return t, nil
}

// ID 返回协议对应的程序 ID 原始字节
func (t *Table) ID(p Protocol) types.Pubkey {
	return t.ids[p]
}

// Text 返回协议对应的程序 ID 文本
func (t *Table) Text(p Protocol) string {
	return t.text[p]
}

// Lookup 根据程序 ID 反查协议
func (t *Table) Lookup(id types.Pubkey) (Protocol, bool) {
	for i, v := range t.ids {
		if v == id {
			return Protocol(i), true
		}
	}
	return 0, false
}

// All 返回全部程序 ID 文本，用于 Geyser 订阅过滤
func (t *Table) All() []string {
	return []string{t.text[ProtocolToken], t.text[ProtocolMetadata], t.text[ProtocolBridge]}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
