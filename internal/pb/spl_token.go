package pb

import (
	"peridot-indexer-sol/internal/consts"

	"google.golang.org/protobuf/proto"
)

// TokenEventType 对应 spl_token.v1.EventType
type TokenEventType int32

const (
	TokenEventTypeUnspecified TokenEventType = 0
	TokenEventTypeMint        TokenEventType = 1
	TokenEventTypeBurn        TokenEventType = 2
)

func (t TokenEventType) String() string {
	switch t {
	case TokenEventTypeMint:
		return "Mint"
	case TokenEventTypeBurn:
		return "Burn"
	default:
		return "Unspecified"
	}
}

// MintOrBurnEvent 一条 SPL Token MintTo/Burn 指令产生的事件
type MintOrBurnEvent struct {
	TxSignature      string
	BlockSlot        uint64
	BlockTime        int64 // 区块时间缺失时为 0
	InstructionIndex uint32
	EventType        TokenEventType
	ProgramID        string
	MintAccount      string
	TokenAccount     string
	Authority        string
	Amount           uint64
}

func (e *MintOrBurnEvent) ToProto() proto.Message {
	return newBuilder(mintOrBurnEventDesc).
		str("tx_signature", e.TxSignature).
		u64("block_slot", e.BlockSlot).
		i64("block_time", e.BlockTime).
		u32("instruction_index", e.InstructionIndex).
		enum("event_type", int32(e.EventType)).
		str("program_id", e.ProgramID).
		str("mint_account", e.MintAccount).
		str("token_account", e.TokenAccount).
		str("authority", e.Authority).
		u64("amount", e.Amount).
		build()
}

// MintOrBurnEvents Token 抽取函数的输出集合
type MintOrBurnEvents struct {
	Events []*MintOrBurnEvent
}

func (c *MintOrBurnEvents) CollectionType() uint32 { return consts.CollectionTypeToken }

func (c *MintOrBurnEvents) Len() int { return len(c.Events) }

func (c *MintOrBurnEvents) EventMessages() []proto.Message {
	return protoList(c.Events, func(e *MintOrBurnEvent) proto.Message { return e.ToProto() })
}

func (c *MintOrBurnEvents) ToProto() proto.Message {
	return newBuilder(mintOrBurnEventsDesc).
		list("events", reflectList(c.EventMessages())).
		build()
}
