package pb

import (
	"peridot-indexer-sol/internal/consts"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// InstructionType 对应 wormhole.v1.InstructionType
type InstructionType int32

const (
	InstructionTypeUnspecified           InstructionType = 0
	InstructionTypePostMessage           InstructionType = 1
	InstructionTypePostVaa               InstructionType = 2
	InstructionTypePostMessageUnreliable InstructionType = 3
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypePostMessage:
		return "PostMessage"
	case InstructionTypePostVaa:
		return "PostVaa"
	case InstructionTypePostMessageUnreliable:
		return "PostMessageUnreliable"
	default:
		return "Unspecified"
	}
}

// PostedMessageData PostMessage 与 PostMessageUnreliable 共用的负载
type PostedMessageData struct {
	Emitter          string
	Nonce            uint32
	Payload          []byte
	ConsistencyLevel uint32
	Payer            string
}

type PostedVaaData struct {
	Version          uint32
	GuardianSetIndex uint32
	VaaTimestamp     uint32
	VaaNonce         uint32
	EmitterChain     uint32
	EmitterAddress   []byte // 固定 32 字节
	Sequence         uint64
	ConsistencyLevel uint32
	Payload          []byte
	Payer            string
}

// WormholeEvent 三种负载只会设置其中一个，与 InstructionType 对应
type WormholeEvent struct {
	TxSignature      string
	BlockSlot        uint64
	BlockTime        int64
	InstructionType  InstructionType
	InstructionIndex uint32

	PostedMessage           *PostedMessageData
	PostedVaa               *PostedVaaData
	PostedMessageUnreliable *PostedMessageData
}

func (e *WormholeEvent) ToProto() proto.Message {
	b := newBuilder(wormholeEventDesc).
		str("tx_signature", e.TxSignature).
		u64("block_slot", e.BlockSlot).
		i64("block_time", e.BlockTime).
		enum("instruction_type", int32(e.InstructionType)).
		u32("instruction_index", e.InstructionIndex)
	switch {
	case e.PostedMessage != nil:
		b.msg("posted_message", e.PostedMessage.toReflect(postedMessageDesc))
	case e.PostedVaa != nil:
		b.msg("posted_vaa", e.PostedVaa.toReflect())
	case e.PostedMessageUnreliable != nil:
		b.msg("posted_message_unreliable", e.PostedMessageUnreliable.toReflect(postedMessageUnreliableDsc))
	}
	return b.build()
}

func (d *PostedMessageData) toReflect(md protoreflect.MessageDescriptor) protoreflect.Message {
	return newBuilder(md).
		str("emitter", d.Emitter).
		u32("nonce", d.Nonce).
		bytes("payload", d.Payload).
		u32("consistency_level", d.ConsistencyLevel).
		str("payer", d.Payer).
		build()
}

func (d *PostedVaaData) toReflect() protoreflect.Message {
	return newBuilder(postedVaaDesc).
		u32("version", d.Version).
		u32("guardian_set_index", d.GuardianSetIndex).
		u32("vaa_timestamp", d.VaaTimestamp).
		u32("vaa_nonce", d.VaaNonce).
		u32("emitter_chain", d.EmitterChain).
		bytes("emitter_address", d.EmitterAddress).
		u64("sequence", d.Sequence).
		u32("consistency_level", d.ConsistencyLevel).
		bytes("payload", d.Payload).
		str("payer", d.Payer).
		build()
}

// WormholeEvents Bridge 抽取函数的输出集合
type WormholeEvents struct {
	Events []*WormholeEvent
}

func (c *WormholeEvents) CollectionType() uint32 { return consts.CollectionTypeBridge }

func (c *WormholeEvents) Len() int { return len(c.Events) }

func (c *WormholeEvents) EventMessages() []proto.Message {
	return protoList(c.Events, func(e *WormholeEvent) proto.Message { return e.ToProto() })
}

func (c *WormholeEvents) ToProto() proto.Message {
	return newBuilder(wormholeEventsDesc).
		list("events", reflectList(c.EventMessages())).
		build()
}
