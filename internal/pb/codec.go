package pb

import (
	"fmt"

	"peridot-indexer-sol/internal/consts"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Collection 是单个抽取函数的输出：某一类事件的有序列表
type Collection interface {
	// CollectionType 写入 Kafka 消息前缀的集合类型
	CollectionType() uint32
	Len() int
	ToProto() proto.Message
	// EventMessages 逐条返回事件，供 JSONL 等逐行输出使用
	EventMessages() []proto.Message
}

var marshalOpts = proto.MarshalOptions{Deterministic: true}

var jsonOpts = protojson.MarshalOptions{UseProtoNames: true}

// Marshal 确定性编码，同一输入重复编码得到完全相同的字节
func Marshal(c Collection) ([]byte, error) {
	data, err := marshalOpts.Marshal(c.ToProto())
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", c, err)
	}
	return data, nil
}

// MarshalJSON 使用 proto 字段名输出单行 JSON
func MarshalJSON(m proto.Message) ([]byte, error) {
	return jsonOpts.Marshal(m)
}

// Unmarshal 按集合类型解码一条集合消息，返回动态消息，供消费端与调试工具使用
func Unmarshal(collectionType uint32, data []byte) (*dynamicpb.Message, error) {
	var md protoreflect.MessageDescriptor
	switch collectionType {
	case consts.CollectionTypeToken:
		md = mintOrBurnEventsDesc
	case consts.CollectionTypeMetadata:
		md = metaplexEventsDesc
	case consts.CollectionTypeBridge:
		md = wormholeEventsDesc
	default:
		return nil, fmt.Errorf("unknown collection type %d", collectionType)
	}
	m := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", md.FullName(), err)
	}
	return m, nil
}

var (
	mintOrBurnEventDesc  protoreflect.MessageDescriptor
	mintOrBurnEventsDesc protoreflect.MessageDescriptor

	metaplexCreatorDesc        protoreflect.MessageDescriptor
	metaplexCollectionDesc     protoreflect.MessageDescriptor
	metaplexUsesDesc           protoreflect.MessageDescriptor
	metaplexTokenMetadataDesc  protoreflect.MessageDescriptor
	collectionDetailsDesc      protoreflect.MessageDescriptor
	collectionDetailsV1Desc    protoreflect.MessageDescriptor
	createMetadataV3Desc       protoreflect.MessageDescriptor
	updateMetadataV2Desc       protoreflect.MessageDescriptor
	metaplexEventDesc          protoreflect.MessageDescriptor
	metaplexEventsDesc         protoreflect.MessageDescriptor
	postedMessageDesc          protoreflect.MessageDescriptor
	postedVaaDesc              protoreflect.MessageDescriptor
	postedMessageUnreliableDsc protoreflect.MessageDescriptor
	wormholeEventDesc          protoreflect.MessageDescriptor
	wormholeEventsDesc         protoreflect.MessageDescriptor
)

func initDescriptors() {
	mintOrBurnEventDesc = mustMessage(splTokenFile, "MintOrBurnEvent")
	mintOrBurnEventsDesc = mustMessage(splTokenFile, "MintOrBurnEvents")

	metaplexCreatorDesc = mustMessage(metaplexFile, "MetaplexCreator")
	metaplexCollectionDesc = mustMessage(metaplexFile, "MetaplexCollection")
	metaplexUsesDesc = mustMessage(metaplexFile, "MetaplexUses")
	metaplexTokenMetadataDesc = mustMessage(metaplexFile, "MetaplexTokenMetadata")
	collectionDetailsDesc = mustMessage(metaplexFile, "MetaplexCollectionDetails")
	collectionDetailsV1Desc = collectionDetailsDesc.Messages().ByName("V1")
	createMetadataV3Desc = mustMessage(metaplexFile, "CreateMetadataAccountV3Data")
	updateMetadataV2Desc = mustMessage(metaplexFile, "UpdateMetadataAccountV2Data")
	metaplexEventDesc = mustMessage(metaplexFile, "MetaplexEvent")
	metaplexEventsDesc = mustMessage(metaplexFile, "MetaplexEvents")

	postedMessageDesc = mustMessage(wormholeFile, "PostedMessageData")
	postedVaaDesc = mustMessage(wormholeFile, "PostedVaaData")
	postedMessageUnreliableDsc = mustMessage(wormholeFile, "PostedMessageUnreliableData")
	wormholeEventDesc = mustMessage(wormholeFile, "WormholeEvent")
	wormholeEventsDesc = mustMessage(wormholeFile, "WormholeEvents")
}

// builder 包装 dynamicpb.Message。隐式存在性的标量字段零值不写入，
// 与生成代码的编码结果一致；显式存在性字段（proto3 optional）由调用方用 set 写入。
type builder struct {
	m *dynamicpb.Message
}

func newBuilder(md protoreflect.MessageDescriptor) *builder {
	return &builder{m: dynamicpb.NewMessage(md)}
}

func (b *builder) fd(name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := b.m.Descriptor().Fields().ByName(name)
	if fd == nil {
		panic(fmt.Errorf("%s has no field %s", b.m.Descriptor().FullName(), name))
	}
	return fd
}

func (b *builder) set(name protoreflect.Name, v protoreflect.Value) *builder {
	b.m.Set(b.fd(name), v)
	return b
}

func (b *builder) str(name protoreflect.Name, v string) *builder {
	if v != "" {
		b.set(name, protoreflect.ValueOfString(v))
	}
	return b
}

func (b *builder) bytes(name protoreflect.Name, v []byte) *builder {
	if len(v) > 0 {
		b.set(name, protoreflect.ValueOfBytes(v))
	}
	return b
}

func (b *builder) boolean(name protoreflect.Name, v bool) *builder {
	if v {
		b.set(name, protoreflect.ValueOfBool(v))
	}
	return b
}

func (b *builder) u32(name protoreflect.Name, v uint32) *builder {
	if v != 0 {
		b.set(name, protoreflect.ValueOfUint32(v))
	}
	return b
}

func (b *builder) u64(name protoreflect.Name, v uint64) *builder {
	if v != 0 {
		b.set(name, protoreflect.ValueOfUint64(v))
	}
	return b
}

func (b *builder) i64(name protoreflect.Name, v int64) *builder {
	if v != 0 {
		b.set(name, protoreflect.ValueOfInt64(v))
	}
	return b
}

func (b *builder) enum(name protoreflect.Name, v int32) *builder {
	if v != 0 {
		b.set(name, protoreflect.ValueOfEnum(protoreflect.EnumNumber(v)))
	}
	return b
}

// msg 写入子消息，nil 表示字段缺省
func (b *builder) msg(name protoreflect.Name, child protoreflect.Message) *builder {
	if child != nil {
		b.set(name, protoreflect.ValueOfMessage(child))
	}
	return b
}

func (b *builder) list(name protoreflect.Name, children []protoreflect.Message) *builder {
	if len(children) == 0 {
		return b
	}
	l := b.m.Mutable(b.fd(name)).List()
	for _, c := range children {
		l.Append(protoreflect.ValueOfMessage(c))
	}
	return b
}

func (b *builder) build() *dynamicpb.Message {
	return b.m
}

func protoList[T any](items []T, conv func(T) proto.Message) []proto.Message {
	out := make([]proto.Message, 0, len(items))
	for _, it := range items {
		out = append(out, conv(it))
	}
	return out
}

func reflectList(msgs []proto.Message) []protoreflect.Message {
	out := make([]protoreflect.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ProtoReflect())
	}
	return out
}
