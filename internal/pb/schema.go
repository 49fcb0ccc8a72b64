// Package pb 定义三类输出事件集合的 protobuf 线格式。
// 描述符在包初始化时构建，字段编号属于对下游的外部契约，修改需要升级版本号。
package pb

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
)

const (
	splTokenPackage = "spl_token.v1"
	metaplexPackage = "peridot.metaplex.v1"
	wormholePackage = "wormhole.v1"

	timestampFile = "google/protobuf/timestamp.proto"
	timestampType = ".google.protobuf.Timestamp"
)

type fieldType = descriptorpb.FieldDescriptorProto_Type

const (
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
)

var (
	files = new(protoregistry.Files)

	splTokenFile protoreflect.FileDescriptor
	metaplexFile protoreflect.FileDescriptor
	wormholeFile protoreflect.FileDescriptor
)

func init() {
	splTokenFile = mustRegister(splTokenFileProto())
	metaplexFile = mustRegister(metaplexFileProto())
	wormholeFile = mustRegister(wormholeFileProto())
	initDescriptors()
}

// Files 返回全部输出 schema 的文件描述符，供导出 FileDescriptorSet 使用
func Files() []protoreflect.FileDescriptor {
	return []protoreflect.FileDescriptor{splTokenFile, metaplexFile, wormholeFile}
}

// DescriptorSet 将输出 schema 导出为 FileDescriptorSet（包含 timestamp 依赖）
func DescriptorSet() *descriptorpb.FileDescriptorSet {
	set := &descriptorpb.FileDescriptorSet{}
	if ts, err := protoregistry.GlobalFiles.FindFileByPath(timestampFile); err == nil {
		set.File = append(set.File, protodesc.ToFileDescriptorProto(ts))
	}
	for _, fd := range Files() {
		set.File = append(set.File, protodesc.ToFileDescriptorProto(fd))
	}
	return set
}

func mustRegister(fdp *descriptorpb.FileDescriptorProto) protoreflect.FileDescriptor {
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Errorf("build schema %s: %w", fdp.GetName(), err))
	}
	if err := files.RegisterFile(fd); err != nil {
		panic(fmt.Errorf("register schema %s: %w", fdp.GetName(), err))
	}
	return fd
}

func mustMessage(fd protoreflect.FileDescriptor, name protoreflect.Name) protoreflect.MessageDescriptor {
	md := fd.Messages().ByName(name)
	if md == nil {
		panic(fmt.Errorf("schema %s: message %s not found", fd.Path(), name))
	}
	return md
}

// ---- 描述符构造辅助 ----

func field(name string, num int32, typ fieldType) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func typed(name string, num int32, typ fieldType, typeName string) *descriptorpb.FieldDescriptorProto {
	f := field(name, num, typ)
	f.TypeName = proto.String(typeName)
	return f
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func inOneof(f *descriptorpb.FieldDescriptorProto, index int32) *descriptorpb.FieldDescriptorProto {
	f.OneofIndex = proto.Int32(index)
	return f
}

// proto3Optional 为字段挂上合成 oneof，index 必须排在所有真实 oneof 之后
func proto3Optional(f *descriptorpb.FieldDescriptorProto, index int32) *descriptorpb.FieldDescriptorProto {
	f.Proto3Optional = proto.Bool(true)
	f.OneofIndex = proto.Int32(index)
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

func oneofs(names ...string) []*descriptorpb.OneofDescriptorProto {
	out := make([]*descriptorpb.OneofDescriptorProto, 0, len(names))
	for _, n := range names {
		out = append(out, &descriptorpb.OneofDescriptorProto{Name: proto.String(n)})
	}
	return out
}

func enum(name string, values ...string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(int32(i)),
		})
	}
	return e
}

func file(path, pkg string, deps []string, enums []*descriptorpb.EnumDescriptorProto, msgs ...*descriptorpb.DescriptorProto) *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:        proto.String(path),
		Package:     proto.String(pkg),
		Syntax:      proto.String("proto3"),
		Dependency:  deps,
		EnumType:    enums,
		MessageType: msgs,
	}
}

func splTokenFileProto() *descriptorpb.FileDescriptorProto {
	const p = "." + splTokenPackage + "."
	return file("spl_token/v1/spl_token.proto", splTokenPackage, nil,
		[]*descriptorpb.EnumDescriptorProto{
			enum("EventType", "EVENT_TYPE_UNSPECIFIED", "EVENT_TYPE_MINT", "EVENT_TYPE_BURN"),
		},
		message("MintOrBurnEvent",
			field("tx_signature", 1, tString),
			field("block_slot", 2, tUint64),
			field("block_time", 3, tInt64),
			field("instruction_index", 4, tUint32),
			typed("event_type", 5, tEnum, p+"EventType"),
			field("program_id", 6, tString),
			field("mint_account", 7, tString),
			field("token_account", 8, tString),
			field("authority", 9, tString),
			field("amount", 10, tUint64),
		),
		message("MintOrBurnEvents",
			repeated(typed("events", 1, tMessage, p+"MintOrBurnEvent")),
		),
	)
}

func metaplexFileProto() *descriptorpb.FileDescriptorProto {
	const p = "." + metaplexPackage + "."

	details := message("MetaplexCollectionDetails",
		inOneof(typed("v1", 1, tMessage, p+"MetaplexCollectionDetails.V1"), 0),
	)
	details.NestedType = []*descriptorpb.DescriptorProto{
		message("V1", field("size", 1, tUint64)),
	}
	details.OneofDecl = oneofs("details")

	update := message("UpdateMetadataAccountV2Data",
		proto3Optional(typed("data", 1, tMessage, p+"MetaplexTokenMetadata"), 0),
		proto3Optional(field("new_update_authority", 2, tString), 1),
		proto3Optional(field("primary_sale_happened", 3, tBool), 2),
		proto3Optional(field("is_mutable", 4, tBool), 3),
	)
	update.OneofDecl = oneofs("_data", "_new_update_authority", "_primary_sale_happened", "_is_mutable")

	event := message("MetaplexEvent",
		field("tx_hash", 1, tString),
		field("block_slot", 2, tUint64),
		typed("block_time", 3, tMessage, timestampType),
		field("instruction_index", 4, tUint32),
		field("payer_address", 5, tString),
		field("token_mint_account", 6, tString),
		field("metadata_account", 7, tString),
		field("update_authority", 8, tString),
		inOneof(typed("create_metadata_v3", 9, tMessage, p+"CreateMetadataAccountV3Data"), 0),
		inOneof(typed("update_metadata_v2", 10, tMessage, p+"UpdateMetadataAccountV2Data"), 0),
	)
	event.OneofDecl = oneofs("event_type")

	return file("peridot/metaplex/v1/metaplex.proto", metaplexPackage, []string{timestampFile},
		[]*descriptorpb.EnumDescriptorProto{
			enum("MetaplexUseMethod",
				"METAPLEX_USE_METHOD_UNSPECIFIED",
				"METAPLEX_USE_METHOD_BURN",
				"METAPLEX_USE_METHOD_MULTIPLE",
				"METAPLEX_USE_METHOD_SINGLE"),
		},
		message("MetaplexCreator",
			field("address", 1, tString),
			field("verified", 2, tBool),
			field("share", 3, tUint32),
		),
		message("MetaplexCollection",
			field("verified", 1, tBool),
			field("key", 2, tString),
		),
		message("MetaplexUses",
			typed("use_method", 1, tEnum, p+"MetaplexUseMethod"),
			field("remaining", 2, tUint64),
			field("total", 3, tUint64),
		),
		message("MetaplexTokenMetadata",
			field("name", 1, tString),
			field("symbol", 2, tString),
			field("uri", 3, tString),
			field("seller_fee_basis_points", 4, tUint32),
			repeated(typed("creators", 5, tMessage, p+"MetaplexCreator")),
			typed("collection", 6, tMessage, p+"MetaplexCollection"),
			typed("uses", 7, tMessage, p+"MetaplexUses"),
		),
		details,
		message("CreateMetadataAccountV3Data",
			typed("data", 1, tMessage, p+"MetaplexTokenMetadata"),
			field("is_mutable", 2, tBool),
			typed("collection_details", 3, tMessage, p+"MetaplexCollectionDetails"),
		),
		update,
		event,
		message("MetaplexEvents",
			repeated(typed("events", 1, tMessage, p+"MetaplexEvent")),
		),
	)
}

func wormholeFileProto() *descriptorpb.FileDescriptorProto {
	const p = "." + wormholePackage + "."

	postedMessage := func(name string) *descriptorpb.DescriptorProto {
		return message(name,
			field("emitter", 1, tString),
			field("nonce", 2, tUint32),
			field("payload", 3, tBytes),
			field("consistency_level", 4, tUint32),
			field("payer", 5, tString),
		)
	}

	event := message("WormholeEvent",
		field("tx_signature", 1, tString),
		field("block_slot", 2, tUint64),
		field("block_time", 3, tInt64),
		typed("instruction_type", 4, tEnum, p+"InstructionType"),
		field("instruction_index", 5, tUint32),
		inOneof(typed("posted_message", 6, tMessage, p+"PostedMessageData"), 0),
		inOneof(typed("posted_vaa", 7, tMessage, p+"PostedVaaData"), 0),
		inOneof(typed("posted_message_unreliable", 8, tMessage, p+"PostedMessageUnreliableData"), 0),
	)
	event.OneofDecl = oneofs("event_data")

	return file("wormhole/v1/wormhole.proto", wormholePackage, nil,
		[]*descriptorpb.EnumDescriptorProto{
			enum("InstructionType",
				"INSTRUCTION_TYPE_UNSPECIFIED",
				"INSTRUCTION_TYPE_POST_MESSAGE",
				"INSTRUCTION_TYPE_POST_VAA",
				"INSTRUCTION_TYPE_POST_MESSAGE_UNRELIABLE"),
		},
		postedMessage("PostedMessageData"),
		message("PostedVaaData",
			field("version", 1, tUint32),
			field("guardian_set_index", 2, tUint32),
			field("vaa_timestamp", 3, tUint32),
			field("vaa_nonce", 4, tUint32),
			field("emitter_chain", 5, tUint32),
			field("emitter_address", 6, tBytes),
			field("sequence", 7, tUint64),
			field("consistency_level", 8, tUint32),
			field("payload", 9, tBytes),
			field("payer", 10, tString),
		),
		postedMessage("PostedMessageUnreliableData"),
		event,
		message("WormholeEvents",
			repeated(typed("events", 1, tMessage, p+"WormholeEvent")),
		),
	)
}
