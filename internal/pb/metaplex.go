package pb

import (
	"peridot-indexer-sol/internal/consts"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// MetaplexUseMethod 对应 peridot.metaplex.v1.MetaplexUseMethod
type MetaplexUseMethod int32

const (
	MetaplexUseMethodUnspecified MetaplexUseMethod = 0
	MetaplexUseMethodBurn        MetaplexUseMethod = 1
	MetaplexUseMethodMultiple    MetaplexUseMethod = 2
	MetaplexUseMethodSingle      MetaplexUseMethod = 3
)

type MetaplexCreator struct {
	Address  string
	Verified bool
	Share    uint32
}

type MetaplexCollection struct {
	Verified bool
	Key      string
}

type MetaplexUses struct {
	UseMethod MetaplexUseMethod
	Remaining uint64
	Total     uint64
}

// MetaplexTokenMetadata 对应链上 DataV2
type MetaplexTokenMetadata struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint32
	Creators             []*MetaplexCreator
	Collection           *MetaplexCollection
	Uses                 *MetaplexUses
}

type CollectionDetailsV1 struct {
	Size uint64
}

// MetaplexCollectionDetails V1 为 nil 表示记录存在但变体未识别（链上 V2 仅含 padding）
type MetaplexCollectionDetails struct {
	V1 *CollectionDetailsV1
}

type CreateMetadataAccountV3Data struct {
	Data              *MetaplexTokenMetadata
	IsMutable         bool
	CollectionDetails *MetaplexCollectionDetails
}

// UpdateMetadataAccountV2Data 所有字段均为可选，nil 表示指令中未携带
type UpdateMetadataAccountV2Data struct {
	Data                *MetaplexTokenMetadata
	NewUpdateAuthority  *string
	PrimarySaleHappened *bool
	IsMutable           *bool
}

// MetaplexEvent 一条 Token Metadata 创建或更新事件，CreateMetadataV3 与 UpdateMetadataV2 二选一
type MetaplexEvent struct {
	TxHash           string
	BlockSlot        uint64
	BlockTime        *timestamppb.Timestamp // 区块时间缺失时为 nil
	InstructionIndex uint32
	PayerAddress     string
	TokenMintAccount string
	MetadataAccount  string
	UpdateAuthority  string

	CreateMetadataV3 *CreateMetadataAccountV3Data
	UpdateMetadataV2 *UpdateMetadataAccountV2Data
}

func (e *MetaplexEvent) ToProto() proto.Message {
	b := newBuilder(metaplexEventDesc).
		str("tx_hash", e.TxHash).
		u64("block_slot", e.BlockSlot).
		u32("instruction_index", e.InstructionIndex).
		str("payer_address", e.PayerAddress).
		str("token_mint_account", e.TokenMintAccount).
		str("metadata_account", e.MetadataAccount).
		str("update_authority", e.UpdateAuthority)
	if e.BlockTime != nil {
		b.msg("block_time", e.BlockTime.ProtoReflect())
	}
	switch {
	case e.CreateMetadataV3 != nil:
		b.msg("create_metadata_v3", e.CreateMetadataV3.toReflect())
	case e.UpdateMetadataV2 != nil:
		b.msg("update_metadata_v2", e.UpdateMetadataV2.toReflect())
	}
	return b.build()
}

func (d *CreateMetadataAccountV3Data) toReflect() protoreflect.Message {
	b := newBuilder(createMetadataV3Desc).
		boolean("is_mutable", d.IsMutable)
	if d.Data != nil {
		b.msg("data", d.Data.toReflect())
	}
	if d.CollectionDetails != nil {
		b.msg("collection_details", d.CollectionDetails.toReflect())
	}
	return b.build()
}

func (d *UpdateMetadataAccountV2Data) toReflect() protoreflect.Message {
	b := newBuilder(updateMetadataV2Desc)
	if d.Data != nil {
		b.msg("data", d.Data.toReflect())
	}
	if d.NewUpdateAuthority != nil {
		b.set("new_update_authority", protoreflect.ValueOfString(*d.NewUpdateAuthority))
	}
	if d.PrimarySaleHappened != nil {
		b.set("primary_sale_happened", protoreflect.ValueOfBool(*d.PrimarySaleHappened))
	}
	if d.IsMutable != nil {
		b.set("is_mutable", protoreflect.ValueOfBool(*d.IsMutable))
	}
	return b.build()
}

func (d *MetaplexCollectionDetails) toReflect() protoreflect.Message {
	b := newBuilder(collectionDetailsDesc)
	if d.V1 != nil {
		v1 := newBuilder(collectionDetailsV1Desc).u64("size", d.V1.Size).build()
		b.msg("v1", v1)
	}
	return b.build()
}

func (m *MetaplexTokenMetadata) toReflect() protoreflect.Message {
	creators := make([]protoreflect.Message, 0, len(m.Creators))
	for _, c := range m.Creators {
		creators = append(creators, newBuilder(metaplexCreatorDesc).
			str("address", c.Address).
			boolean("verified", c.Verified).
			u32("share", c.Share).
			build())
	}
	b := newBuilder(metaplexTokenMetadataDesc).
		str("name", m.Name).
		str("symbol", m.Symbol).
		str("uri", m.Uri).
		u32("seller_fee_basis_points", m.SellerFeeBasisPoints).
		list("creators", creators)
	if m.Collection != nil {
		b.msg("collection", newBuilder(metaplexCollectionDesc).
			boolean("verified", m.Collection.Verified).
			str("key", m.Collection.Key).
			build())
	}
	if m.Uses != nil {
		b.msg("uses", newBuilder(metaplexUsesDesc).
			enum("use_method", int32(m.Uses.UseMethod)).
			u64("remaining", m.Uses.Remaining).
			u64("total", m.Uses.Total).
			build())
	}
	return b.build()
}

// MetaplexEvents Metadata 抽取函数的输出集合
type MetaplexEvents struct {
	Events []*MetaplexEvent
}

func (c *MetaplexEvents) CollectionType() uint32 { return consts.CollectionTypeMetadata }

func (c *MetaplexEvents) Len() int { return len(c.Events) }

func (c *MetaplexEvents) EventMessages() []proto.Message {
	return protoList(c.Events, func(e *MetaplexEvent) proto.Message { return e.ToProto() })
}

func (c *MetaplexEvents) ToProto() proto.Message {
	return newBuilder(metaplexEventsDesc).
		list("events", reflectList(c.EventMessages())).
		build()
}
