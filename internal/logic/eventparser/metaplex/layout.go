package metaplex

import (
	"fmt"

	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
	"peridot-indexer-sol/internal/types"
)

// creatorSize 单个 Creator 的编码长度：address(32) + verified(1) + share(1)
const creatorSize = types.PubkeySize + 2

// CollectionDetails 的枚举标签
const (
	collectionDetailsV1 = 0
	collectionDetailsV2 = 1
)

const collectionDetailsV2PaddingSize = 8

// readDataV2 读取 DataV2：
//
//	name: String, symbol: String, uri: String, seller_fee_basis_points: u16,
//	creators: Option<Vec<Creator>>, collection: Option<Collection>, uses: Option<Uses>
func readDataV2(r *binlayout.Reader) (*pb.MetaplexTokenMetadata, error) {
	var (
		md  pb.MetaplexTokenMetadata
		err error
	)
	if md.Name, err = r.String(); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if md.Symbol, err = r.String(); err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	if md.Uri, err = r.String(); err != nil {
		return nil, fmt.Errorf("uri: %w", err)
	}
	fee, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("seller_fee_basis_points: %w", err)
	}
	md.SellerFeeBasisPoints = uint32(fee)

	if md.Creators, err = readCreators(r); err != nil {
		return nil, fmt.Errorf("creators: %w", err)
	}
	if md.Collection, err = readCollection(r); err != nil {
		return nil, fmt.Errorf("collection: %w", err)
	}
	if md.Uses, err = readUses(r); err != nil {
		return nil, fmt.Errorf("uses: %w", err)
	}
	return &md, nil
}

func readCreators(r *binlayout.Reader) ([]*pb.MetaplexCreator, error) {
	present, err := r.Option()
	if err != nil || !present {
		return nil, err
	}
	n, err := r.VecLen(creatorSize)
	if err != nil {
		return nil, err
	}
	creators := make([]*pb.MetaplexCreator, 0, n)
	for i := 0; i < n; i++ {
		address, err := r.Pubkey()
		if err != nil {
			return nil, err
		}
		verified, err := r.Bool()
		if err != nil {
			return nil, err
		}
		share, err := r.U8()
		if err != nil {
			return nil, err
		}
		creators = append(creators, &pb.MetaplexCreator{
			Address:  address.String(),
			Verified: verified,
			Share:    uint32(share),
		})
	}
	return creators, nil
}

func readCollection(r *binlayout.Reader) (*pb.MetaplexCollection, error) {
	present, err := r.Option()
	if err != nil || !present {
		return nil, err
	}
	verified, err := r.Bool()
	if err != nil {
		return nil, err
	}
	key, err := r.Pubkey()
	if err != nil {
		return nil, err
	}
	return &pb.MetaplexCollection{Verified: verified, Key: key.String()}, nil
}

func readUses(r *binlayout.Reader) (*pb.MetaplexUses, error) {
	present, err := r.Option()
	if err != nil || !present {
		return nil, err
	}
	method, err := r.U8()
	if err != nil {
		return nil, err
	}
	useMethod, err := toUseMethod(method)
	if err != nil {
		return nil, err
	}
	remaining, err := r.U64()
	if err != nil {
		return nil, err
	}
	total, err := r.U64()
	if err != nil {
		return nil, err
	}
	return &pb.MetaplexUses{UseMethod: useMethod, Remaining: remaining, Total: total}, nil
}

// toUseMethod 链上 UseMethod：Burn=0, Multiple=1, Single=2
func toUseMethod(v uint8) (pb.MetaplexUseMethod, error) {
	switch v {
	case 0:
		return pb.MetaplexUseMethodBurn, nil
	case 1:
		return pb.MetaplexUseMethodMultiple, nil
	case 2:
		return pb.MetaplexUseMethodSingle, nil
	default:
		return pb.MetaplexUseMethodUnspecified, fmt.Errorf("unknown use method %d", v)
	}
}

// readCollectionDetails 读取 Option<CollectionDetails>。
// V1 { size: u64 } 原样透传；V2 { padding: [u8; 8] } 返回不含变体的空记录，
// 用以区分"字段缺省"与"字段存在但暂不支持"。
func readCollectionDetails(r *binlayout.Reader) (*pb.MetaplexCollectionDetails, error) {
	present, err := r.Option()
	if err != nil || !present {
		return nil, err
	}
	tag, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case collectionDetailsV1:
		size, err := r.U64()
		if err != nil {
			return nil, err
		}
		return &pb.MetaplexCollectionDetails{V1: &pb.CollectionDetailsV1{Size: size}}, nil
	case collectionDetailsV2:
		if _, err := r.Fixed(collectionDetailsV2PaddingSize); err != nil {
			return nil, err
		}
		return &pb.MetaplexCollectionDetails{}, nil
	default:
		return nil, fmt.Errorf("unknown collection details variant %d", tag)
	}
}
