package metaplex

import (
	"fmt"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
	"peridot-indexer-sol/internal/pkg/logger"
)

// decodeCreateArgs 解析 CreateMetadataAccountArgsV3：
//
//	data: DataV2, is_mutable: bool, collection_details: Option<CollectionDetails>
func decodeCreateArgs(data []byte) (*pb.CreateMetadataAccountV3Data, error) {
	var args pb.CreateMetadataAccountV3Data
	err := binlayout.Decode(data, func(r *binlayout.Reader) error {
		var err error
		if args.Data, err = readDataV2(r); err != nil {
			return fmt.Errorf("data: %w", err)
		}
		if args.IsMutable, err = r.Bool(); err != nil {
			return fmt.Errorf("is_mutable: %w", err)
		}
		if args.CollectionDetails, err = readCollectionDetails(r); err != nil {
			return fmt.Errorf("collection_details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &args, nil
}

// extractCreateEvent 解析 CreateMetadataAccountV3 指令。
//
// 账户布局：
//
// #0 - Metadata 账户（PDA）
// #1 - Mint 账户
// #2 - Mint Authority
// #3 - Payer
// #4 - Update Authority
// #5 - System Program
// #6 - Rent（可选）
func extractCreateEvent(ctx *common.ParserContext, ix *core.Instruction, index int) (*pb.MetaplexEvent, error) {
	args, err := decodeCreateArgs(ix.Data[1:])
	if err != nil {
		return nil, common.DecodeFailed(ix.Data, err)
	}
	if args.CollectionDetails != nil && args.CollectionDetails.V1 == nil {
		logger.Debugf("[Metaplex:Create] collection details V2 kept as empty record, tx=%s", ctx.TxHash)
	}

	event := baseEvent(ctx, index)
	event.MetadataAccount = ctx.AccountAt(ix, 0)
	event.TokenMintAccount = ctx.AccountAt(ix, 1)
	event.UpdateAuthority = ctx.AccountAt(ix, 4)
	event.CreateMetadataV3 = args
	return event, nil
}
