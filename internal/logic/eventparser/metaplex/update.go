package metaplex

import (
	"fmt"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
)

// decodeUpdateArgs 解析 UpdateMetadataAccountArgsV2：
//
//	data: Option<DataV2>, update_authority: Option<Pubkey>,
//	primary_sale_happened: Option<bool>, is_mutable: Option<bool>
func decodeUpdateArgs(data []byte) (*pb.UpdateMetadataAccountV2Data, error) {
	var args pb.UpdateMetadataAccountV2Data
	err := binlayout.Decode(data, func(r *binlayout.Reader) error {
		present, err := r.Option()
		if err != nil {
			return fmt.Errorf("data: %w", err)
		}
		if present {
			if args.Data, err = readDataV2(r); err != nil {
				return fmt.Errorf("data: %w", err)
			}
		}

		if present, err = r.Option(); err != nil {
			return fmt.Errorf("update_authority: %w", err)
		}
		if present {
			authority, err := r.Pubkey()
			if err != nil {
				return fmt.Errorf("update_authority: %w", err)
			}
			s := authority.String()
			args.NewUpdateAuthority = &s
		}

		if args.PrimarySaleHappened, err = readOptionalBool(r); err != nil {
			return fmt.Errorf("primary_sale_happened: %w", err)
		}
		if args.IsMutable, err = readOptionalBool(r); err != nil {
			return fmt.Errorf("is_mutable: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &args, nil
}

func readOptionalBool(r *binlayout.Reader) (*bool, error) {
	present, err := r.Option()
	if err != nil || !present {
		return nil, err
	}
	v, err := r.Bool()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// extractUpdateEvent 解析 UpdateMetadataAccountV2 指令。
// 指令中不包含 Mint 账户，TokenMintAccount 保持为空。
//
// 账户布局：
//
// #0 - Metadata 账户
// #1 - Update Authority（签名者）
func extractUpdateEvent(ctx *common.ParserContext, ix *core.Instruction, index int) (*pb.MetaplexEvent, error) {
	args, err := decodeUpdateArgs(ix.Data[1:])
	if err != nil {
		return nil, common.DecodeFailed(ix.Data, err)
	}

	event := baseEvent(ctx, index)
	event.MetadataAccount = ctx.AccountAt(ix, 0)
	event.UpdateAuthority = ctx.AccountAt(ix, 1)
	event.UpdateMetadataV2 = args
	return event, nil
}
