package eventparser

import (
	"errors"
	"testing"

	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/logic/eventparser/common"
	"peridot-indexer-sol/internal/logic/programs"
	"peridot-indexer-sol/internal/pb"
	"peridot-indexer-sol/internal/pkg/binlayout"
	"peridot-indexer-sol/internal/types"

	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e := NewExtractor(programs.IDs{})
	_, err := e.Programs()
	require.NoError(t, err)
	return e
}

// ---- Token ----

func TestExtractTokenEvents_Mint(t *testing.T) {
	e := newTestExtractor(t)
	mint, dest, auth := pk("mint"), pk("dest"), pk("auth")
	tx := newTx("t0", pk("payer")).
		ix(tokenProgram, []types.Pubkey{mint, dest, auth}, amountData(7, 1000)).
		build()

	out, err := e.ExtractTokenEvents(newBlock(42, ptr(int64(1700000000)), tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)

	ev := out.Events[0]
	assert.Equal(t, pb.TokenEventTypeMint, ev.EventType)
	assert.Equal(t, uint64(1000), ev.Amount)
	assert.Equal(t, mint.String(), ev.MintAccount)
	assert.Equal(t, dest.String(), ev.TokenAccount)
	assert.Equal(t, auth.String(), ev.Authority)
	assert.Equal(t, consts.TokenProgramStr, ev.ProgramID)
	assert.Equal(t, types.EncodeAddress(sig("t0")), ev.TxSignature)
	assert.Equal(t, uint64(42), ev.BlockSlot)
	assert.Equal(t, int64(1700000000), ev.BlockTime)
	assert.Equal(t, uint32(0), ev.InstructionIndex)
}

func TestExtractTokenEvents_Burn(t *testing.T) {
	e := newTestExtractor(t)
	source, mint, auth := pk("source"), pk("mint"), pk("owner")
	tx := newTx("t0", pk("payer")).
		ix(tokenProgram, []types.Pubkey{source, mint, auth}, amountData(8, 55)).
		build()

	out, err := e.ExtractTokenEvents(newBlock(1, nil, tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)

	ev := out.Events[0]
	assert.Equal(t, pb.TokenEventTypeBurn, ev.EventType)
	assert.Equal(t, uint64(55), ev.Amount)
	assert.Equal(t, source.String(), ev.TokenAccount)
	assert.Equal(t, mint.String(), ev.MintAccount)
	assert.Equal(t, auth.String(), ev.Authority)
	assert.Equal(t, int64(0), ev.BlockTime)
}

func TestExtractTokenEvents_Skips(t *testing.T) {
	accounts := []types.Pubkey{pk("mint"), pk("dest"), pk("auth")}
	tests := []struct {
		name string
		tx   func() *txBuilder
	}{
		{"payload shorter than amount", func() *txBuilder {
			return newTx("t", pk("payer")).ix(tokenProgram, accounts, []byte{7, 1, 2, 3})
		}},
		{"trailing bytes", func() *txBuilder {
			return newTx("t", pk("payer")).ix(tokenProgram, accounts, append(amountData(7, 1), 0))
		}},
		{"fewer than three accounts", func() *txBuilder {
			return newTx("t", pk("payer")).ix(tokenProgram, accounts[:2], amountData(7, 1))
		}},
		{"unrecognized discriminator", func() *txBuilder {
			return newTx("t", pk("payer")).ix(tokenProgram, accounts, amountData(3, 1))
		}},
		{"empty data", func() *txBuilder {
			return newTx("t", pk("payer")).ix(tokenProgram, accounts, nil)
		}},
		{"other program", func() *txBuilder {
			other := types.PubkeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
			return newTx("t", pk("payer")).ix(other, accounts, amountData(7, 1))
		}},
		{"program index out of range", func() *txBuilder {
			return newTx("t", pk("payer")).rawIx(99, []uint32{0, 0, 0}, amountData(7, 1))
		}},
	}
	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.ExtractTokenEvents(newBlock(1, nil, tt.tx().build()))
			require.NoError(t, err)
			assert.Empty(t, out.Events)
		})
	}
}

func TestExtractTokenEvents_OutOfRangeAccountIsEmpty(t *testing.T) {
	e := newTestExtractor(t)
	b := newTx("t", pk("payer"))
	programIndex := b.key(tokenProgram)
	tx := b.rawIx(programIndex, []uint32{0, 77, 0}, amountData(7, 5)).build()

	out, err := e.ExtractTokenEvents(newBlock(1, nil, tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "", out.Events[0].TokenAccount)
	assert.Equal(t, pk("payer").String(), out.Events[0].MintAccount)
}

func TestExtractTokenEvents_FailedTxSkipped(t *testing.T) {
	e := newTestExtractor(t)
	accounts := []types.Pubkey{pk("mint"), pk("dest"), pk("auth")}
	failed := newTx("bad", pk("payer")).ix(tokenProgram, accounts, amountData(7, 1)).failed().build()
	ok := newTx("good", pk("payer")).ix(tokenProgram, accounts, amountData(7, 2)).build()

	out, err := e.ExtractTokenEvents(newBlock(1, nil, failed, ok))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, uint64(2), out.Events[0].Amount)
	assert.Equal(t, types.EncodeAddress(sig("good")), out.Events[0].TxSignature)
}

func TestExtractTokenEvents_Ordering(t *testing.T) {
	e := newTestExtractor(t)
	accounts := []types.Pubkey{pk("mint"), pk("dest"), pk("auth")}
	t0 := newTx("t0", pk("payer")).
		ix(tokenProgram, accounts, amountData(7, 1)).
		ix(bridgeProgram, nil, []byte{1}).
		ix(tokenProgram, accounts, amountData(8, 2)).
		build()
	t1 := newTx("t1", pk("payer")).
		ix(tokenProgram, accounts, amountData(8, 3)).
		ix(tokenProgram, accounts, amountData(7, 4)).
		build()

	out, err := e.ExtractTokenEvents(newBlock(1, nil, t0, t1))
	require.NoError(t, err)
	require.Len(t, out.Events, 4)

	type coord struct {
		tx     string
		ix     uint32
		amount uint64
	}
	var got []coord
	for _, ev := range out.Events {
		got = append(got, coord{ev.TxSignature, ev.InstructionIndex, ev.Amount})
	}
	s0, s1 := types.EncodeAddress(sig("t0")), types.EncodeAddress(sig("t1"))
	assert.Equal(t, []coord{{s0, 0, 1}, {s0, 2, 2}, {s1, 0, 3}, {s1, 1, 4}}, got)
}

func TestExtract_Idempotent(t *testing.T) {
	e := newTestExtractor(t)
	accounts := []types.Pubkey{pk("mint"), pk("dest"), pk("auth")}
	block := newBlock(9, ptr(int64(10)),
		newTx("t0", pk("payer")).ix(tokenProgram, accounts, amountData(7, 1)).build(),
		newTx("t1", pk("payer")).ix(bridgeProgram, accounts, postMessageData(t, 1, 7, []byte("hi"), 1)).build(),
	)

	first, err := e.ExtractAll(block)
	require.NoError(t, err)
	second, err := e.ExtractAll(block)
	require.NoError(t, err)

	for i, c := range first.Collections() {
		a, err := pb.Marshal(c)
		require.NoError(t, err)
		b, err := pb.Marshal(second.Collections()[i])
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
	assert.Equal(t, 2, first.Total())
}

func TestExtract_InvalidProgramTableIsFatal(t *testing.T) {
	e := NewExtractor(programs.IDs{Token: "0OIl"})
	block := newBlock(1, nil)

	_, err := e.ExtractTokenEvents(block)
	assert.True(t, errors.Is(err, programs.ErrProgramTable))
	_, err = e.ExtractMetadataEvents(block)
	assert.True(t, errors.Is(err, programs.ErrProgramTable))
	_, err = e.ExtractBridgeEvents(block)
	assert.True(t, errors.Is(err, programs.ErrProgramTable))
	_, err = e.ExtractAll(block)
	assert.Error(t, err)
}

func TestExtract_EmptyBlock(t *testing.T) {
	e := newTestExtractor(t)
	out, err := e.ExtractAll(newBlock(1, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Total())
	assert.NotNil(t, out.Token.Events)
}

// ---- Metadata ----

func writeDataV2(w *binlayout.Writer, name string) *binlayout.Writer {
	return w.String(name).String("SYM").String("https://example.com/" + name + ".json").U16(500)
}

func TestExtractMetadataEvents_CreateFull(t *testing.T) {
	e := newTestExtractor(t)
	metadata, mint, mintAuth, payer, updateAuth := pk("md"), pk("mint"), pk("mintAuth"), pk("payer"), pk("ua")

	w := binlayout.NewWriter().U8(consts.MetaplexCreateMetadataAccountV3)
	writeDataV2(w, "nft").
		Some().U32(2).
		Pubkey(pk("c1")).Bool(true).U8(60).
		Pubkey(pk("c2")).Bool(false).U8(40).
		Some().Bool(true).Pubkey(pk("coll")).
		Some().U8(1).U64(3).U64(10).
		Bool(true).
		Some().U8(0).U64(500)

	tx := newTx("create", payer).
		ix(metadataProgram, []types.Pubkey{metadata, mint, mintAuth, payer, updateAuth}, w.Build()).
		build()

	out, err := e.ExtractMetadataEvents(newBlock(7, ptr(int64(1234)), tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)

	ev := out.Events[0]
	assert.Equal(t, metadata.String(), ev.MetadataAccount)
	assert.Equal(t, mint.String(), ev.TokenMintAccount)
	assert.Equal(t, updateAuth.String(), ev.UpdateAuthority)
	assert.Equal(t, payer.String(), ev.PayerAddress)
	require.NotNil(t, ev.BlockTime)
	assert.Equal(t, int64(1234), ev.BlockTime.Seconds)
	assert.Equal(t, int32(0), ev.BlockTime.Nanos)
	assert.Nil(t, ev.UpdateMetadataV2)

	create := ev.CreateMetadataV3
	require.NotNil(t, create)
	assert.True(t, create.IsMutable)
	assert.Equal(t, "nft", create.Data.Name)
	assert.Equal(t, "SYM", create.Data.Symbol)
	assert.Equal(t, uint32(500), create.Data.SellerFeeBasisPoints)
	require.Len(t, create.Data.Creators, 2)
	assert.Equal(t, pb.MetaplexCreator{Address: pk("c1").String(), Verified: true, Share: 60}, *create.Data.Creators[0])
	assert.Equal(t, pb.MetaplexCollection{Verified: true, Key: pk("coll").String()}, *create.Data.Collection)
	assert.Equal(t, pb.MetaplexUses{UseMethod: pb.MetaplexUseMethodMultiple, Remaining: 3, Total: 10}, *create.Data.Uses)
	require.NotNil(t, create.CollectionDetails)
	require.NotNil(t, create.CollectionDetails.V1)
	assert.Equal(t, uint64(500), create.CollectionDetails.V1.Size)
}

func TestExtractMetadataEvents_CreateCollectionDetails(t *testing.T) {
	tests := []struct {
		name        string
		details     func(w *binlayout.Writer)
		wantPresent bool
		wantV1      bool
	}{
		{"absent", func(w *binlayout.Writer) { w.None() }, false, false},
		{"v1", func(w *binlayout.Writer) { w.Some().U8(0).U64(9) }, true, true},
		{"v2 padding only", func(w *binlayout.Writer) { w.Some().U8(1).Fixed(make([]byte, 8)) }, true, false},
	}
	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := binlayout.NewWriter().U8(consts.MetaplexCreateMetadataAccountV3)
			writeDataV2(w, "a").None().None().None().Bool(false)
			tt.details(w)
			tx := newTx("c", pk("payer")).
				ix(metadataProgram, []types.Pubkey{pk("md"), pk("mint"), pk("ma"), pk("payer"), pk("ua")}, w.Build()).
				build()

			out, err := e.ExtractMetadataEvents(newBlock(1, nil, tx))
			require.NoError(t, err)
			require.Len(t, out.Events, 1)

			create := out.Events[0].CreateMetadataV3
			assert.Nil(t, create.Data.Creators)
			assert.Nil(t, create.Data.Collection)
			assert.Nil(t, create.Data.Uses)
			assert.Equal(t, tt.wantPresent, create.CollectionDetails != nil)
			if tt.wantPresent {
				assert.Equal(t, tt.wantV1, create.CollectionDetails.V1 != nil)
			}
			assert.Nil(t, out.Events[0].BlockTime)
		})
	}
}

func TestExtractMetadataEvents_CreateMalformed(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *binlayout.Writer)
	}{
		{"truncated", func(w *binlayout.Writer) { w.String("name") }},
		{"unknown collection details", func(w *binlayout.Writer) {
			writeDataV2(w, "a").None().None().None().Bool(false).Some().U8(5)
		}},
		{"unknown use method", func(w *binlayout.Writer) {
			writeDataV2(w, "a").None().None().Some().U8(9).U64(1).U64(1).Bool(false).None()
		}},
		{"invalid option flag", func(w *binlayout.Writer) {
			writeDataV2(w, "a").U8(2)
		}},
		{"trailing bytes", func(w *binlayout.Writer) {
			writeDataV2(w, "a").None().None().None().Bool(false).None().U8(0)
		}},
		{"invalid utf-8 name", func(w *binlayout.Writer) {
			writeDataV2(w, "\xff\xfe").None().None().None().Bool(false).None()
		}},
		{"invalid utf-8 symbol", func(w *binlayout.Writer) {
			w.String("a").String("\xc3\x28").String("uri").U16(0).None().None().None().Bool(false).None()
		}},
	}
	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := binlayout.NewWriter().U8(consts.MetaplexCreateMetadataAccountV3)
			tt.build(w)
			tx := newTx("c", pk("payer")).ix(metadataProgram, []types.Pubkey{pk("md"), pk("mint")}, w.Build()).build()

			out, err := e.ExtractMetadataEvents(newBlock(1, nil, tx))
			require.NoError(t, err)
			assert.Empty(t, out.Events)
		})
	}
}

func TestExtractMetadataEvents_InvalidUTF8KeepsBlockEncodable(t *testing.T) {
	e := newTestExtractor(t)
	create := func(name string) []byte {
		w := binlayout.NewWriter().U8(consts.MetaplexCreateMetadataAccountV3)
		writeDataV2(w, name).None().None().None().Bool(true).None()
		return w.Build()
	}
	update := binlayout.NewWriter().U8(consts.MetaplexUpdateMetadataAccountV2).Some()
	writeDataV2(update, "\xff").None().None().None()
	update.None().None().None()

	accounts := []types.Pubkey{pk("md"), pk("mint"), pk("ma"), pk("payer"), pk("ua")}
	tx := newTx("mixed", pk("payer")).
		ix(metadataProgram, accounts, create("good")).
		ix(metadataProgram, accounts, create("\xff\xfe")).
		ix(metadataProgram, accounts[:2], update.Build()).
		build()

	out, err := e.ExtractMetadataEvents(newBlock(1, nil, tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "good", out.Events[0].CreateMetadataV3.Data.Name)
	assert.Equal(t, uint32(0), out.Events[0].InstructionIndex)

	_, err = pb.Marshal(out)
	require.NoError(t, err)
}

func TestExtractMetadataEvents_Update(t *testing.T) {
	e := newTestExtractor(t)
	payer, metadata, authority := pk("payer"), pk("md"), pk("ua")

	w := binlayout.NewWriter().U8(consts.MetaplexUpdateMetadataAccountV2)
	w.Some()
	writeDataV2(w, "renamed").None().None().None()
	w.Some().Pubkey(pk("newAuth")).
		Some().Bool(true).
		None()

	tx := newTx("upd", payer).ix(metadataProgram, []types.Pubkey{metadata, authority}, w.Build()).build()
	out, err := e.ExtractMetadataEvents(newBlock(3, ptr(int64(99)), tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)

	ev := out.Events[0]
	assert.Equal(t, metadata.String(), ev.MetadataAccount)
	assert.Equal(t, authority.String(), ev.UpdateAuthority)
	assert.Equal(t, "", ev.TokenMintAccount)
	assert.Equal(t, payer.String(), ev.PayerAddress)
	assert.Nil(t, ev.CreateMetadataV3)

	upd := ev.UpdateMetadataV2
	require.NotNil(t, upd)
	require.NotNil(t, upd.Data)
	assert.Equal(t, "renamed", upd.Data.Name)
	require.NotNil(t, upd.NewUpdateAuthority)
	assert.Equal(t, pk("newAuth").String(), *upd.NewUpdateAuthority)
	require.NotNil(t, upd.PrimarySaleHappened)
	assert.True(t, *upd.PrimarySaleHappened)
	assert.Nil(t, upd.IsMutable)
}

func TestExtractMetadataEvents_UpdateAllAbsent(t *testing.T) {
	e := newTestExtractor(t)
	data := binlayout.NewWriter().U8(consts.MetaplexUpdateMetadataAccountV2).None().None().None().Some().Bool(false).Build()
	tx := newTx("upd", pk("payer")).ix(metadataProgram, []types.Pubkey{pk("md")}, data).build()

	out, err := e.ExtractMetadataEvents(newBlock(1, nil, tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)

	upd := out.Events[0].UpdateMetadataV2
	assert.Nil(t, upd.Data)
	assert.Nil(t, upd.NewUpdateAuthority)
	assert.Nil(t, upd.PrimarySaleHappened)
	require.NotNil(t, upd.IsMutable)
	assert.False(t, *upd.IsMutable)
	// 缺少第二个账户角色时为空
	assert.Equal(t, "", out.Events[0].UpdateAuthority)
}

// ---- Bridge ----

type testPostMessage struct {
	Nonce            uint32
	Payload          []byte
	ConsistencyLevel uint8
}

func postMessageData(t *testing.T, disc byte, nonce uint32, payload []byte, level uint8) []byte {
	t.Helper()
	data, err := borsh.Serialize(testPostMessage{Nonce: nonce, Payload: payload, ConsistencyLevel: level})
	require.NoError(t, err)
	return append([]byte{disc}, data...)
}

func bridgeAccounts() []types.Pubkey {
	return []types.Pubkey{pk("bridge"), pk("message"), pk("emitter"), pk("sequence"), pk("payer"), pk("fee")}
}

func TestExtractBridgeEvents_PostMessage(t *testing.T) {
	e := newTestExtractor(t)
	tx := newTx("pm", pk("payer")).
		ix(bridgeProgram, bridgeAccounts(), postMessageData(t, consts.WormholePostMessage, 77, []byte{0xca, 0xfe}, 32)).
		ix(bridgeProgram, bridgeAccounts(), postMessageData(t, consts.WormholePostMessageUnreliable, 78, nil, 1)).
		build()

	out, err := e.ExtractBridgeEvents(newBlock(5, ptr(int64(50)), tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 2)

	reliable := out.Events[0]
	assert.Equal(t, pb.InstructionTypePostMessage, reliable.InstructionType)
	require.NotNil(t, reliable.PostedMessage)
	assert.Nil(t, reliable.PostedMessageUnreliable)
	assert.Equal(t, uint32(77), reliable.PostedMessage.Nonce)
	assert.Equal(t, []byte{0xca, 0xfe}, reliable.PostedMessage.Payload)
	assert.Equal(t, uint32(32), reliable.PostedMessage.ConsistencyLevel)
	assert.Equal(t, pk("emitter").String(), reliable.PostedMessage.Emitter)
	assert.Equal(t, pk("payer").String(), reliable.PostedMessage.Payer)
	assert.Equal(t, int64(50), reliable.BlockTime)

	unreliable := out.Events[1]
	assert.Equal(t, pb.InstructionTypePostMessageUnreliable, unreliable.InstructionType)
	assert.Equal(t, uint32(1), unreliable.InstructionIndex)
	require.NotNil(t, unreliable.PostedMessageUnreliable)
	assert.Nil(t, unreliable.PostedMessage)
	assert.Equal(t, uint32(78), unreliable.PostedMessageUnreliable.Nonce)
	assert.Empty(t, unreliable.PostedMessageUnreliable.Payload)
}

func TestExtractBridgeEvents_PostMessageMissingRoles(t *testing.T) {
	e := newTestExtractor(t)
	tx := newTx("pm", pk("payer")).
		ix(bridgeProgram, bridgeAccounts()[:2], postMessageData(t, consts.WormholePostMessage, 1, []byte{1}, 0)).
		build()

	out, err := e.ExtractBridgeEvents(newBlock(1, nil, tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "", out.Events[0].PostedMessage.Emitter)
	assert.Equal(t, "", out.Events[0].PostedMessage.Payer)
}

func TestExtractBridgeEvents_PostVaaZeroEmitter(t *testing.T) {
	e := newTestExtractor(t)
	data := binlayout.NewWriter().U8(consts.WormholePostVAA).
		U8(1).           // version
		U32(3).          // guardian_set_index
		U32(1700000000). // timestamp
		U32(42).         // nonce
		U16(2).          // emitter_chain
		Fixed(make([]byte, 32)).
		U64(0). // sequence
		U8(15). // consistency_level
		Bytes([]byte("vaa")).
		Build()

	accounts := []types.Pubkey{pk("gs"), pk("bridge"), pk("sigset"), pk("vaa"), pk("payer")}
	tx := newTx("vaa", pk("payer")).ix(bridgeProgram, accounts, data).build()

	out, err := e.ExtractBridgeEvents(newBlock(1, nil, tx))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)

	ev := out.Events[0]
	assert.Equal(t, pb.InstructionTypePostVaa, ev.InstructionType)
	vaa := ev.PostedVaa
	require.NotNil(t, vaa)
	assert.Equal(t, make([]byte, 32), vaa.EmitterAddress)
	assert.Equal(t, uint64(0), vaa.Sequence)
	assert.Equal(t, uint32(1), vaa.Version)
	assert.Equal(t, uint32(3), vaa.GuardianSetIndex)
	assert.Equal(t, uint32(1700000000), vaa.VaaTimestamp)
	assert.Equal(t, uint32(42), vaa.VaaNonce)
	assert.Equal(t, uint32(2), vaa.EmitterChain)
	assert.Equal(t, uint32(15), vaa.ConsistencyLevel)
	assert.Equal(t, []byte("vaa"), vaa.Payload)
	assert.Equal(t, pk("payer").String(), vaa.Payer)
}

func TestExtractBridgeEvents_Malformed(t *testing.T) {
	e := newTestExtractor(t)
	tx := newTx("bad", pk("payer")).
		ix(bridgeProgram, bridgeAccounts(), []byte{consts.WormholePostVAA, 1, 2, 3}).
		ix(bridgeProgram, bridgeAccounts(), []byte{consts.WormholePostMessage, 0, 0, 0, 0, 9, 0, 0, 0}).
		ix(bridgeProgram, bridgeAccounts(), []byte{0x05}).
		build()

	out, err := e.ExtractBridgeEvents(newBlock(1, nil, tx))
	require.NoError(t, err)
	assert.Empty(t, out.Events)
}

func TestExtract_FailedTxSkippedForEveryProtocol(t *testing.T) {
	e := newTestExtractor(t)
	w := binlayout.NewWriter().U8(consts.MetaplexCreateMetadataAccountV3)
	writeDataV2(w, "a").None().None().None().Bool(false).None()
	createData := w.Build()
	metaAccounts := []types.Pubkey{pk("md"), pk("mint"), pk("ma"), pk("payer"), pk("ua")}

	failed := newTx("bad", pk("payer")).
		ix(metadataProgram, metaAccounts, createData).
		ix(bridgeProgram, bridgeAccounts(), postMessageData(t, consts.WormholePostMessage, 1, nil, 0)).
		failed().build()
	ok := newTx("good", pk("payer")).
		ix(metadataProgram, metaAccounts, createData).
		ix(bridgeProgram, bridgeAccounts(), postMessageData(t, consts.WormholePostMessage, 2, nil, 0)).
		build()
	block := newBlock(1, nil, failed, ok)
	good := types.EncodeAddress(sig("good"))

	metadata, err := e.ExtractMetadataEvents(block)
	require.NoError(t, err)
	require.Len(t, metadata.Events, 1)
	assert.Equal(t, good, metadata.Events[0].TxHash)

	bridge, err := e.ExtractBridgeEvents(block)
	require.NoError(t, err)
	require.Len(t, bridge.Events, 1)
	assert.Equal(t, good, bridge.Events[0].TxSignature)
	assert.Equal(t, uint32(2), bridge.Events[0].PostedMessage.Nonce)
}

func TestExtract_OtherProgramIgnoredForEveryProtocol(t *testing.T) {
	e := newTestExtractor(t)
	other := types.PubkeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	w := binlayout.NewWriter().U8(consts.MetaplexCreateMetadataAccountV3)
	writeDataV2(w, "a").None().None().None().Bool(false).None()

	tx := newTx("other", pk("payer")).
		ix(other, []types.Pubkey{pk("md"), pk("mint"), pk("ma"), pk("payer"), pk("ua")}, w.Build()).
		ix(other, bridgeAccounts(), postMessageData(t, consts.WormholePostMessage, 1, nil, 0)).
		ix(tokenProgram, bridgeAccounts(), postMessageData(t, consts.WormholePostMessage, 1, nil, 0)).
		build()
	block := newBlock(1, nil, tx)

	metadata, err := e.ExtractMetadataEvents(block)
	require.NoError(t, err)
	assert.Empty(t, metadata.Events)

	bridge, err := e.ExtractBridgeEvents(block)
	require.NoError(t, err)
	assert.Empty(t, bridge.Events)
}

func TestExtractTx_PanicDropsOnlyThatInstruction(t *testing.T) {
	handlers := common.DispatchTable[int]{
		1: {Kind: "ok", Decode: func(_ *common.ParserContext, _ *core.Instruction, index int) (int, error) {
			return index, nil
		}},
		2: {Kind: "boom", Decode: func(_ *common.ParserContext, ix *core.Instruction, _ int) (int, error) {
			return int(ix.Data[5]), nil
		}},
	}
	tx := newTx("p", pk("payer")).
		ix(tokenProgram, nil, []byte{1}).
		ix(tokenProgram, nil, []byte{2}).
		ix(tokenProgram, nil, []byte{1}).
		build()
	block := newBlock(1, nil, tx)

	got := extractTx(block, tx, programs.ProtocolToken, tokenProgram, handlers)
	assert.Equal(t, []int{0, 2}, got)
}

func TestExtractAll_ProtocolsAreIndependent(t *testing.T) {
	e := newTestExtractor(t)
	tx := newTx("mixed", pk("payer")).
		ix(tokenProgram, []types.Pubkey{pk("mint"), pk("dest"), pk("auth")}, amountData(7, 1)).
		ix(bridgeProgram, bridgeAccounts(), postMessageData(t, consts.WormholePostMessage, 1, nil, 0)).
		build()

	out, err := e.ExtractAll(newBlock(1, nil, tx))
	require.NoError(t, err)
	assert.Len(t, out.Token.Events, 1)
	assert.Empty(t, out.Metadata.Events)
	require.Len(t, out.Bridge.Events, 1)
	assert.Equal(t, uint32(1), out.Bridge.Events[0].InstructionIndex)
}
