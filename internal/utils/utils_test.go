package utils

import (
	"testing"

	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/pb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestEncodeCollection(t *testing.T) {
	c := &pb.MintOrBurnEvents{Events: []*pb.MintOrBurnEvent{{
		TxSignature: "sig",
		BlockSlot:   7,
		EventType:   pb.TokenEventTypeBurn,
		Amount:      5,
	}}}

	data, err := EncodeCollection(c)
	require.NoError(t, err)

	typ, body, err := DecodeEventType(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(consts.CollectionTypeToken), typ)

	want, err := proto.MarshalOptions{Deterministic: true}.Marshal(c.ToProto())
	require.NoError(t, err)
	assert.Equal(t, want, body)
}

func TestDecodeEventType_Short(t *testing.T) {
	_, _, err := DecodeEventType([]byte{1, 2})
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	key := make([]byte, 32)
	key[27] = 0x0b
	assert.Equal(t, uint32(3), PartitionHashBytes(key, 8))
	assert.Equal(t, uint32(0), PartitionHashBytes(key[:10], 8))
	assert.Less(t, PartitionHashBytes(key, 6), uint32(6))

	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 0}, SlotKey(256))
	assert.Equal(t, 10, CalcCapPerPartition(3, 1, 10))
	assert.Equal(t, 60, CalcCapPerPartition(100, 5, 10))
}
