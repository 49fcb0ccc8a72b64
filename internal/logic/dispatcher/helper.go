package dispatcher

import "peridot-indexer-sol/internal/pb"

// 分区 key 取事件所属的实体地址，保证同一实体的事件进入同一分区

func tokenPartitionKey(e *pb.MintOrBurnEvent) []byte {
	return []byte(e.MintAccount)
}

func metadataPartitionKey(e *pb.MetaplexEvent) []byte {
	return []byte(e.MetadataAccount)
}

func bridgePartitionKey(e *pb.WormholeEvent) []byte {
	switch {
	case e.PostedMessage != nil:
		return []byte(e.PostedMessage.Emitter)
	case e.PostedMessageUnreliable != nil:
		return []byte(e.PostedMessageUnreliable.Emitter)
	case e.PostedVaa != nil:
		return e.PostedVaa.EmitterAddress
	default:
		return nil
	}
}
