package utils

import (
	"encoding/binary"
	"fmt"

	"peridot-indexer-sol/internal/pb"

	"google.golang.org/protobuf/proto"
)

// EncodeEvent 将 protobuf 消息编码为带集合类型前缀的二进制数据：
// - 前 4 字节为集合类型（uint32，小端序）
// - 后续为确定性 protobuf 序列化数据
func EncodeEvent(eventType uint32, msg proto.Message) ([]byte, error) {
	const extraBuffer = 32 // 多预留一些空间，降低 MarshalAppend 触发扩容的概率

	size := proto.Size(msg)
	buf := make([]byte, 4, 4+size+extraBuffer)
	binary.LittleEndian.PutUint32(buf[:4], eventType)

	opts := proto.MarshalOptions{Deterministic: true}
	result, err := opts.MarshalAppend(buf, msg)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: marshal %T: %w", msg, err)
	}
	return result, nil
}

// EncodeCollection 以 CollectionType 为前缀编码事件集合
func EncodeCollection(c pb.Collection) ([]byte, error) {
	return EncodeEvent(c.CollectionType(), c.ToProto())
}

// DecodeEventType 读取消息前缀中的集合类型，返回类型与 protobuf 数据
func DecodeEventType(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("DecodeEventType: message too short (%d bytes)", len(data))
	}
	return binary.LittleEndian.Uint32(data[:4]), data[4:], nil
}
