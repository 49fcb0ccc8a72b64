package binlayout

import (
	"encoding/binary"

	"peridot-indexer-sol/internal/types"
)

// Writer 按与 Reader 相同的布局规则拼装字节，主要用于构造指令数据样本
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

func (w *Writer) Fixed(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) Pubkey(p types.Pubkey) *Writer {
	return w.Fixed(p[:])
}

func (w *Writer) Bytes(b []byte) *Writer {
	w.U32(uint32(len(b)))
	return w.Fixed(b)
}

func (w *Writer) String(s string) *Writer {
	return w.Bytes([]byte(s))
}

// Some 写入存在标志 1
func (w *Writer) Some() *Writer {
	return w.U8(1)
}

// None 写入存在标志 0
func (w *Writer) None() *Writer {
	return w.U8(0)
}

func (w *Writer) Build() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}
