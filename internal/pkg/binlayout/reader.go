// Package binlayout 按声明顺序解码 Solana 指令数据：
// 定长整数小端序，定长字节数组原样读取，变长字节数组/字符串以 u32 小端长度为前缀，
// Option 字段以 1 字节存在标志为前缀。解码要么完整成功，要么整体失败。
package binlayout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"peridot-indexer-sol/internal/types"
)

var (
	ErrUnderflow     = errors.New("buffer underflow")
	ErrTrailingBytes = errors.New("trailing bytes after layout")
	ErrInvalidBool   = errors.New("invalid bool value")
	ErrInvalidOption = errors.New("invalid option flag")
	ErrInvalidUTF8   = errors.New("invalid utf-8 string")
)

// Reader 是一个只进不退的字节游标
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining 剩余未读字节数
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Offset 当前读取位置
func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnderflow, n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bool 只接受 0 和 1
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d at offset %d", ErrInvalidBool, v, r.off-1)
	}
}

// Fixed 读取 n 字节定长数组，返回副本
func (r *Reader) Fixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) Pubkey() (types.Pubkey, error) {
	var p types.Pubkey
	b, err := r.take(types.PubkeySize)
	if err != nil {
		return p, err
	}
	copy(p[:], b)
	return p, nil
}

// Bytes 读取 u32 长度前缀的变长字节数组
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds remaining %d", ErrUnderflow, n, r.Remaining())
	}
	return r.Fixed(int(n))
}

// String 读取 u32 长度前缀的 UTF-8 字符串，非法编码视为解码失败
func (r *Reader) String() (string, error) {
	start := r.off
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w at offset %d", ErrInvalidUTF8, start)
	}
	return string(b), nil
}

// Option 读取存在标志：0 表示缺省，1 表示后续跟随字段值
func (r *Reader) Option() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d at offset %d", ErrInvalidOption, v, r.off-1)
	}
}

// VecLen 读取 Vec 元素个数，elemSize 为单个元素的最小字节数，用于提前拒绝不可能的长度
func (r *Reader) VecLen(elemSize int) (int, error) {
	n, err := r.U32()
	if err != nil {
		return 0, err
	}
	if elemSize > 0 && uint64(n)*uint64(elemSize) > uint64(r.Remaining()) {
		return 0, fmt.Errorf("%w: vec of %d elements needs %d bytes, have %d",
			ErrUnderflow, n, uint64(n)*uint64(elemSize), r.Remaining())
	}
	return int(n), nil
}

// Finish 要求所有字节都已消费
func (r *Reader) Finish() error {
	if rest := r.Remaining(); rest != 0 {
		return fmt.Errorf("%w: %d bytes left", ErrTrailingBytes, rest)
	}
	return nil
}

// Decode 用 fn 按布局读取 data，并要求恰好读完
func Decode(data []byte, fn func(r *Reader) error) error {
	r := NewReader(data)
	if err := fn(r); err != nil {
		return err
	}
	return r.Finish()
}
