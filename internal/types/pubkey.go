package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PubkeySize 公钥（账户地址/程序 ID）的固定字节长度
const PubkeySize = 32

type Pubkey [PubkeySize]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// DecodeError 表示 base58 文本无法解析为 32 字节公钥
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode pubkey %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 *DecodeError（用于不信任输入路径）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, &DecodeError{Input: s, Err: err}
	}
	if len(data) != PubkeySize {
		return Pubkey{}, &DecodeError{Input: s, Err: fmt.Errorf("invalid length: got %d, want %d", len(data), PubkeySize)}
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

// DecodeProgramID 解析程序 ID 文本，仅在加载程序表时调用
func DecodeProgramID(text string) (Pubkey, error) {
	return TryPubkeyFromBase58(text)
}

// PubkeyFromBase58 仅用于硬编码常量，解析失败直接 panic
func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PubkeyFromBytes 从任意字节切片构造 Pubkey，长度不为 32 时返回 false
func PubkeyFromBytes(b []byte) (Pubkey, bool) {
	var p Pubkey
	if len(b) != PubkeySize {
		return p, false
	}
	copy(p[:], b)
	return p, true
}

// EncodeAddress 对任意字节序列做 base58 编码，空输入返回空串
func EncodeAddress(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return base58.Encode(b)
}
