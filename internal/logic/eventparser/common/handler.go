package common

import (
	"errors"
	"fmt"

	"peridot-indexer-sol/internal/logic/core"
	"peridot-indexer-sol/internal/metrics"
)

// InstructionHandler 解码一条已匹配程序 ID 与判别字节的指令。
// 返回 error 时仅丢弃当前指令，调用方继续处理下一条。
//
// 参数：
//   - ctx:   当前交易的解析上下文
//   - ix:    指令本身
//   - index: 指令在交易指令列表中的位置，写入事件的 instruction_index
type InstructionHandler[E any] func(ctx *ParserContext, ix *core.Instruction, index int) (E, error)

// Handler 判别字节对应的处理项，Kind 用于日志与指标
type Handler[E any] struct {
	Kind   string
	Decode InstructionHandler[E]
}

// DispatchTable 判别字节 → handler。每个协议一张表，新增指令类型只需注册一项。
type DispatchTable[E any] map[byte]Handler[E]

// SkipError 表示指令被识别但无法产出事件
type SkipError struct {
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// DecodeFailed 指令数据不符合预期布局
func DecodeFailed(data []byte, err error) error {
	return &SkipError{
		Reason: metrics.ReasonDecode,
		Err:    fmt.Errorf("failed to decode data (len %d): %w", len(data), err),
	}
}

// NotEnoughAccounts 指令账户角色数量不足
func NotEnoughAccounts(got, want int) error {
	return &SkipError{
		Reason: metrics.ReasonAccounts,
		Err:    fmt.Errorf("not enough accounts: got=%d, expect>=%d", got, want),
	}
}

// HandlerPanicked handler 内部 panic
func HandlerPanicked(r any) error {
	return &SkipError{
		Reason: metrics.ReasonPanic,
		Err:    fmt.Errorf("handler panic: %v", r),
	}
}

// SkipReason 提取跳过原因，未知错误归为 decode
func SkipReason(err error) string {
	var se *SkipError
	if errors.As(err, &se) {
		return se.Reason
	}
	return metrics.ReasonDecode
}
