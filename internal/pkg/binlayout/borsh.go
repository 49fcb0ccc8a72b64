package binlayout

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/near/borsh-go"
)

// DecodeBorsh 使用 borsh 解码只含定长字段与 Vec 的扁平结构体，v 必须是结构体指针。
// 数据长度必须与结构体重新编码后的长度一致，多余字节视为失败。
func DecodeBorsh(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("binlayout: DecodeBorsh target must be a non-nil pointer")
	}
	if err := borsh.Deserialize(v, data); err != nil {
		return fmt.Errorf("%w: %v", ErrUnderflow, err)
	}
	encoded, err := borsh.Serialize(rv.Elem().Interface())
	if err != nil {
		return fmt.Errorf("binlayout: re-encode %T: %w", v, err)
	}
	if len(encoded) != len(data) {
		return fmt.Errorf("%w: %d bytes left", ErrTrailingBytes, len(data)-len(encoded))
	}
	return nil
}
