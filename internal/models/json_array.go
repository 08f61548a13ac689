package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONArray 序列化为 JSON 文本存储的数组列
type JSONArray[T any] []T

// Value 实现 driver.Valuer 接口，nil 按空数组写入
func (a JSONArray[T]) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	body, err := json.Marshal([]T(a))
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

// Scan 实现 sql.Scanner 接口
func (a *JSONArray[T]) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = JSONArray[T]{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("json array: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = JSONArray[T]{}
		return nil
	}
	decoded := make([]T, 0)
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	if decoded == nil {
		decoded = []T{}
	}
	*a = decoded
	return nil
}
