package repository

import (
	"reflect"
	"sort"
	"strings"

	"github.com/bizframe/internal/errs"
)

// Alias 声明式的查询键
type Alias struct {
	Column string
	Op     Operator
}

// Aliases 查询键到条件的映射，按存储单独声明
type Aliases map[string]Alias

// idsKey 主键集合查询键
const idsKey = "ids"

var suffixOperators = []struct {
	suffix string
	op     Operator
}{
	{"_LTE", OpLte},
	{"_GTE", OpGte},
	{"_LT", OpLt},
	{"_GT", OpGt},
	{"_like", OpContains},
	{"_pre", OpPrefix},
	{"_suf", OpSuffix},
}

// ParseConditions 将键值形式的查询条件转换为 Filter。
// 解析顺序：别名、ids、后缀运算符、列名等值；无法识别的键直接报错，nil 值跳过。
func ParseConditions(conditions map[string]interface{}, aliases Aliases, columns columnSet, primaryKey string) (Filter, error) {
	keys := make([]string, 0, len(conditions))
	for key := range conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	filter := make(Filter, 0, len(keys))
	for _, key := range keys {
		value := conditions[key]
		if value == nil {
			continue
		}
		cond, err := parseCondition(key, value, aliases, columns, primaryKey)
		if err != nil {
			return nil, err
		}
		filter = append(filter, cond)
	}
	return filter, nil
}

func parseCondition(key string, value interface{}, aliases Aliases, columns columnSet, primaryKey string) (Condition, error) {
	if alias, ok := aliases[key]; ok {
		return aliasCondition(key, alias, value)
	}
	if key == idsKey {
		values, ok := toSequence(value)
		if !ok {
			return Condition{}, errs.InvalidArgument("condition %q requires a sequence, got %T", key, value)
		}
		return Condition{Column: primaryKey, Op: OpIn, Value: values}, nil
	}
	for _, item := range suffixOperators {
		if !strings.HasSuffix(key, item.suffix) {
			continue
		}
		column := strings.TrimSuffix(key, item.suffix)
		if !columns.has(column) {
			continue
		}
		return aliasCondition(key, Alias{Column: column, Op: item.op}, value)
	}
	if columns.has(key) {
		return Eq(key, value), nil
	}
	return Condition{}, errs.InvalidArgument("unknown condition key %q", key)
}

func aliasCondition(key string, alias Alias, value interface{}) (Condition, error) {
	switch alias.Op {
	case OpIn:
		values, ok := toSequence(value)
		if !ok {
			return Condition{}, errs.InvalidArgument("condition %q requires a sequence, got %T", key, value)
		}
		return Condition{Column: alias.Column, Op: OpIn, Value: values}, nil
	case OpPrefix, OpSuffix, OpContains:
		text, ok := value.(string)
		if !ok {
			return Condition{}, errs.InvalidArgument("condition %q requires a string, got %T", key, value)
		}
		return Condition{Column: alias.Column, Op: alias.Op, Value: text}, nil
	default:
		return Condition{Column: alias.Column, Op: alias.Op, Value: value}, nil
	}
}

// toSequence 将切片或数组转换为 []interface{}，[]byte 与字符串不视为序列
func toSequence(value interface{}) ([]interface{}, bool) {
	if values, ok := value.([]interface{}); ok {
		return values, true
	}
	if _, ok := value.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out, true
}
