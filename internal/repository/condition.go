package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/bizframe/internal/errs"
)

// Operator 查询条件运算符
type Operator string

const (
	OpEq       Operator = "eq"
	OpLt       Operator = "lt"
	OpGt       Operator = "gt"
	OpLte      Operator = "lte"
	OpGte      Operator = "gte"
	OpPrefix   Operator = "prefix"
	OpSuffix   Operator = "suffix"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
)

// likeEscape LIKE 模式的转义字符
const likeEscape = "!"

// Condition 单个查询条件
type Condition struct {
	Column string
	Op     Operator
	Value  interface{}
}

// Filter 条件的合取（AND）
type Filter []Condition

// And 追加条件
func (f Filter) And(conds ...Condition) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

func Eq(column string, value interface{}) Condition {
	return Condition{Column: column, Op: OpEq, Value: value}
}

func Lt(column string, value interface{}) Condition {
	return Condition{Column: column, Op: OpLt, Value: value}
}

func Gt(column string, value interface{}) Condition {
	return Condition{Column: column, Op: OpGt, Value: value}
}

func Lte(column string, value interface{}) Condition {
	return Condition{Column: column, Op: OpLte, Value: value}
}

func Gte(column string, value interface{}) Condition {
	return Condition{Column: column, Op: OpGte, Value: value}
}

// Prefix 前缀匹配
func Prefix(column, value string) Condition {
	return Condition{Column: column, Op: OpPrefix, Value: value}
}

// Suffix 后缀匹配
func Suffix(column, value string) Condition {
	return Condition{Column: column, Op: OpSuffix, Value: value}
}

// Contains 包含匹配
func Contains(column, value string) Condition {
	return Condition{Column: column, Op: OpContains, Value: value}
}

// In 集合匹配，空集合表示不限制
func In[V any](column string, values []V) Condition {
	items := make([]interface{}, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	return Condition{Column: column, Op: OpIn, Value: items}
}

// Sort 排序项
type Sort struct {
	Column string
	Desc   bool
}

// OrderBy 有序的排序列表
type OrderBy []Sort

// Asc 升序
func Asc(column string) Sort {
	return Sort{Column: column}
}

// Desc 降序
func Desc(column string) Sort {
	return Sort{Column: column, Desc: true}
}

// ParseOrderBy 解析 column:direction 形式的排序参数
func ParseOrderBy(items ...string) (OrderBy, error) {
	out := make(OrderBy, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		column, direction, _ := strings.Cut(item, ":")
		column = strings.TrimSpace(column)
		switch strings.ToLower(strings.TrimSpace(direction)) {
		case "", "asc":
			out = append(out, Asc(column))
		case "desc":
			out = append(out, Desc(column))
		default:
			return nil, errs.InvalidArgument("invalid order direction %q for %s", direction, column)
		}
	}
	return out, nil
}

// columnSet 表的合法列名集合
type columnSet map[string]struct{}

func (c columnSet) has(column string) bool {
	_, ok := c[column]
	return ok
}

// buildWhere 将 Filter 翻译为参数化 SQL，所有列名必须属于 columns
func buildWhere(dialect string, filter Filter, columns columnSet) (string, []interface{}, error) {
	parts := make([]string, 0, len(filter))
	args := make([]interface{}, 0, len(filter))
	for _, cond := range filter {
		if !columns.has(cond.Column) {
			return "", nil, errs.InvalidArgument("unknown column %q in condition", cond.Column)
		}
		switch cond.Op {
		case OpEq:
			if cond.Value == nil {
				parts = append(parts, cond.Column+" IS NULL")
				continue
			}
			parts = append(parts, cond.Column+" = ?")
			args = append(args, utcValue(cond.Value))
		case OpLt:
			parts = append(parts, cond.Column+" < ?")
			args = append(args, utcValue(cond.Value))
		case OpGt:
			parts = append(parts, cond.Column+" > ?")
			args = append(args, utcValue(cond.Value))
		case OpLte:
			parts = append(parts, cond.Column+" <= ?")
			args = append(args, utcValue(cond.Value))
		case OpGte:
			parts = append(parts, cond.Column+" >= ?")
			args = append(args, utcValue(cond.Value))
		case OpPrefix, OpSuffix, OpContains:
			text, ok := cond.Value.(string)
			if !ok {
				return "", nil, errs.InvalidArgument("condition %s on %s requires a string value", cond.Op, cond.Column)
			}
			parts = append(parts, fmt.Sprintf("%s %s ? ESCAPE '%s'", cond.Column, likeOperatorByDialect(dialect), likeEscape))
			args = append(args, likePattern(cond.Op, text))
		case OpIn:
			values, ok := cond.Value.([]interface{})
			if !ok {
				return "", nil, errs.InvalidArgument("condition in on %s requires a sequence", cond.Column)
			}
			if len(values) == 0 {
				continue
			}
			parts = append(parts, cond.Column+" IN ?")
			args = append(args, values)
		default:
			return "", nil, errs.InvalidArgument("unsupported operator %q", cond.Op)
		}
	}
	return strings.Join(parts, " AND "), args, nil
}

// utcValue 时间参数统一换算到 UTC，与落库时间保持同一时区
func utcValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.UTC()
	case *time.Time:
		if v == nil {
			return value
		}
		utc := v.UTC()
		return &utc
	}
	return value
}

// buildOrder 将排序列表翻译为 ORDER BY 子句内容
func buildOrder(orderBy OrderBy, columns columnSet) (string, error) {
	parts := make([]string, 0, len(orderBy))
	for _, item := range orderBy {
		if !columns.has(item.Column) {
			return "", errs.InvalidArgument("unknown column %q in order by", item.Column)
		}
		if item.Desc {
			parts = append(parts, item.Column+" DESC")
			continue
		}
		parts = append(parts, item.Column+" ASC")
	}
	return strings.Join(parts, ", "), nil
}

func likePattern(op Operator, text string) string {
	escaped := escapeLike(text)
	switch op {
	case OpPrefix:
		return escaped + "%"
	case OpSuffix:
		return "%" + escaped
	default:
		return "%" + escaped + "%"
	}
}

func escapeLike(text string) string {
	replacer := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return replacer.Replace(text)
}
