package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"time"

	"github.com/bizframe/internal/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const (
	columnCreatedTime = "created_time"
	columnUpdatedTime = "updated_time"
)

// GetOption 单行查询选项
type GetOption func(*getOptions)

type getOptions struct {
	lock bool
}

// WithLock 加行锁（SELECT ... FOR UPDATE），只能在事务内使用
func WithLock() GetOption {
	return func(o *getOptions) {
		o.lock = true
	}
}

// LockIf 按需加锁
func LockIf(lock bool) GetOption {
	return func(o *getOptions) {
		o.lock = o.lock || lock
	}
}

// Store 单表通用存储
type Store[T any] struct {
	db         *gorm.DB
	schema     *schema.Schema
	columns    columnSet
	primaryKey string
	aliases    Aliases
	parseErr   error
}

// NewStore 创建通用存储，aliases 声明额外的查询键
func NewStore[T any](db *gorm.DB, aliases Aliases) *Store[T] {
	s := &Store[T]{db: db, aliases: aliases, columns: columnSet{}}
	if db == nil {
		s.parseErr = errors.New("store db is nil")
		return s
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		s.parseErr = err
		return s
	}
	s.schema = stmt.Schema
	for _, name := range stmt.Schema.DBNames {
		s.columns[name] = struct{}{}
	}
	if stmt.Schema.PrioritizedPrimaryField != nil {
		s.primaryKey = stmt.Schema.PrioritizedPrimaryField.DBName
	} else {
		s.parseErr = errors.New("store model has no primary key: " + stmt.Schema.Name)
	}
	for key, alias := range aliases {
		if !s.columns.has(alias.Column) {
			s.parseErr = errors.New("alias " + key + " refers to unknown column " + alias.Column)
		}
	}
	return s
}

// WithTx 绑定事务
func (s *Store[T]) WithTx(tx *gorm.DB) *Store[T] {
	if tx == nil {
		return s
	}
	clone := *s
	clone.db = tx
	return &clone
}

// DB 返回当前绑定的连接
func (s *Store[T]) DB() *gorm.DB {
	return s.db
}

// Table 表名
func (s *Store[T]) Table() string {
	if s.schema == nil {
		return ""
	}
	return s.schema.Table
}

// HasColumn 判断列是否存在
func (s *Store[T]) HasColumn(column string) bool {
	return s.columns.has(column)
}

// Transactional 在事务中执行 fn
func (s *Store[T]) Transactional(ctx context.Context, fn func(tx *Store[T]) error) error {
	if s.parseErr != nil {
		return s.parseErr
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}

// Transact 在事务中执行 fn 并返回其结果，fn 出错时回滚
func Transact[T, R any](ctx context.Context, s *Store[T], fn func(tx *Store[T]) (R, error)) (R, error) {
	var result R
	err := s.Transactional(ctx, func(tx *Store[T]) error {
		value, err := fn(tx)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// Create 写入一行，并返回从库中重新读取的结果
func (s *Store[T]) Create(ctx context.Context, row *T) (*T, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	if row == nil {
		return nil, errs.InvalidArgument("create %s: row is nil", s.Table())
	}
	rv := reflect.ValueOf(row).Elem()
	if err := s.normalizeTimes(ctx, rv); err != nil {
		return nil, err
	}
	now := s.now()
	for _, column := range []string{columnCreatedTime, columnUpdatedTime} {
		if field := s.schema.LookUpField(column); field != nil {
			if err := field.Set(ctx, rv, now); err != nil {
				return nil, err
			}
		}
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	id, zero := s.schema.PrioritizedPrimaryField.ValueOf(ctx, rv)
	if zero {
		return row, nil
	}
	saved, err := s.getBy(ctx, s.primaryKey, id, false)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return row, nil
	}
	return saved, nil
}

// Get 按主键查询，不存在时返回 nil, nil
func (s *Store[T]) Get(ctx context.Context, id uint, opts ...GetOption) (*T, error) {
	return s.GetBy(ctx, s.primaryKey, id, opts...)
}

// GetBy 按唯一列查询单行，不存在时返回 nil, nil
func (s *Store[T]) GetBy(ctx context.Context, column string, value interface{}, opts ...GetOption) (*T, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	if !s.columns.has(column) {
		return nil, errs.InvalidArgument("unknown column %q", column)
	}
	options := getOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.lock && !inTransaction(s.db) {
		return nil, errs.InvalidArgument("lock on %s requires an active transaction", s.Table())
	}
	return s.getBy(ctx, column, value, options.lock)
}

func (s *Store[T]) getBy(ctx context.Context, column string, value interface{}, lock bool) (*T, error) {
	query := s.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row T
	err := query.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Update 局部更新并刷新 updated_time，返回更新后的整行；记录不存在时返回 NotFound
func (s *Store[T]) Update(ctx context.Context, id uint, fields map[string]interface{}) (*T, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	values := make(map[string]interface{}, len(fields)+1)
	for column, value := range fields {
		field := s.schema.LookUpField(column)
		if field == nil || field.DBName == "" || field.DBName == s.primaryKey {
			return nil, errs.InvalidArgument("cannot update column %q of %s", column, s.Table())
		}
		encoded, err := encodeColumnValue(field, value)
		if err != nil {
			return nil, err
		}
		values[field.DBName] = encoded
	}
	if s.columns.has(columnUpdatedTime) {
		if _, ok := values[columnUpdatedTime]; !ok {
			values[columnUpdatedTime] = s.now()
		}
	}
	if len(values) > 0 {
		err := s.db.WithContext(ctx).Model(new(T)).
			Where(clause.Eq{Column: clause.Column{Name: s.primaryKey}, Value: id}).
			UpdateColumns(values).Error
		if err != nil {
			return nil, err
		}
	}
	row, err := s.getBy(ctx, s.primaryKey, id, false)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errs.NotFound("%s #%d not found", s.Table(), id)
	}
	return row, nil
}

// Delete 删除一行，返回删除的行数
func (s *Store[T]) Delete(ctx context.Context, id uint) (int64, error) {
	if s.parseErr != nil {
		return 0, s.parseErr
	}
	result := s.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: s.primaryKey}, Value: id}).
		Delete(new(T))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Wave 在一条语句内对多行的计数列做增减，返回受影响行数
func (s *Store[T]) Wave(ctx context.Context, ids []uint, diffs map[string]int64) (int64, error) {
	if s.parseErr != nil {
		return 0, s.parseErr
	}
	if len(ids) == 0 || len(diffs) == 0 {
		return 0, nil
	}
	columns := make([]string, 0, len(diffs))
	for column := range diffs {
		if !s.columns.has(column) || column == s.primaryKey {
			return 0, errs.InvalidArgument("cannot wave column %q of %s", column, s.Table())
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)
	values := make(map[string]interface{}, len(columns))
	for _, column := range columns {
		values[column] = gorm.Expr(column+" + ?", diffs[column])
	}
	result := s.db.WithContext(ctx).Model(new(T)).
		Where(clause.IN{Column: clause.Column{Name: s.primaryKey}, Values: uintValues(ids)}).
		UpdateColumns(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Search 按条件查询
func (s *Store[T]) Search(ctx context.Context, filter Filter, orderBy OrderBy, offset, limit int) ([]T, error) {
	query, err := s.filtered(ctx, filter)
	if err != nil {
		return nil, err
	}
	order, err := buildOrder(orderBy, s.columns)
	if err != nil {
		return nil, err
	}
	if order != "" {
		query = query.Order(order)
	}
	rows := make([]T, 0)
	if err := applyOffsetLimit(query, offset, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count 按条件计数
func (s *Store[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	query, err := s.filtered(ctx, filter)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SearchConditions 按键值条件查询
func (s *Store[T]) SearchConditions(ctx context.Context, conditions map[string]interface{}, orderBy OrderBy, offset, limit int) ([]T, error) {
	filter, err := s.ParseConditions(conditions)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, filter, orderBy, offset, limit)
}

// CountConditions 按键值条件计数
func (s *Store[T]) CountConditions(ctx context.Context, conditions map[string]interface{}) (int64, error) {
	filter, err := s.ParseConditions(conditions)
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, filter)
}

// ParseConditions 使用本存储声明的别名解析键值条件
func (s *Store[T]) ParseConditions(conditions map[string]interface{}) (Filter, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	return ParseConditions(conditions, s.aliases, s.columns, s.primaryKey)
}

// FindByIDs 按主键集合查询，按主键升序返回
func (s *Store[T]) FindByIDs(ctx context.Context, ids []uint) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return s.Search(ctx, Filter{In(s.primaryKey, ids)}, OrderBy{Asc(s.primaryKey)}, 0, 0)
}

// FindBy 按单列等值查询
func (s *Store[T]) FindBy(ctx context.Context, column string, value interface{}, orderBy OrderBy) ([]T, error) {
	if len(orderBy) == 0 {
		orderBy = OrderBy{Asc(s.primaryKey)}
	}
	return s.Search(ctx, Filter{Eq(column, value)}, orderBy, 0, 0)
}

func (s *Store[T]) filtered(ctx context.Context, filter Filter) (*gorm.DB, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	where, args, err := buildWhere(dbDialectName(s.db), filter, s.columns)
	if err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(new(T))
	if where != "" {
		query = query.Where(where, args...)
	}
	return query, nil
}

func (s *Store[T]) now() time.Time {
	if s.db != nil && s.db.NowFunc != nil {
		return s.db.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// normalizeTimes 将行内时间字段换算到 UTC
func (s *Store[T]) normalizeTimes(ctx context.Context, rv reflect.Value) error {
	for _, field := range s.schema.Fields {
		if field.DBName == "" || (field.FieldType != timeType && field.FieldType != timePtrType) {
			continue
		}
		value, zero := field.ValueOf(ctx, rv)
		if zero {
			continue
		}
		if err := field.Set(ctx, rv, utcValue(value)); err != nil {
			return err
		}
	}
	return nil
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	timePtrType = reflect.TypeOf(&time.Time{})
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// encodeColumnValue 让写入值统一走列类型的编码：时间换算到 UTC，
// 实现了 Valuer 的数组列接受任意序列（如 []interface{}、[]uint）并转换为列类型
func encodeColumnValue(field *schema.Field, value interface{}) (interface{}, error) {
	if value == nil || field == nil || field.FieldType == nil {
		return value, nil
	}
	value = utcValue(value)
	rv := reflect.ValueOf(value)
	if rv.Type() == field.FieldType {
		return value, nil
	}
	if field.FieldType.Kind() != reflect.Slice || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return value, nil
	}
	if rv.Kind() == reflect.Slice && rv.Type().ConvertibleTo(field.FieldType) {
		return rv.Convert(field.FieldType).Interface(), nil
	}
	if !field.FieldType.Implements(valuerType) {
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errs.InvalidArgument("column %s: cannot encode %T: %v", field.DBName, value, err)
	}
	target := reflect.New(field.FieldType)
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return nil, errs.InvalidArgument("column %s: %T does not match column type: %v", field.DBName, value, err)
	}
	return target.Elem().Interface(), nil
}

func uintValues(ids []uint) []interface{} {
	values := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	return values
}
