package repository

import "gorm.io/gorm"

// applyOffsetLimit 应用偏移量与条数，limit 非正数时不限制条数。
func applyOffsetLimit(query *gorm.DB, offset, limit int) *gorm.DB {
	if query == nil {
		return query
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

// PageToOffset 将页码转换为偏移量，统一处理非法页码。
func PageToOffset(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize, pageSize
}
