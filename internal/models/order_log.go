package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrderLog 订单操作日志，只追加
type OrderLog struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	OrderID     uint           `gorm:"index;not null" json:"order_id"`
	Status      string         `gorm:"type:varchar(32);not null" json:"status"` // 操作后的订单状态
	UserID      uint           `gorm:"not null;default:0" json:"user_id"`       // 操作人
	DealData    datatypes.JSON `gorm:"type:json" json:"deal_data,omitempty"`    // 操作附带数据
	CreatedTime time.Time      `gorm:"index;not null" json:"created_time"`
	UpdatedTime time.Time      `gorm:"not null" json:"updated_time"`
}

// TableName 指定表名
func (OrderLog) TableName() string {
	return "biz_order_log"
}
