package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrderItem 订单项表
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                            // 订单ID
	Sn          string         `gorm:"type:varchar(64);index;not null" json:"sn"`                 // 订单项编号
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`                   // 商品标题
	TargetID    uint           `gorm:"index:idx_order_item_target;not null" json:"target_id"`     // 商品ID
	TargetType  string         `gorm:"type:varchar(64);index:idx_order_item_target;not null" json:"target_type"`
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 原价
	PayAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"pay_amount"`   // 应付金额
	Status      string         `gorm:"type:varchar(32);index;not null" json:"status"`             // 状态，随订单流转
	SellerID    uint           `gorm:"not null;default:0" json:"seller_id"`                       // 卖家ID
	UserID      uint           `gorm:"index;not null" json:"user_id"`                             // 买家ID
	PayTime     *time.Time     `json:"pay_time"`                                                  // 支付时间
	SignedTime  *time.Time     `json:"signed_time"`                                               // 签收时间
	SignedData  datatypes.JSON `gorm:"type:json" json:"signed_data,omitempty"`                    // 签收数据
	CloseTime   *time.Time     `json:"close_time"`                                                // 关闭时间
	FinishTime  *time.Time     `json:"finish_time"`                                               // 完成时间
	CreatedTime time.Time      `gorm:"not null" json:"created_time"`                              // 创建时间
	UpdatedTime time.Time      `gorm:"not null" json:"updated_time"`                              // 更新时间

	Deducts []OrderItemDeduct `gorm:"-" json:"deducts,omitempty"` // 订单项抵扣
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "biz_order_item"
}
