package models

import "time"

// OrderItemDeduct 订单抵扣明细表，创建后不可修改
type OrderItemDeduct struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID      uint      `gorm:"index;not null" json:"order_id"`                             // 订单ID
	ItemID       uint      `gorm:"index;not null;default:0" json:"item_id"`                    // 订单项ID，订单级抵扣为 0
	DeductType   string    `gorm:"type:varchar(64);not null;default:''" json:"deduct_type"`    // 抵扣类型（coupon/point/...）
	DeductID     uint      `gorm:"not null;default:0" json:"deduct_id"`                        // 抵扣来源ID
	DeductAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"deduct_amount"` // 抵扣金额
	SellerID     uint      `gorm:"not null;default:0" json:"seller_id"`                        // 卖家ID
	UserID       uint      `gorm:"not null;default:0" json:"user_id"`                          // 买家ID
	CreatedTime  time.Time `gorm:"not null" json:"created_time"`                               // 创建时间
	UpdatedTime  time.Time `gorm:"not null" json:"updated_time"`                               // 更新时间
}

// TableName 指定表名
func (OrderItemDeduct) TableName() string {
	return "biz_order_item_deduct"
}
