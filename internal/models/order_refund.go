package models

import "time"

// OrderRefund 退款申请表
type OrderRefund struct {
	ID            uint            `gorm:"primarykey" json:"id"`                                  // 主键
	OrderID       uint            `gorm:"index;not null" json:"order_id"`                        // 订单ID
	OrderItemIDs  JSONArray[uint] `gorm:"type:text" json:"order_item_ids"`                       // 退款的订单项ID列表
	Sn            string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"sn"`       // 退款编号
	UserID        uint            `gorm:"index;not null" json:"user_id"`                         // 申请人
	Reason        string          `gorm:"type:varchar(1024);not null;default:''" json:"reason"`  // 退款原因
	Amount        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`   // 退款金额
	Status        string          `gorm:"type:varchar(32);index;not null" json:"status"`         // 退款状态
	DealUserID    uint            `gorm:"not null;default:0" json:"deal_user_id"`                // 处理人
	DealTime      *time.Time      `json:"deal_time"`                                             // 处理时间
	DealReason    string          `gorm:"type:varchar(1024);not null;default:''" json:"deal_reason"`
	CreatedUserID uint            `gorm:"not null;default:0" json:"created_user_id"`
	CreatedTime   time.Time       `gorm:"not null" json:"created_time"`
	UpdatedTime   time.Time       `gorm:"not null" json:"updated_time"`
}

// TableName 指定表名
func (OrderRefund) TableName() string {
	return "biz_order_refund"
}
