package models

import (
	"time"

	"gorm.io/datatypes"
)

// Order 订单表
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Sn            string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"sn"`           // 订单编号
	Title         string         `gorm:"type:varchar(255);not null;default:''" json:"title"`        // 订单标题
	UserID        uint           `gorm:"index;not null" json:"user_id"`                             // 买家ID
	SellerID      uint           `gorm:"index;not null;default:0" json:"seller_id"`                 // 卖家ID
	PriceType     string         `gorm:"type:varchar(32);not null;default:''" json:"price_type"`    // 价格类型（币种）
	Status        string         `gorm:"type:varchar(32);index;not null" json:"status"`             // 订单状态
	PriceAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 订单原价
	PayAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"pay_amount"`   // 应付金额
	TradeSn       string         `gorm:"type:varchar(64);not null;default:''" json:"trade_sn"`      // 支付流水号
	Callback      string         `gorm:"type:varchar(1024);not null;default:''" json:"callback"`    // 回调地址
	Source        string         `gorm:"type:varchar(64);not null;default:''" json:"source"`        // 订单来源
	CreatedReason string         `gorm:"type:varchar(255);not null;default:''" json:"created_reason"`
	CreatedUserID uint           `gorm:"not null;default:0" json:"created_user_id"`  // 下单操作人
	PayTime       *time.Time     `gorm:"index" json:"pay_time"`                      // 支付时间
	SignedTime    *time.Time     `json:"signed_time"`                                // 签收时间
	SignedData    datatypes.JSON `gorm:"type:json" json:"signed_data,omitempty"`     // 签收数据
	CloseTime     *time.Time     `json:"close_time"`                                 // 关闭时间
	FinishTime    *time.Time     `json:"finish_time"`                                // 完成时间
	CreatedTime   time.Time      `gorm:"index;not null" json:"created_time"`         // 创建时间
	UpdatedTime   time.Time      `gorm:"not null" json:"updated_time"`               // 更新时间

	Items   []OrderItem       `gorm:"-" json:"items,omitempty"`   // 订单项
	Deducts []OrderItemDeduct `gorm:"-" json:"deducts,omitempty"` // 订单级抵扣
}

// TableName 指定表名
func (Order) TableName() string {
	return "biz_order"
}
