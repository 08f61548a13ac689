package repository

import (
	"context"

	"github.com/bizframe/internal/models"

	"gorm.io/gorm"
)

// orderAliases 订单查询键
var orderAliases = Aliases{
	"keyword":    {Column: "title", Op: OpContains},
	"sn_pre":     {Column: "sn", Op: OpPrefix},
	"statuses":   {Column: "status", Op: OpIn},
	"user_ids":   {Column: "user_id", Op: OpIn},
	"seller_ids": {Column: "seller_id", Op: OpIn},
}

// OrderRepository 订单存储
type OrderRepository struct {
	*Store[models.Order]
}

// NewOrderRepository 创建订单存储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{Store: NewStore[models.Order](db, orderAliases)}
}

// WithTx 绑定事务
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	if tx == nil {
		return r
	}
	return &OrderRepository{Store: r.Store.WithTx(tx)}
}

// GetBySn 按订单编号查询
func (r *OrderRepository) GetBySn(ctx context.Context, sn string, opts ...GetOption) (*models.Order, error) {
	return r.GetBy(ctx, "sn", sn, opts...)
}

// orderItemAliases 订单项查询键
var orderItemAliases = Aliases{
	"order_ids": {Column: "order_id", Op: OpIn},
	"statuses":  {Column: "status", Op: OpIn},
	"keyword":   {Column: "title", Op: OpContains},
}

// OrderItemRepository 订单项存储
type OrderItemRepository struct {
	*Store[models.OrderItem]
}

// NewOrderItemRepository 创建订单项存储
func NewOrderItemRepository(db *gorm.DB) *OrderItemRepository {
	return &OrderItemRepository{Store: NewStore[models.OrderItem](db, orderItemAliases)}
}

// WithTx 绑定事务
func (r *OrderItemRepository) WithTx(tx *gorm.DB) *OrderItemRepository {
	if tx == nil {
		return r
	}
	return &OrderItemRepository{Store: r.Store.WithTx(tx)}
}

// FindByOrderID 查询订单下的全部订单项
func (r *OrderItemRepository) FindByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	return r.FindBy(ctx, "order_id", orderID, nil)
}

// OrderItemDeductRepository 抵扣明细存储
type OrderItemDeductRepository struct {
	*Store[models.OrderItemDeduct]
}

// NewOrderItemDeductRepository 创建抵扣明细存储
func NewOrderItemDeductRepository(db *gorm.DB) *OrderItemDeductRepository {
	return &OrderItemDeductRepository{Store: NewStore[models.OrderItemDeduct](db, nil)}
}

// WithTx 绑定事务
func (r *OrderItemDeductRepository) WithTx(tx *gorm.DB) *OrderItemDeductRepository {
	if tx == nil {
		return r
	}
	return &OrderItemDeductRepository{Store: r.Store.WithTx(tx)}
}

// FindByItemID 查询订单项的抵扣明细
func (r *OrderItemDeductRepository) FindByItemID(ctx context.Context, itemID uint) ([]models.OrderItemDeduct, error) {
	return r.FindBy(ctx, "item_id", itemID, nil)
}

// FindByOrderID 查询订单的全部抵扣明细（含订单级与订单项级）
func (r *OrderItemDeductRepository) FindByOrderID(ctx context.Context, orderID uint) ([]models.OrderItemDeduct, error) {
	return r.FindBy(ctx, "order_id", orderID, nil)
}

// OrderLogRepository 订单日志存储
type OrderLogRepository struct {
	*Store[models.OrderLog]
}

// NewOrderLogRepository 创建订单日志存储
func NewOrderLogRepository(db *gorm.DB) *OrderLogRepository {
	return &OrderLogRepository{Store: NewStore[models.OrderLog](db, nil)}
}

// FindByOrderID 按时间顺序查询订单日志
func (r *OrderLogRepository) FindByOrderID(ctx context.Context, orderID uint) ([]models.OrderLog, error) {
	return r.FindBy(ctx, "order_id", orderID, OrderBy{Asc("id")})
}

// OrderRefundRepository 退款存储
type OrderRefundRepository struct {
	*Store[models.OrderRefund]
}

// NewOrderRefundRepository 创建退款存储
func NewOrderRefundRepository(db *gorm.DB) *OrderRefundRepository {
	return &OrderRefundRepository{Store: NewStore[models.OrderRefund](db, Aliases{
		"statuses": {Column: "status", Op: OpIn},
	})}
}
