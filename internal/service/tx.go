package service

import (
	"context"

	"github.com/bizframe/internal/errs"
	"github.com/bizframe/internal/repository"

	"gorm.io/gorm"
)

// orderTx 绑定到同一事务的订单相关存储
type orderTx struct {
	orders  *repository.OrderRepository
	items   *repository.OrderItemRepository
	deducts *repository.OrderItemDeductRepository
}

// withinTx 在单个事务内执行 fn；出错或 panic 时回滚。
// AccessDenied / InvalidArgument / NotFound 原样返回，其余错误转换为服务错误。
func (s *OrderService) withinTx(ctx context.Context, fn func(tx *orderTx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Service("%v", r)
		}
	}()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&orderTx{
			orders:  s.orderRepo.WithTx(tx),
			items:   s.itemRepo.WithTx(tx),
			deducts: s.deductRepo.WithTx(tx),
		})
	})
	return errs.Classify(err)
}
