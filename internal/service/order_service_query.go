package service

import (
	"context"
	"strings"

	"github.com/bizframe/internal/cache"
	"github.com/bizframe/internal/errs"
	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/models"
	"github.com/bizframe/internal/repository"
)

// GetOrder 按 ID 获取订单
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orderRepo.Get(ctx, id)
	if err != nil {
		return nil, errs.Classify(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderBySn 按订单编号获取订单；lock 为 true 时在独立事务中加行锁读取
func (s *OrderService) GetOrderBySn(ctx context.Context, sn string, lock bool) (*models.Order, error) {
	sn = strings.TrimSpace(sn)
	if sn == "" {
		return nil, ErrOrderSnRequired
	}
	if lock {
		var order *models.Order
		err := s.withinTx(ctx, func(tx *orderTx) error {
			row, err := tx.orders.GetBySn(ctx, sn, repository.WithLock())
			order = row
			return err
		})
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
		return order, nil
	}

	if cached, hit, err := cache.GetOrderSnapshot(ctx, sn); err != nil {
		logger.Ctx(ctx).Debugw("order_snapshot_read_failed", "order_sn", sn, "error", err)
	} else if hit {
		return cached, nil
	}
	order, err := s.orderRepo.GetBySn(ctx, sn)
	if err != nil {
		return nil, errs.Classify(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := cache.SetOrderSnapshot(ctx, order); err != nil {
		logger.Ctx(ctx).Debugw("order_snapshot_write_failed", "order_sn", sn, "error", err)
	}
	return order, nil
}

// SearchOrders 按条件分页查询订单
func (s *OrderService) SearchOrders(ctx context.Context, conditions map[string]interface{}, orderBy repository.OrderBy, offset, limit int) ([]models.Order, error) {
	rows, err := s.orderRepo.SearchConditions(ctx, conditions, orderBy, offset, limit)
	return rows, errs.Classify(err)
}

// CountOrders 按条件统计订单
func (s *OrderService) CountOrders(ctx context.Context, conditions map[string]interface{}) (int64, error) {
	total, err := s.orderRepo.CountConditions(ctx, conditions)
	return total, errs.Classify(err)
}

// SearchOrderItems 按条件分页查询订单项
func (s *OrderService) SearchOrderItems(ctx context.Context, conditions map[string]interface{}, orderBy repository.OrderBy, offset, limit int) ([]models.OrderItem, error) {
	rows, err := s.itemRepo.SearchConditions(ctx, conditions, orderBy, offset, limit)
	return rows, errs.Classify(err)
}

// CountOrderItems 按条件统计订单项
func (s *OrderService) CountOrderItems(ctx context.Context, conditions map[string]interface{}) (int64, error) {
	total, err := s.itemRepo.CountConditions(ctx, conditions)
	return total, errs.Classify(err)
}

// FindOrdersByIDs 按 ID 集合查询订单
func (s *OrderService) FindOrdersByIDs(ctx context.Context, ids []uint) ([]models.Order, error) {
	rows, err := s.orderRepo.FindByIDs(ctx, ids)
	return rows, errs.Classify(err)
}

// GetOrderRefund 获取退款申请
func (s *OrderService) GetOrderRefund(ctx context.Context, id uint) (*models.OrderRefund, error) {
	refund, err := s.refundRepo.Get(ctx, id)
	if err != nil {
		return nil, errs.Classify(err)
	}
	if refund == nil {
		return nil, ErrOrderRefundNotFound
	}
	return refund, nil
}

// FindOrderItemsByOrderID 查询订单下的订单项
func (s *OrderService) FindOrderItemsByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	rows, err := s.itemRepo.FindByOrderID(ctx, orderID)
	return rows, errs.Classify(err)
}

// FindOrderItemDeductsByItemID 查询订单项的抵扣明细
func (s *OrderService) FindOrderItemDeductsByItemID(ctx context.Context, itemID uint) ([]models.OrderItemDeduct, error) {
	rows, err := s.deductRepo.FindByItemID(ctx, itemID)
	return rows, errs.Classify(err)
}

// FindOrderLogsByOrderID 按时间顺序查询订单操作日志
func (s *OrderService) FindOrderLogsByOrderID(ctx context.Context, orderID uint) ([]models.OrderLog, error) {
	rows, err := s.logRepo.FindByOrderID(ctx, orderID)
	return rows, errs.Classify(err)
}
