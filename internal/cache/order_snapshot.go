package cache

import (
	"context"
	"strings"
	"time"

	"github.com/bizframe/internal/models"
)

const orderSnapshotTTL = 5 * time.Minute

func orderSnapshotKey(sn string) string {
	return "order:sn:" + strings.TrimSpace(sn)
}

// GetOrderSnapshot 读取订单快照
func GetOrderSnapshot(ctx context.Context, sn string) (*models.Order, bool, error) {
	if strings.TrimSpace(sn) == "" {
		return nil, false, nil
	}
	var order models.Order
	hit, err := GetJSON(ctx, orderSnapshotKey(sn), &order)
	if err != nil || !hit {
		return nil, false, err
	}
	return &order, true, nil
}

// SetOrderSnapshot 写入订单快照
func SetOrderSnapshot(ctx context.Context, order *models.Order) error {
	if order == nil || order.Sn == "" {
		return nil
	}
	return SetJSON(ctx, orderSnapshotKey(order.Sn), order, orderSnapshotTTL)
}

// DeleteOrderSnapshot 订单状态变更后清理快照
func DeleteOrderSnapshot(ctx context.Context, sn string) error {
	if strings.TrimSpace(sn) == "" {
		return nil
	}
	return Del(ctx, orderSnapshotKey(sn))
}
