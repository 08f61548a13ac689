package service

import (
	"errors"

	"github.com/bizframe/internal/errs"
)

// 订单服务错误
var (
	ErrNotLoggedIn          = errs.AccessDenied("user is not login")
	ErrOrderNotFound        = errs.NotFound("order not found")
	ErrOrderRefundNotFound  = errs.NotFound("order refund not found")
	ErrOrderUserRequired    = errs.InvalidArgument("user_id is required in order")
	ErrOrderItemsRequired   = errs.InvalidArgument("order items are required")
	ErrOrderItemInvalid     = errs.InvalidArgument("args is invalid")
	ErrOrderDeductInvalid   = errs.InvalidArgument("deduct amount is invalid")
	ErrOrderSnRequired      = errs.InvalidArgument("order_sn is required")
	ErrOrderStatusNotCreate = errs.AccessDenied("status is not created")
	ErrOrderStatusNotPaid   = errs.AccessDenied("status is not paid")
	ErrOrderStatusNotSigned = errs.AccessDenied("status is not signed")
)

func isAccessDenied(err error) bool {
	return errors.Is(err, errs.ErrAccessDenied)
}
