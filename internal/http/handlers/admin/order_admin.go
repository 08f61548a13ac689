package admin

import (
	"context"
	"errors"

	handlershared "github.com/bizframe/internal/http/handlers/shared"
	"github.com/bizframe/internal/http/response"
	"github.com/bizframe/internal/queue"
	"github.com/bizframe/internal/repository"
	"github.com/bizframe/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	service.CreateOrderInput
	Items []service.CreateOrderItemInput `json:"items"`
}

// OrderDataRequest 状态变更附带的业务数据
type OrderDataRequest struct {
	Data interface{} `json:"data"`
}

// BatchJobRequest 批量任务触发请求
type BatchJobRequest struct {
	Limit int  `json:"limit"`
	Async bool `json:"async"` // 投递到异步队列
}

// BatchJobQueued 异步投递结果
type BatchJobQueued struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

// AdminCreateOrder 创建订单
func (h *Handler) AdminCreateOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	order, err := h.OrderService.CreateOrder(c.Request.Context(), actor, req.CreateOrderInput, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminListOrders 订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	orderBy, err := parseOrderBy(c)
	if err != nil {
		respondError(c, err)
		return
	}
	conditions := parseQueryConditions(c)

	ctx := c.Request.Context()
	total, err := h.OrderService.CountOrders(ctx, conditions)
	if err != nil {
		respondError(c, err)
		return
	}
	offset, limit := repository.PageToOffset(page, pageSize)
	orders, err := h.OrderService.SearchOrders(ctx, conditions, orderBy, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 订单详情（含订单项）
func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	order, err := h.OrderService.GetOrder(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.OrderService.FindOrderItemsByOrderID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	order.Items = items
	response.Success(c, order)
}

// AdminGetOrderBySn 按订单编号查询
func (h *Handler) AdminGetOrderBySn(c *gin.Context) {
	lock := c.Query("lock") == "1" || c.Query("lock") == "true"
	order, err := h.OrderService.GetOrderBySn(c.Request.Context(), c.Param("sn"), lock)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminListOrderItemsByOrder 订单下的订单项
func (h *Handler) AdminListOrderItemsByOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.OrderService.FindOrderItemsByOrderID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, items)
}

// AdminListOrderLogs 订单操作日志
func (h *Handler) AdminListOrderLogs(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	logs, err := h.OrderService.FindOrderLogsByOrderID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, logs)
}

// AdminListOrderItems 订单项列表
func (h *Handler) AdminListOrderItems(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	orderBy, err := parseOrderBy(c)
	if err != nil {
		respondError(c, err)
		return
	}
	conditions := parseQueryConditions(c)

	ctx := c.Request.Context()
	total, err := h.OrderService.CountOrderItems(ctx, conditions)
	if err != nil {
		respondError(c, err)
		return
	}
	offset, limit := repository.PageToOffset(page, pageSize)
	items, err := h.OrderService.SearchOrderItems(ctx, conditions, orderBy, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// AdminListOrderItemDeducts 订单项抵扣明细
func (h *Handler) AdminListOrderItemDeducts(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	deducts, err := h.OrderService.FindOrderItemDeductsByItemID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, deducts)
}

// AdminGetOrderRefund 退款申请详情
func (h *Handler) AdminGetOrderRefund(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	refund, err := h.OrderService.GetOrderRefund(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, refund)
}

// AdminSetOrderPaid 支付回调
func (h *Handler) AdminSetOrderPaid(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.PaidInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorWithMsg(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	order, err := h.OrderService.SetOrderPaid(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, order)
}

type orderDataAction func(*service.OrderService, *gin.Context, service.Actor, uint, interface{}) (interface{}, error)

func (h *Handler) handleOrderDataAction(c *gin.Context, action orderDataAction) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req OrderDataRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorWithMsg(c, response.CodeBadRequest, "invalid request body", nil)
			return
		}
	}
	result, err := action(h.OrderService, c, actor, id, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// AdminSetOrderShipping 标记发货
func (h *Handler) AdminSetOrderShipping(c *gin.Context) {
	h.handleOrderDataAction(c, func(s *service.OrderService, c *gin.Context, actor service.Actor, id uint, data interface{}) (interface{}, error) {
		return s.SetOrderShipping(c.Request.Context(), actor, id, data)
	})
}

// AdminSetOrderSigned 签收成功
func (h *Handler) AdminSetOrderSigned(c *gin.Context) {
	h.handleOrderDataAction(c, func(s *service.OrderService, c *gin.Context, actor service.Actor, id uint, data interface{}) (interface{}, error) {
		return s.SetOrderSignedSuccess(c.Request.Context(), actor, id, data)
	})
}

// AdminSetOrderSignedFail 签收失败
func (h *Handler) AdminSetOrderSignedFail(c *gin.Context) {
	h.handleOrderDataAction(c, func(s *service.OrderService, c *gin.Context, actor service.Actor, id uint, data interface{}) (interface{}, error) {
		return s.SetOrderSignedFail(c.Request.Context(), actor, id, data)
	})
}

// AdminCloseOrder 关闭订单
func (h *Handler) AdminCloseOrder(c *gin.Context) {
	h.handleOrderDataAction(c, func(s *service.OrderService, c *gin.Context, actor service.Actor, id uint, _ interface{}) (interface{}, error) {
		return s.CloseOrder(c.Request.Context(), actor, id)
	})
}

// AdminFinishOrder 完成订单
func (h *Handler) AdminFinishOrder(c *gin.Context) {
	h.handleOrderDataAction(c, func(s *service.OrderService, c *gin.Context, actor service.Actor, id uint, _ interface{}) (interface{}, error) {
		return s.FinishOrder(c.Request.Context(), actor, id)
	})
}

// AdminCloseExpiredOrders 批量关闭超时未支付订单
func (h *Handler) AdminCloseExpiredOrders(c *gin.Context) {
	h.runBatchJob(c, queue.TaskOrderCloseExpired, h.OrderService.CloseOrders)
}

// AdminFinishSignedOrders 批量完成已签收订单
func (h *Handler) AdminFinishSignedOrders(c *gin.Context) {
	h.runBatchJob(c, queue.TaskOrderFinishSigned, h.OrderService.FinishOrders)
}

type batchFunc func(ctx context.Context, actor service.Actor, limit int) (*service.BatchResult, error)

// runBatchJob 同步执行批量任务，或在 async 时投递到队列
func (h *Handler) runBatchJob(c *gin.Context, taskType string, run batchFunc) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req BatchJobRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErrorWithMsg(c, response.CodeBadRequest, "invalid request body", nil)
			return
		}
	}
	if req.Limit < 0 {
		respondErrorWithMsg(c, response.CodeBadRequest, "limit must not be negative", nil)
		return
	}

	if req.Async {
		info, err := h.QueueClient.EnqueueBatchJob(taskType, queue.BatchJobPayload{Limit: req.Limit})
		if err != nil {
			if errors.Is(err, queue.ErrQueueDisabled) {
				respondErrorWithMsg(c, response.CodeBadRequest, "queue is disabled", nil)
				return
			}
			respondErrorWithMsg(c, response.CodeInternal, "enqueue batch job failed", err)
			return
		}
		requestLog(c).Infow("admin_batch_job_enqueued", "task", taskType, "task_id", info.ID, "limit", req.Limit)
		response.Success(c, BatchJobQueued{TaskID: info.ID, Queue: info.Queue})
		return
	}

	result, err := run(c.Request.Context(), actor, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}
