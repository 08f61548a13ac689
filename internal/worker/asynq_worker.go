package worker

import (
	"context"
	"fmt"

	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/provider"
	"github.com/bizframe/internal/queue"
	"github.com/bizframe/internal/service"

	"github.com/hibiken/asynq"
)

// OrderBatcher 订单批量处理能力
type OrderBatcher interface {
	CloseOrders(ctx context.Context, actor service.Actor, limit int) (*service.BatchResult, error)
	FinishOrders(ctx context.Context, actor service.Actor, limit int) (*service.BatchResult, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	Orders OrderBatcher
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil || c.OrderService == nil {
		return &Consumer{}
	}
	return &Consumer{Orders: c.OrderService}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderCloseExpired, c.handleOrderBatch)
	mux.HandleFunc(queue.TaskOrderFinishSigned, c.handleOrderBatch)
}

// ProcessTask 实现 asynq.Handler，供进程内调度直接复用
func (c *Consumer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	return c.handleOrderBatch(ctx, task)
}

func (c *Consumer) handleOrderBatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Orders == nil || task == nil {
		logger.Debugw("worker_order_batch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseBatchJobPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_order_batch_unmarshal_failed", "task", task.Type(), "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	var result *service.BatchResult
	switch task.Type() {
	case queue.TaskOrderCloseExpired:
		result, err = c.Orders.CloseOrders(ctx, service.SystemActor, payload.Limit)
	case queue.TaskOrderFinishSigned:
		result, err = c.Orders.FinishOrders(ctx, service.SystemActor, payload.Limit)
	default:
		logger.Warnw("worker_order_batch_unknown_task", "task", task.Type())
		return fmt.Errorf("%w: unknown task %s", asynq.SkipRetry, task.Type())
	}
	if err != nil {
		logger.Warnw("worker_order_batch_failed", "task", task.Type(), "error", err)
		return err
	}
	logger.Infow("worker_order_batch_done",
		"task", task.Type(),
		"scanned", result.Scanned,
		"succeeded", len(result.Succeeded),
		"skipped", len(result.Skipped),
		"failed", len(result.Failures),
	)
	return nil
}
