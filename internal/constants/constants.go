package constants

// 订单状态常量
const (
	OrderStatusCreated    = "created"
	OrderStatusPaid       = "paid"
	OrderStatusShipping   = "shipping"
	OrderStatusSigned     = "signed"
	OrderStatusSignedFail = "signed_fail"
	OrderStatusFinish     = "finish"
	OrderStatusClose      = "close"
)

// 订单生命周期事件
const (
	EventOrderCreated    = "order.created"
	EventOrderPaid       = "order.paid"
	EventOrderClosed     = "order.closed"
	EventOrderFinished   = "order.finished"
	EventOrderSigned     = "order." + OrderStatusSigned
	EventOrderSignedFail = "order." + OrderStatusSignedFail
)

// 抵扣类型常量
const (
	DeductTypeCoupon   = "coupon"
	DeductTypePoint    = "point"
	DeductTypeDiscount = "discount"
)

// 退款状态常量
const (
	RefundStatusCreated  = "created"
	RefundStatusRefused  = "refused"
	RefundStatusRefunded = "refunded"
)

// 事件分发驱动
const (
	EventDriverNone  = "none"
	EventDriverLog   = "log"
	EventDriverRedis = "redis"
)

// 调度驱动
const (
	SchedulerDriverAsynq = "asynq"
	SchedulerDriverCron  = "cron"
)

// 队列与任务常量
const (
	QueueDefault          = "default"
	TaskOrderCloseExpired = "order:close_expired"
	TaskOrderFinishSigned = "order:finish_signed"
)
