// Package scheduler 定时任务调度门面。
//
// Scheduler 只做转发，具体调度由 Service 实现：AsynqService 通过 asynq 的
// 周期任务投递到队列，CronService 在进程内按 cron 表达式直接执行。
package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/constants"
	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/queue"

	"github.com/hibiken/asynq"
)

var (
	// ErrJobNameRequired 任务名称为空
	ErrJobNameRequired = errors.New("job name is required")
	// ErrJobTaskRequired 任务类型为空
	ErrJobTaskRequired = errors.New("job task type is required")
	// ErrJobExists 任务名称重复
	ErrJobExists = errors.New("job already exists")
)

// JobDetail 任务定义，Expression 为空表示立即执行一次
type JobDetail struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	TaskType   string `json:"task_type"`
	Payload    []byte `json:"payload,omitempty"`
}

// Validate 校验任务定义
func (j JobDetail) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return ErrJobNameRequired
	}
	if strings.TrimSpace(j.TaskType) == "" {
		return ErrJobTaskRequired
	}
	return nil
}

// Service 调度服务
type Service interface {
	Create(ctx context.Context, job JobDetail) error
	Run(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Scheduler 调度门面
type Scheduler struct {
	service Service
}

// New 创建调度门面
func New(service Service) *Scheduler {
	return &Scheduler{service: service}
}

// Create 创建任务
func (s *Scheduler) Create(ctx context.Context, job JobDetail) error {
	return s.service.Create(ctx, job)
}

// Run 运行调度，阻塞至 ctx 结束
func (s *Scheduler) Run(ctx context.Context) error {
	return s.service.Run(ctx)
}

// RegisterDefaultJobs 注册订单批量关闭与批量完成任务；表达式为空或 "-" 时跳过
func RegisterDefaultJobs(ctx context.Context, s *Scheduler, cfg config.SchedulerConfig) error {
	jobs := []JobDetail{
		{Name: "close_expired_orders", Expression: cfg.CloseOrdersSpec, TaskType: queue.TaskOrderCloseExpired},
		{Name: "finish_signed_orders", Expression: cfg.FinishOrdersSpec, TaskType: queue.TaskOrderFinishSigned},
	}
	for _, job := range jobs {
		spec := strings.TrimSpace(job.Expression)
		if spec == "" || spec == "-" {
			logger.Infow("scheduler_job_disabled", "job", job.Name)
			continue
		}
		job.Expression = spec
		if err := s.Create(ctx, job); err != nil {
			return err
		}
		logger.Infow("scheduler_job_registered", "job", job.Name, "expression", spec, "task", job.TaskType)
	}
	return nil
}

// NewService 按驱动创建调度服务；asynq 驱动需要启用队列
func NewService(cfg *config.Config, client *queue.Client, handler asynq.Handler) (Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	location := resolveLocation(cfg.Scheduler.Timezone)
	switch strings.ToLower(strings.TrimSpace(cfg.Scheduler.Driver)) {
	case constants.SchedulerDriverAsynq:
		if !cfg.Queue.Enabled || !client.Enabled() {
			return nil, errors.New("asynq scheduler requires queue to be enabled")
		}
		return NewAsynqService(&cfg.Queue, client, location), nil
	case constants.SchedulerDriverCron, "":
		if handler == nil {
			return nil, errors.New("cron scheduler requires a task handler")
		}
		return NewCronService(handler, location), nil
	default:
		return nil, errors.New("unknown scheduler driver: " + cfg.Scheduler.Driver)
	}
}

func resolveLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warnw("scheduler_timezone_invalid", "timezone", name, "error", err)
		return time.Local
	}
	return loc
}

// RunnerService 将调度门面接入应用运行器
type RunnerService struct {
	scheduler *Scheduler
	service   Service
}

// NewRunnerService 创建调度运行服务
func NewRunnerService(service Service) *RunnerService {
	return &RunnerService{scheduler: New(service), service: service}
}

// Scheduler 返回调度门面
func (r *RunnerService) Scheduler() *Scheduler {
	return r.scheduler
}

// Name 服务名称
func (r *RunnerService) Name() string {
	return "scheduler"
}

// Start 启动调度
func (r *RunnerService) Start(ctx context.Context) error {
	if r == nil || r.service == nil {
		return errors.New("scheduler not initialized")
	}
	return r.scheduler.Run(ctx)
}

// Stop 停止调度
func (r *RunnerService) Stop(ctx context.Context) error {
	if r == nil || r.service == nil {
		return nil
	}
	return r.service.Shutdown(ctx)
}
