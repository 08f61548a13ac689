package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/queue"

	"github.com/hibiken/asynq"
)

// AsynqService 基于 asynq 周期任务的调度服务
type AsynqService struct {
	scheduler *asynq.Scheduler
	client    *queue.Client

	mu      sync.Mutex
	entries map[string]string
}

// NewAsynqService 创建 asynq 调度服务
func NewAsynqService(cfg *config.QueueConfig, client *queue.Client, location *time.Location) *AsynqService {
	scheduler := asynq.NewScheduler(queue.BuildRedisOpt(cfg), &asynq.SchedulerOpts{
		Location: location,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warnw("scheduler_enqueue_failed", "error", err)
				return
			}
			logger.Debugw("scheduler_enqueued", "task", info.Type, "task_id", info.ID)
		},
	})
	return &AsynqService{
		scheduler: scheduler,
		client:    client,
		entries:   make(map[string]string),
	}
}

// Create 注册周期任务；表达式为空时立即投递一次
func (s *AsynqService) Create(ctx context.Context, job JobDetail) error {
	if err := job.Validate(); err != nil {
		return err
	}
	task := asynq.NewTask(job.TaskType, job.Payload)
	expression := strings.TrimSpace(job.Expression)
	if expression == "" {
		info, err := s.client.Enqueue(task)
		if err != nil {
			return err
		}
		logger.Ctx(ctx).Infow("scheduler_job_enqueued", "job", job.Name, "task_id", info.ID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[job.Name]; ok {
		return ErrJobExists
	}
	entryID, err := s.scheduler.Register(expression, task, asynq.Queue(queue.DefaultQueue))
	if err != nil {
		return err
	}
	s.entries[job.Name] = entryID
	return nil
}

// Run 启动调度并阻塞至 ctx 结束
func (s *AsynqService) Run(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Shutdown 停止调度
func (s *AsynqService) Shutdown(_ context.Context) error {
	s.scheduler.Shutdown()
	return nil
}
