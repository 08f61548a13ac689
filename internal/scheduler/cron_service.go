package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bizframe/internal/logger"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

const cronJobTimeout = 10 * time.Minute

// CronService 进程内 cron 调度服务，直接调用任务处理器
type CronService struct {
	cron    *cron.Cron
	handler asynq.Handler

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewCronService 创建 cron 调度服务，表达式支持可选的秒字段与 @every 描述符
func NewCronService(handler asynq.Handler, location *time.Location) *CronService {
	if location == nil {
		location = time.Local
	}
	cronLogger := zapCronLogger{}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronService{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		handler: handler,
		entries: make(map[string]cron.EntryID),
	}
}

// Create 注册任务；表达式为空时同步执行一次
func (s *CronService) Create(ctx context.Context, job JobDetail) error {
	if err := job.Validate(); err != nil {
		return err
	}
	expression := strings.TrimSpace(job.Expression)
	if expression == "" {
		return s.execute(ctx, job)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[job.Name]; ok {
		return ErrJobExists
	}
	entryID, err := s.cron.AddFunc(expression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cronJobTimeout)
		defer cancel()
		if err := s.execute(ctx, job); err != nil {
			logger.Warnw("scheduler_job_failed", "job", job.Name, "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.entries[job.Name] = entryID
	return nil
}

// Entries 已注册的任务名称
func (s *CronService) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Run 启动调度并阻塞至 ctx 结束
func (s *CronService) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	return nil
}

// Shutdown 停止调度，等待执行中的任务结束
func (s *CronService) Shutdown(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CronService) execute(ctx context.Context, job JobDetail) error {
	started := time.Now()
	err := s.handler.ProcessTask(ctx, asynq.NewTask(job.TaskType, job.Payload))
	logger.Ctx(ctx).Infow("scheduler_job_executed",
		"job", job.Name,
		"task", job.TaskType,
		"duration", time.Since(started),
		"error", err,
	)
	return err
}

// zapCronLogger 将 cron 内部日志转到 zap
type zapCronLogger struct{}

func (zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.S().Debugw("cron_"+strings.ReplaceAll(msg, " ", "_"), keysAndValues...)
}

func (zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.S().Errorw("cron_"+strings.ReplaceAll(msg, " ", "_"), append(keysAndValues, "error", err)...)
}
