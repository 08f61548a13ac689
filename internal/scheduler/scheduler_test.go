package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/constants"
	"github.com/bizframe/internal/queue"

	"github.com/hibiken/asynq"
)

type fakeService struct {
	created []JobDetail
	runs    int
}

func (f *fakeService) Create(_ context.Context, job JobDetail) error {
	f.created = append(f.created, job)
	return nil
}

func (f *fakeService) Run(context.Context) error {
	f.runs++
	return nil
}

func (f *fakeService) Shutdown(context.Context) error {
	return nil
}

type recordingHandler struct {
	mu    sync.Mutex
	tasks []string
	err   error
}

func (h *recordingHandler) ProcessTask(_ context.Context, task *asynq.Task) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks = append(h.tasks, task.Type())
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tasks)
}

func TestSchedulerDelegates(t *testing.T) {
	svc := &fakeService{}
	s := New(svc)
	job := JobDetail{Name: "n", Expression: "@every 1m", TaskType: queue.TaskOrderCloseExpired}
	if err := s.Create(context.Background(), job); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(svc.created) != 1 || svc.created[0].Name != "n" || svc.runs != 1 {
		t.Fatalf("facade should delegate verbatim: %+v runs=%d", svc.created, svc.runs)
	}
}

func TestRegisterDefaultJobs(t *testing.T) {
	svc := &fakeService{}
	err := RegisterDefaultJobs(context.Background(), New(svc), config.SchedulerConfig{
		CloseOrdersSpec:  "@every 10m",
		FinishOrdersSpec: "-",
	})
	if err != nil {
		t.Fatalf("register default jobs failed: %v", err)
	}
	if len(svc.created) != 1 {
		t.Fatalf("disabled job should be skipped, got %+v", svc.created)
	}
	if svc.created[0].TaskType != queue.TaskOrderCloseExpired || svc.created[0].Expression != "@every 10m" {
		t.Fatalf("unexpected job: %+v", svc.created[0])
	}
}

func TestJobDetailValidate(t *testing.T) {
	if err := (JobDetail{TaskType: "x"}).Validate(); !errors.Is(err, ErrJobNameRequired) {
		t.Fatalf("want ErrJobNameRequired, got %v", err)
	}
	if err := (JobDetail{Name: "x"}).Validate(); !errors.Is(err, ErrJobTaskRequired) {
		t.Fatalf("want ErrJobTaskRequired, got %v", err)
	}
}

func TestCronServiceCreate(t *testing.T) {
	handler := &recordingHandler{}
	svc := NewCronService(handler, time.UTC)
	ctx := context.Background()

	if err := svc.Create(ctx, JobDetail{Name: "close", Expression: "@every 10m", TaskType: queue.TaskOrderCloseExpired}); err != nil {
		t.Fatalf("create descriptor job failed: %v", err)
	}
	if err := svc.Create(ctx, JobDetail{Name: "finish", Expression: "0 */5 * * * *", TaskType: queue.TaskOrderFinishSigned}); err != nil {
		t.Fatalf("create six-field job failed: %v", err)
	}
	if err := svc.Create(ctx, JobDetail{Name: "close", Expression: "@every 1m", TaskType: queue.TaskOrderCloseExpired}); !errors.Is(err, ErrJobExists) {
		t.Fatalf("duplicate job want ErrJobExists, got %v", err)
	}
	if err := svc.Create(ctx, JobDetail{Name: "bad", Expression: "not a spec", TaskType: queue.TaskOrderCloseExpired}); err == nil {
		t.Fatalf("invalid expression should fail")
	}
	names := svc.Entries()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "close" || names[1] != "finish" {
		t.Fatalf("unexpected entries: %v", names)
	}
	if handler.count() != 0 {
		t.Fatalf("scheduled jobs should not run on create")
	}

	if err := svc.Create(ctx, JobDetail{Name: "once", TaskType: queue.TaskOrderFinishSigned}); err != nil {
		t.Fatalf("immediate job failed: %v", err)
	}
	if handler.count() != 1 || handler.tasks[0] != queue.TaskOrderFinishSigned {
		t.Fatalf("immediate job should run synchronously: %v", handler.tasks)
	}

	handler.err = errors.New("db down")
	if err := svc.Create(ctx, JobDetail{Name: "once-again", TaskType: queue.TaskOrderFinishSigned}); err == nil {
		t.Fatalf("immediate job error should be returned")
	}
}

func TestCronServiceRunsScheduledJob(t *testing.T) {
	handler := &recordingHandler{}
	svc := NewCronService(handler, time.UTC)
	if err := svc.Create(context.Background(), JobDetail{Name: "tick", Expression: "* * * * * *", TaskType: queue.TaskOrderCloseExpired}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	runner := NewRunnerService(svc)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Start(ctx)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for handler.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := runner.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if handler.count() == 0 {
		t.Fatalf("scheduled job did not run")
	}
}

func TestNewServiceByDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Driver = constants.SchedulerDriverCron
	svc, err := NewService(cfg, nil, &recordingHandler{})
	if err != nil {
		t.Fatalf("cron driver failed: %v", err)
	}
	if _, ok := svc.(*CronService); !ok {
		t.Fatalf("want CronService, got %T", svc)
	}

	cfg.Scheduler.Driver = constants.SchedulerDriverAsynq
	if _, err := NewService(cfg, nil, nil); err == nil {
		t.Fatalf("asynq driver without queue should fail")
	}
	cfg.Scheduler.Driver = "quartz"
	if _, err := NewService(cfg, nil, nil); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

func TestResolveLocation(t *testing.T) {
	if resolveLocation("") != time.Local {
		t.Fatalf("empty timezone should use local")
	}
	if resolveLocation("Not/AZone") != time.Local {
		t.Fatalf("invalid timezone should fall back to local")
	}
	if loc := resolveLocation("UTC"); loc.String() != "UTC" {
		t.Fatalf("unexpected location: %s", loc)
	}
}
