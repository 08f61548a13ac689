package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/bizframe/internal/queue"
	"github.com/bizframe/internal/service"

	"github.com/hibiken/asynq"
)

type fakeBatcher struct {
	closeCalls  []int
	finishCalls []int
	actors      []service.Actor
	err         error
}

func (f *fakeBatcher) CloseOrders(_ context.Context, actor service.Actor, limit int) (*service.BatchResult, error) {
	f.closeCalls = append(f.closeCalls, limit)
	f.actors = append(f.actors, actor)
	return &service.BatchResult{}, f.err
}

func (f *fakeBatcher) FinishOrders(_ context.Context, actor service.Actor, limit int) (*service.BatchResult, error) {
	f.finishCalls = append(f.finishCalls, limit)
	f.actors = append(f.actors, actor)
	return &service.BatchResult{}, f.err
}

func TestConsumerDispatchesBatchTasks(t *testing.T) {
	batcher := &fakeBatcher{}
	consumer := &Consumer{Orders: batcher}
	ctx := context.Background()

	closeTask, _ := queue.NewBatchJobTask(queue.TaskOrderCloseExpired, queue.BatchJobPayload{Limit: 20})
	if err := consumer.ProcessTask(ctx, closeTask); err != nil {
		t.Fatalf("close task failed: %v", err)
	}
	finishTask, _ := queue.NewBatchJobTask(queue.TaskOrderFinishSigned, queue.BatchJobPayload{})
	if err := consumer.ProcessTask(ctx, finishTask); err != nil {
		t.Fatalf("finish task failed: %v", err)
	}
	if len(batcher.closeCalls) != 1 || batcher.closeCalls[0] != 20 {
		t.Fatalf("unexpected close calls: %v", batcher.closeCalls)
	}
	if len(batcher.finishCalls) != 1 || batcher.finishCalls[0] != 0 {
		t.Fatalf("unexpected finish calls: %v", batcher.finishCalls)
	}
	for _, actor := range batcher.actors {
		if actor != service.SystemActor {
			t.Fatalf("batch jobs should run as system actor, got %+v", actor)
		}
	}
}

func TestConsumerSkipsRetryOnBadPayload(t *testing.T) {
	consumer := &Consumer{Orders: &fakeBatcher{}}
	err := consumer.ProcessTask(context.Background(), asynq.NewTask(queue.TaskOrderCloseExpired, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("bad payload should skip retry, got %v", err)
	}
	err = consumer.ProcessTask(context.Background(), asynq.NewTask("order:unknown", nil))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("unknown task should skip retry, got %v", err)
	}
}

func TestConsumerPropagatesBatchError(t *testing.T) {
	consumer := &Consumer{Orders: &fakeBatcher{err: errors.New("db down")}}
	task, _ := queue.NewBatchJobTask(queue.TaskOrderFinishSigned, queue.BatchJobPayload{})
	if err := consumer.ProcessTask(context.Background(), task); err == nil {
		t.Fatalf("batch error should be returned for retry")
	}
}
