package queue

import (
	"errors"
	"testing"

	"github.com/bizframe/internal/config"
)

func TestNewBatchJobTask(t *testing.T) {
	task, err := NewBatchJobTask(TaskOrderCloseExpired, BatchJobPayload{Limit: 50})
	if err != nil {
		t.Fatalf("new batch task failed: %v", err)
	}
	if task.Type() != TaskOrderCloseExpired {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	payload, err := ParseBatchJobPayload(task.Payload())
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.Limit != 50 {
		t.Fatalf("limit want 50 got %d", payload.Limit)
	}
	if _, err := NewBatchJobTask("order:unknown", BatchJobPayload{}); err == nil {
		t.Fatalf("unknown task type should be rejected")
	}
}

func TestParseBatchJobPayload(t *testing.T) {
	payload, err := ParseBatchJobPayload(nil)
	if err != nil || payload.Limit != 0 {
		t.Fatalf("empty payload should use defaults: %+v err=%v", payload, err)
	}
	payload, err = ParseBatchJobPayload([]byte(`{"limit":-3}`))
	if err != nil || payload.Limit != 0 {
		t.Fatalf("negative limit should be reset: %+v err=%v", payload, err)
	}
	if _, err := ParseBatchJobPayload([]byte(`{`)); err == nil {
		t.Fatalf("broken payload should fail")
	}
}

func TestDisabledClient(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if _, err := client.EnqueueBatchJob(TaskOrderFinishSigned, BatchJobPayload{}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("want ErrQueueDisabled, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2, Concurrency: 4})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 4 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
	opt, cfg = BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" || cfg.Concurrency != 10 {
		t.Fatalf("unexpected defaults: %+v %+v", opt, cfg)
	}
}
