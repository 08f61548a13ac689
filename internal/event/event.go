// Package event 订单生命周期事件的分发。
//
// 事件在事务提交后发出，投递失败只记录日志，不影响已提交的业务结果。
package event

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bizframe/internal/constants"
	"github.com/bizframe/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Dispatcher 事件分发器
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, payload interface{})
}

// Envelope 事件信封
type Envelope struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope 封装事件
func NewEnvelope(name string, payload interface{}) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: time.Now(),
		Payload:    raw,
	}, nil
}

// NopDispatcher 丢弃所有事件
type NopDispatcher struct{}

// Dispatch 实现 Dispatcher
func (NopDispatcher) Dispatch(context.Context, string, interface{}) {}

// LogDispatcher 将事件写入结构化日志
type LogDispatcher struct{}

// Dispatch 实现 Dispatcher
func (LogDispatcher) Dispatch(ctx context.Context, name string, payload interface{}) {
	logger.Ctx(ctx).Infow("event_dispatched", "event", name, "payload", payload)
}

// RedisDispatcher 通过 Redis 发布事件
type RedisDispatcher struct {
	client *redis.Client
	prefix string
}

// NewRedisDispatcher 创建 Redis 事件分发器
func NewRedisDispatcher(client *redis.Client, prefix string) *RedisDispatcher {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "biz"
	}
	return &RedisDispatcher{client: client, prefix: prefix}
}

// Channel 事件对应的频道
func (d *RedisDispatcher) Channel(name string) string {
	return d.prefix + ":event:" + name
}

// Dispatch 实现 Dispatcher
func (d *RedisDispatcher) Dispatch(ctx context.Context, name string, payload interface{}) {
	if d == nil || d.client == nil {
		return
	}
	envelope, err := NewEnvelope(name, payload)
	if err != nil {
		logger.Ctx(ctx).Warnw("event_encode_failed", "event", name, "error", err)
		return
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		logger.Ctx(ctx).Warnw("event_encode_failed", "event", name, "error", err)
		return
	}
	if err := d.client.Publish(ctx, d.Channel(name), body).Err(); err != nil {
		logger.Ctx(ctx).Warnw("event_publish_failed",
			"event", name,
			"event_id", envelope.ID,
			"error", err,
		)
	}
}

// Multi 依次分发到多个分发器
type Multi []Dispatcher

// Dispatch 实现 Dispatcher
func (m Multi) Dispatch(ctx context.Context, name string, payload interface{}) {
	for _, d := range m {
		if d != nil {
			d.Dispatch(ctx, name, payload)
		}
	}
}

// New 按驱动创建分发器，redis 驱动缺少客户端时降级为日志
func New(driver string, client *redis.Client, prefix string) Dispatcher {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case constants.EventDriverNone:
		return NopDispatcher{}
	case constants.EventDriverRedis:
		if client == nil {
			logger.Warnw("event_redis_unavailable", "fallback", constants.EventDriverLog)
			return LogDispatcher{}
		}
		return Multi{LogDispatcher{}, NewRedisDispatcher(client, prefix)}
	default:
		return LogDispatcher{}
	}
}
