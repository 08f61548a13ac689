package queue

import (
	"encoding/json"
	"fmt"

	"github.com/bizframe/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderCloseExpired 批量关闭超时未支付订单
	TaskOrderCloseExpired = constants.TaskOrderCloseExpired
	// TaskOrderFinishSigned 批量完成已签收订单
	TaskOrderFinishSigned = constants.TaskOrderFinishSigned
)

// BatchJobPayload 批量任务载荷，Limit 为 0 时使用配置的默认上限
type BatchJobPayload struct {
	Limit int `json:"limit"`
}

// IsBatchTask 判断是否为订单批量任务
func IsBatchTask(taskType string) bool {
	return taskType == TaskOrderCloseExpired || taskType == TaskOrderFinishSigned
}

// NewBatchJobTask 创建订单批量任务
func NewBatchJobTask(taskType string, payload BatchJobPayload) (*asynq.Task, error) {
	if !IsBatchTask(taskType) {
		return nil, fmt.Errorf("unknown batch task type: %s", taskType)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// ParseBatchJobPayload 解析批量任务载荷，空载荷视为默认值
func ParseBatchJobPayload(body []byte) (BatchJobPayload, error) {
	var payload BatchJobPayload
	if len(body) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	if payload.Limit < 0 {
		payload.Limit = 0
	}
	return payload, nil
}
