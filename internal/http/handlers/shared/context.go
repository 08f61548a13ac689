package shared

import (
	"github.com/bizframe/internal/http/response"
	"github.com/bizframe/internal/service"

	"github.com/gin-gonic/gin"
)

// ActorContextKey 上下文中的操作人 ID
const ActorContextKey = "actor_id"

// GetActor 从上下文读取操作人；未设置时返回系统身份。
func GetActor(c *gin.Context) (service.Actor, bool) {
	value, exists := c.Get(ActorContextKey)
	if !exists {
		return service.SystemActor, true
	}
	switch v := value.(type) {
	case uint:
		return service.Actor{UserID: v}, true
	case int:
		if v < 0 {
			RespondErrorWithMsg(c, response.CodeBadRequest, "actor id is invalid", nil)
			return service.SystemActor, false
		}
		return service.Actor{UserID: uint(v)}, true
	default:
		RespondErrorWithMsg(c, response.CodeInternal, "actor id type is invalid", nil)
		return service.SystemActor, false
	}
}
