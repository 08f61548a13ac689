package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/bizframe/internal/http/handlers/shared"
	"github.com/bizframe/internal/http/response"
	"github.com/bizframe/internal/repository"
	"github.com/bizframe/internal/service"

	"github.com/gin-gonic/gin"
)

// 非过滤条件的查询参数
var reservedQueryKeys = map[string]struct{}{
	"page":      {},
	"page_size": {},
	"order_by":  {},
}

func getActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.GetActor(c)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		respondErrorWithMsg(c, response.CodeBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// parseQueryConditions 将查询参数转换为存储层条件。
// 重复出现的键或以 s 结尾的集合键按逗号拆分为序列，id 类键转换为整数。
func parseQueryConditions(c *gin.Context) map[string]interface{} {
	conditions := make(map[string]interface{})
	for key, values := range c.Request.URL.Query() {
		if _, reserved := reservedQueryKeys[key]; reserved || len(values) == 0 {
			continue
		}
		if len(values) > 1 || strings.HasSuffix(key, "ids") || strings.HasSuffix(key, "statuses") {
			items := make([]interface{}, 0, len(values))
			for _, value := range values {
				for _, part := range strings.Split(value, ",") {
					part = strings.TrimSpace(part)
					if part == "" {
						continue
					}
					items = append(items, queryValue(key, part))
				}
			}
			conditions[key] = items
			continue
		}
		value := strings.TrimSpace(values[0])
		if value == "" {
			continue
		}
		conditions[key] = queryValue(key, value)
	}
	return conditions
}

func queryValue(key, value string) interface{} {
	base := key
	for _, suffix := range []string{"_LTE", "_GTE", "_LT", "_GT"} {
		base = strings.TrimSuffix(base, suffix)
	}
	if base == "id" || strings.HasSuffix(base, "_id") || strings.HasSuffix(base, "ids") {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return value
}

func parseOrderBy(c *gin.Context) (repository.OrderBy, error) {
	raw := strings.TrimSpace(c.Query("order_by"))
	if raw == "" {
		return repository.OrderBy{repository.Desc("id")}, nil
	}
	return repository.ParseOrderBy(strings.Split(raw, ",")...)
}
