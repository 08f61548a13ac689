package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bizframe/internal/cache"
	"github.com/bizframe/internal/config"
	adminhandlers "github.com/bizframe/internal/http/handlers/admin"
	"github.com/bizframe/internal/http/response"
	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/provider"

	"github.com/gin-gonic/gin"
)

const adminPrefix = "/api/v1/admin/"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "biz"
	}
	createOrderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:create_order", redisPrefix),
		WindowSeconds: cfg.RateLimit.CreateOrderWindowSeconds,
		MaxRequests:   cfg.RateLimit.CreateOrderMaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		admin.Use(ActorMiddleware())
		{
			// 订单
			admin.POST("/orders", RateLimitMiddleware(cache.Client(), createOrderRule, KeyByActorOrIP), adminHandler.AdminCreateOrder)
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.POST("/orders/paid", adminHandler.AdminSetOrderPaid)
			admin.POST("/orders/close-expired", adminHandler.AdminCloseExpiredOrders)
			admin.POST("/orders/finish-signed", adminHandler.AdminFinishSignedOrders)
			admin.GET("/orders/sn/:sn", adminHandler.AdminGetOrderBySn)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.GET("/orders/:id/items", adminHandler.AdminListOrderItemsByOrder)
			admin.GET("/orders/:id/logs", adminHandler.AdminListOrderLogs)
			admin.POST("/orders/:id/shipping", adminHandler.AdminSetOrderShipping)
			admin.POST("/orders/:id/signed", adminHandler.AdminSetOrderSigned)
			admin.POST("/orders/:id/signed-fail", adminHandler.AdminSetOrderSignedFail)
			admin.POST("/orders/:id/close", adminHandler.AdminCloseOrder)
			admin.POST("/orders/:id/finish", adminHandler.AdminFinishOrder)

			// 订单项与退款
			admin.GET("/order-items", adminHandler.AdminListOrderItems)
			admin.GET("/order-items/:id/deducts", adminHandler.AdminListOrderItemDeducts)
			admin.GET("/order-refunds/:id", adminHandler.AdminGetOrderRefund)

			// 路由目录
			admin.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK
		if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
			status["status"] = "degraded"
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if cache.Client() != nil {
			status["redis"] = "ok"
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				status["redis"] = "unavailable"
			}
		}
		ctx.JSON(code, status)
	})

	return r
}

type routeCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// buildRouteCatalog 汇总管理端路由，按模块与路径排序
func buildRouteCatalog(engine *gin.Engine) []routeCatalogItem {
	if engine == nil {
		return []routeCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]routeCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, adminPrefix) {
			continue
		}
		key := method + ":" + item.Path
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, routeCatalogItem{
			Module: deriveRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), adminPrefix)
	if normalized == "" {
		return "system"
	}
	segment, _, _ := strings.Cut(normalized, "/")
	return segment
}
