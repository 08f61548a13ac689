package provider

import (
	"github.com/bizframe/internal/cache"
	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/event"
	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/models"
	"github.com/bizframe/internal/queue"
	"github.com/bizframe/internal/repository"
	"github.com/bizframe/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Dispatcher  event.Dispatcher

	// Repositories
	OrderRepo           *repository.OrderRepository
	OrderItemRepo       *repository.OrderItemRepository
	OrderItemDeductRepo *repository.OrderItemDeductRepository
	OrderLogRepo        *repository.OrderLogRepository
	OrderRefundRepo     *repository.OrderRefundRepository

	// Services
	OrderService *service.OrderService
}

// NewContainer 使用全局数据库初始化容器
func NewContainer(cfg *config.Config) *Container {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定数据库初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
		Dispatcher:  event.New(cfg.Event.Driver, cache.Client(), cfg.Event.ChannelPrefix),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	c.OrderRepo = repository.NewOrderRepository(c.DB)
	c.OrderItemRepo = repository.NewOrderItemRepository(c.DB)
	c.OrderItemDeductRepo = repository.NewOrderItemDeductRepository(c.DB)
	c.OrderLogRepo = repository.NewOrderLogRepository(c.DB)
	c.OrderRefundRepo = repository.NewOrderRefundRepository(c.DB)
}

func (c *Container) initServices() {
	c.OrderService = service.NewOrderService(
		c.DB,
		c.OrderRepo,
		c.OrderItemRepo,
		c.OrderItemDeductRepo,
		c.OrderLogRepo,
		c.OrderRefundRepo,
		c.Dispatcher,
		c.Config.Order,
	)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
