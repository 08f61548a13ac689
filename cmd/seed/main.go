package main

import (
	"context"
	"time"

	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/constants"
	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/models"
	"github.com/bizframe/internal/provider"
	"github.com/bizframe/internal/service"

	"github.com/shopspring/decimal"
)

const seedSource = "seed"

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()
	orders := container.OrderService
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	existing, err := orders.CountOrders(ctx, map[string]interface{}{"source": seedSource})
	if err != nil {
		stdLog.Fatalf("Failed to count seed orders: %v", err)
	}
	if existing > 0 {
		stdLog.Printf("Seed orders already exist: %d", existing)
		return
	}

	operator := service.Actor{UserID: 1}
	price := func(v float64) *models.Money {
		m := models.NewMoneyFromDecimal(decimal.NewFromFloat(v))
		return &m
	}

	// 待支付订单
	pending, err := orders.CreateOrder(ctx, operator, service.CreateOrderInput{
		UserID:    1001,
		SellerID:  1,
		PriceType: "CNY",
		Source:    seedSource,
	}, []service.CreateOrderItemInput{
		{Title: "Go 并发编程课程", PriceAmount: price(199.00), TargetID: 1, TargetType: "course"},
	})
	if err != nil {
		stdLog.Fatalf("Failed to create pending order: %v", err)
	}
	stdLog.Printf("Created pending order: %s", pending.Sn)

	// 含抵扣并完成履约的订单
	fulfilled, err := orders.CreateOrder(ctx, operator, service.CreateOrderInput{
		UserID:    1002,
		SellerID:  1,
		PriceType: "CNY",
		Source:    seedSource,
		Deducts: []service.DeductInput{
			{DeductType: constants.DeductTypeCoupon, DeductID: 1, DeductAmount: models.NewMoney(10)},
		},
	}, []service.CreateOrderItemInput{
		{Title: "分布式系统实战", PriceAmount: price(299.00), TargetID: 2, TargetType: "course",
			Deducts: []service.DeductInput{
				{DeductType: constants.DeductTypePoint, DeductID: 7, DeductAmount: models.NewMoney(20)},
			}},
		{Title: "配套电子书", PriceAmount: price(49.90), TargetID: 3, TargetType: "ebook"},
	})
	if err != nil {
		stdLog.Fatalf("Failed to create fulfilled order: %v", err)
	}
	if _, err := orders.SetOrderPaid(ctx, operator, service.PaidInput{OrderSn: fulfilled.Sn, TradeSn: "SEED-TRADE-1"}); err != nil {
		stdLog.Fatalf("Failed to pay order %s: %v", fulfilled.Sn, err)
	}
	if _, err := orders.SetOrderSignedSuccess(ctx, operator, fulfilled.ID, map[string]interface{}{"channel": "seed"}); err != nil {
		stdLog.Fatalf("Failed to sign order %s: %v", fulfilled.Sn, err)
	}
	stdLog.Printf("Created signed order: %s", fulfilled.Sn)
}
