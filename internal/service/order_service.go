package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/bizframe/internal/cache"
	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/constants"
	"github.com/bizframe/internal/errs"
	"github.com/bizframe/internal/event"
	"github.com/bizframe/internal/logger"
	"github.com/bizframe/internal/models"
	"github.com/bizframe/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultBatchLimit = 1000

// OrderService 订单服务
type OrderService struct {
	db         *gorm.DB
	orderRepo  *repository.OrderRepository
	itemRepo   *repository.OrderItemRepository
	deductRepo *repository.OrderItemDeductRepository
	logRepo    *repository.OrderLogRepository
	refundRepo *repository.OrderRefundRepository
	dispatcher event.Dispatcher
	cfg        config.OrderConfig
	now        func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo *repository.OrderRepository, itemRepo *repository.OrderItemRepository, deductRepo *repository.OrderItemDeductRepository, logRepo *repository.OrderLogRepository, refundRepo *repository.OrderRefundRepository, dispatcher event.Dispatcher, cfg config.OrderConfig) *OrderService {
	if dispatcher == nil {
		dispatcher = event.NopDispatcher{}
	}
	return &OrderService{
		db:         db,
		orderRepo:  orderRepo,
		itemRepo:   itemRepo,
		deductRepo: deductRepo,
		logRepo:    logRepo,
		refundRepo: refundRepo,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        models.NowUTC,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID        uint          `json:"user_id"`
	SellerID      uint          `json:"seller_id"`
	Title         string        `json:"title"`
	PriceType     string        `json:"price_type"`
	Callback      string        `json:"callback"`
	Source        string        `json:"source"`
	CreatedReason string        `json:"created_reason"`
	Deducts       []DeductInput `json:"deducts"`
}

// CreateOrderItemInput 创建订单项输入
type CreateOrderItemInput struct {
	Title       string        `json:"title"`
	PriceAmount *models.Money `json:"price_amount"`
	TargetID    uint          `json:"target_id"`
	TargetType  string        `json:"target_type"`
	Deducts     []DeductInput `json:"deducts"`
}

// DeductInput 抵扣输入
type DeductInput struct {
	DeductType   string       `json:"deduct_type"`
	DeductID     uint         `json:"deduct_id"`
	DeductAmount models.Money `json:"deduct_amount"`
}

// PaidInput 支付回调输入
type PaidInput struct {
	OrderSn string    `json:"order_sn"`
	TradeSn string    `json:"trade_sn"`
	PayTime time.Time `json:"pay_time"`
}

// BatchFailure 批量处理中单个订单的失败
type BatchFailure struct {
	OrderID uint   `json:"order_id"`
	Error   string `json:"error"`
}

// BatchResult 批量处理结果
type BatchResult struct {
	Scanned   int            `json:"scanned"`
	Succeeded []uint         `json:"succeeded"`
	Skipped   []uint         `json:"skipped"`
	Failures  []BatchFailure `json:"failures"`
}

// CreateOrder 创建订单及其订单项与抵扣明细
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput, items []CreateOrderItemInput) (*models.Order, error) {
	if !actor.Authenticated() {
		return nil, ErrNotLoggedIn
	}
	if err := validateCreateOrder(input, items); err != nil {
		return nil, err
	}
	priceAmount, payAmount := countOrderAmounts(input, items)
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSpace(items[0].Title)
	}

	var order *models.Order
	err := s.withinTx(ctx, func(tx *orderTx) error {
		saved, err := tx.orders.Create(ctx, &models.Order{
			Sn:            generateSn(s.now()),
			Title:         title,
			UserID:        input.UserID,
			SellerID:      input.SellerID,
			PriceType:     strings.TrimSpace(input.PriceType),
			Status:        constants.OrderStatusCreated,
			PriceAmount:   priceAmount,
			PayAmount:     payAmount,
			Callback:      input.Callback,
			Source:        input.Source,
			CreatedReason: input.CreatedReason,
			CreatedUserID: actor.UserID,
		})
		if err != nil {
			return err
		}
		saved.Deducts, err = createDeducts(ctx, tx, saved.ID, 0, saved.SellerID, saved.UserID, input.Deducts)
		if err != nil {
			return err
		}
		saved.Items = make([]models.OrderItem, 0, len(items))
		for _, in := range items {
			item, err := tx.items.Create(ctx, &models.OrderItem{
				OrderID:     saved.ID,
				Sn:          generateSn(s.now()),
				Title:       strings.TrimSpace(in.Title),
				TargetID:    in.TargetID,
				TargetType:  strings.TrimSpace(in.TargetType),
				PriceAmount: *in.PriceAmount,
				PayAmount:   in.PriceAmount.Sub(sumDeducts(in.Deducts)).NonNegative(),
				Status:      constants.OrderStatusCreated,
				SellerID:    saved.SellerID,
				UserID:      saved.UserID,
			})
			if err != nil {
				return err
			}
			item.Deducts, err = createDeducts(ctx, tx, saved.ID, item.ID, item.SellerID, item.UserID, in.Deducts)
			if err != nil {
				return err
			}
			saved.Items = append(saved.Items, *item)
		}
		order = saved
		return nil
	})
	if err != nil {
		logger.Ctx(ctx).Warnw("order_create_failed", "user_id", input.UserID, "error", err)
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, constants.EventOrderCreated, order)
	s.createOrderLog(ctx, actor, order, nil)
	return order, nil
}

func createDeducts(ctx context.Context, tx *orderTx, orderID, itemID, sellerID, userID uint, inputs []DeductInput) ([]models.OrderItemDeduct, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	saved := make([]models.OrderItemDeduct, 0, len(inputs))
	for _, in := range inputs {
		row, err := tx.deducts.Create(ctx, &models.OrderItemDeduct{
			OrderID:      orderID,
			ItemID:       itemID,
			DeductType:   strings.TrimSpace(in.DeductType),
			DeductID:     in.DeductID,
			DeductAmount: models.NewMoneyFromDecimal(in.DeductAmount.Decimal),
			SellerID:     sellerID,
			UserID:       userID,
		})
		if err != nil {
			return nil, err
		}
		saved = append(saved, *row)
	}
	return saved, nil
}

func validateCreateOrder(input CreateOrderInput, items []CreateOrderItemInput) error {
	if input.UserID == 0 {
		return ErrOrderUserRequired
	}
	if len(items) == 0 {
		return ErrOrderItemsRequired
	}
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" ||
			item.PriceAmount == nil ||
			item.PriceAmount.IsNegative() ||
			item.TargetID == 0 ||
			strings.TrimSpace(item.TargetType) == "" {
			return ErrOrderItemInvalid
		}
		if err := validateDeducts(item.Deducts); err != nil {
			return err
		}
	}
	return validateDeducts(input.Deducts)
}

func validateDeducts(deducts []DeductInput) error {
	for _, deduct := range deducts {
		if deduct.DeductAmount.IsNegative() {
			return ErrOrderDeductInvalid
		}
	}
	return nil
}

// countOrderAmounts 订单原价为订单项原价之和，应付金额扣减订单级与订单项级全部抵扣，最低为 0
func countOrderAmounts(input CreateOrderInput, items []CreateOrderItemInput) (models.Money, models.Money) {
	price := decimal.Zero
	deducted := sumDeducts(input.Deducts).Decimal
	for _, item := range items {
		if item.PriceAmount != nil {
			price = price.Add(item.PriceAmount.Decimal)
		}
		deducted = deducted.Add(sumDeducts(item.Deducts).Decimal)
	}
	priceAmount := models.NewMoneyFromDecimal(price)
	return priceAmount, priceAmount.Sub(models.NewMoneyFromDecimal(deducted)).NonNegative()
}

func sumDeducts(deducts []DeductInput) models.Money {
	total := decimal.Zero
	for _, deduct := range deducts {
		total = total.Add(deduct.DeductAmount.Decimal)
	}
	return models.NewMoneyFromDecimal(total)
}

// SetOrderPaid 支付成功回调
func (s *OrderService) SetOrderPaid(ctx context.Context, actor Actor, input PaidInput) (*models.Order, error) {
	sn := strings.TrimSpace(input.OrderSn)
	if sn == "" {
		return nil, ErrOrderSnRequired
	}
	payTime := input.PayTime.UTC()
	if input.PayTime.IsZero() {
		payTime = s.now()
	}

	var order *models.Order
	err := s.withinTx(ctx, func(tx *orderTx) error {
		current, err := tx.orders.GetBySn(ctx, sn, repository.WithLock())
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if s.cfg.PaidRequiresCreated && current.Status != constants.OrderStatusCreated {
			return ErrOrderStatusNotCreate
		}
		order, err = applyTransition(ctx, tx, current.ID,
			map[string]interface{}{
				"status":   constants.OrderStatusPaid,
				"trade_sn": strings.TrimSpace(input.TradeSn),
				"pay_time": payTime,
			},
			map[string]interface{}{
				"status":   constants.OrderStatusPaid,
				"pay_time": payTime,
			},
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, actor, order, constants.EventOrderPaid, nil)
	return order, nil
}

// CloseOrder 关闭待支付订单
func (s *OrderService) CloseOrder(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	now := s.now()
	fields := map[string]interface{}{
		"status":     constants.OrderStatusClose,
		"close_time": now,
	}
	return s.transitionOrder(ctx, actor, id, constants.OrderStatusCreated, ErrOrderStatusNotCreate, fields, constants.EventOrderClosed, nil)
}

// FinishOrder 完成已签收订单
func (s *OrderService) FinishOrder(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	now := s.now()
	fields := map[string]interface{}{
		"status":      constants.OrderStatusFinish,
		"finish_time": now,
	}
	return s.transitionOrder(ctx, actor, id, constants.OrderStatusSigned, ErrOrderStatusNotSigned, fields, constants.EventOrderFinished, nil)
}

// SetOrderSignedSuccess 签收成功
func (s *OrderService) SetOrderSignedSuccess(ctx context.Context, actor Actor, id uint, data interface{}) (*models.Order, error) {
	return s.signOrder(ctx, actor, id, constants.OrderStatusSigned, data)
}

// SetOrderSignedFail 签收失败
func (s *OrderService) SetOrderSignedFail(ctx context.Context, actor Actor, id uint, data interface{}) (*models.Order, error) {
	return s.signOrder(ctx, actor, id, constants.OrderStatusSignedFail, data)
}

func (s *OrderService) signOrder(ctx context.Context, actor Actor, id uint, status string, data interface{}) (*models.Order, error) {
	signedData, err := toJSON(data)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"status":      status,
		"signed_time": s.now(),
		"signed_data": signedData,
	}
	return s.transitionOrder(ctx, actor, id, constants.OrderStatusPaid, ErrOrderStatusNotPaid, fields, "order."+status, signedData)
}

// SetOrderShipping 标记发货，不校验当前状态，也不级联订单项
func (s *OrderService) SetOrderShipping(ctx context.Context, actor Actor, id uint, data interface{}) (*models.Order, error) {
	dealData, err := toJSON(data)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.Update(ctx, id, map[string]interface{}{
		"status": constants.OrderStatusShipping,
	})
	if err != nil {
		return nil, errs.Classify(err)
	}
	s.afterTransition(ctx, actor, order, "", dealData)
	return order, nil
}

// transitionOrder 锁定订单、校验前置状态，并将同一组字段写入订单与全部订单项
func (s *OrderService) transitionOrder(ctx context.Context, actor Actor, id uint, required string, denied error, fields map[string]interface{}, eventName string, dealData datatypes.JSON) (*models.Order, error) {
	var order *models.Order
	err := s.withinTx(ctx, func(tx *orderTx) error {
		current, err := tx.orders.Get(ctx, id, repository.WithLock())
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.Status != required {
			return denied
		}
		order, err = applyTransition(ctx, tx, id, fields, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, actor, order, eventName, dealData)
	return order, nil
}

func applyTransition(ctx context.Context, tx *orderTx, id uint, orderFields, itemFields map[string]interface{}) (*models.Order, error) {
	order, err := tx.orders.Update(ctx, id, orderFields)
	if err != nil {
		return nil, err
	}
	items, err := tx.items.FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		updated, err := tx.items.Update(ctx, item.ID, itemFields)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *updated)
	}
	return order, nil
}

// afterTransition 提交后的副作用：清理快照、写操作日志、分发事件
func (s *OrderService) afterTransition(ctx context.Context, actor Actor, order *models.Order, eventName string, dealData datatypes.JSON) {
	if err := cache.DeleteOrderSnapshot(ctx, order.Sn); err != nil {
		logger.Ctx(ctx).Warnw("order_snapshot_evict_failed", "order_sn", order.Sn, "error", err)
	}
	s.createOrderLog(ctx, actor, order, dealData)
	if eventName != "" {
		s.dispatcher.Dispatch(ctx, eventName, order)
	}
	logger.Ctx(ctx).Infow("order_status_changed",
		"order_id", order.ID,
		"status", order.Status,
		"user_id", actor.UserID,
	)
}

func (s *OrderService) createOrderLog(ctx context.Context, actor Actor, order *models.Order, dealData datatypes.JSON) {
	_, err := s.logRepo.Create(ctx, &models.OrderLog{
		OrderID:  order.ID,
		Status:   order.Status,
		UserID:   actor.UserID,
		DealData: dealData,
	})
	if err != nil {
		logger.Ctx(ctx).Errorw("order_log_create_failed",
			"order_id", order.ID,
			"status", order.Status,
			"error", err,
		)
	}
}

// CloseOrders 批量关闭创建超过阈值的订单，单个订单失败不影响其余订单
func (s *OrderService) CloseOrders(ctx context.Context, actor Actor, limit int) (*BatchResult, error) {
	threshold := s.now().UTC().Add(-s.cfg.CloseAfter())
	filter := repository.Filter{repository.Lt("created_time", threshold)}
	return s.runBatch(ctx, "order_close_batch", filter, limit, func(id uint) error {
		_, err := s.CloseOrder(ctx, actor, id)
		return err
	})
}

// FinishOrders 批量完成支付超过阈值且已签收的订单
func (s *OrderService) FinishOrders(ctx context.Context, actor Actor, limit int) (*BatchResult, error) {
	threshold := s.now().UTC().Add(-s.cfg.FinishAfter())
	filter := repository.Filter{
		repository.Lt("pay_time", threshold),
		repository.Eq("status", constants.OrderStatusSigned),
	}
	return s.runBatch(ctx, "order_finish_batch", filter, limit, func(id uint) error {
		_, err := s.FinishOrder(ctx, actor, id)
		return err
	})
}

func (s *OrderService) runBatch(ctx context.Context, name string, filter repository.Filter, limit int, apply func(id uint) error) (*BatchResult, error) {
	if limit <= 0 {
		limit = s.cfg.BatchLimit
	}
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	orders, err := s.orderRepo.Search(ctx, filter, repository.OrderBy{repository.Desc("id")}, 0, limit)
	if err != nil {
		return nil, errs.Classify(err)
	}
	result := &BatchResult{Scanned: len(orders)}
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := apply(order.ID)
		switch {
		case err == nil:
			result.Succeeded = append(result.Succeeded, order.ID)
		case isAccessDenied(err):
			result.Skipped = append(result.Skipped, order.ID)
		default:
			result.Failures = append(result.Failures, BatchFailure{OrderID: order.ID, Error: err.Error()})
			logger.Ctx(ctx).Warnw(name+"_item_failed", "order_id", order.ID, "error", err)
		}
	}
	logger.Ctx(ctx).Infow(name+"_done",
		"scanned", result.Scanned,
		"succeeded", len(result.Succeeded),
		"skipped", len(result.Skipped),
		"failed", len(result.Failures),
	)
	return result, nil
}

// generateSn 订单编号：时间戳 + 5 位随机数
func generateSn(now time.Time) string {
	prefix := now.Format("20060102150405")
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return fmt.Sprintf("%s%05d", prefix, 10000+now.UnixNano()%90000)
	}
	return fmt.Sprintf("%s%d", prefix, 10000+n.Int64())
}

// toJSON 将任意载荷编码为 JSON 列值
func toJSON(data interface{}) (datatypes.JSON, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case datatypes.JSON:
		return v, nil
	case json.RawMessage:
		return datatypes.JSON(v), nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		if !json.Valid(v) {
			return nil, errs.InvalidArgument("data is not valid json")
		}
		return datatypes.JSON(v), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errs.InvalidArgument("data cannot be encoded: %v", err)
	}
	return datatypes.JSON(raw), nil
}
