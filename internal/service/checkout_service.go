package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"paygate/config"
	"paygate/internal/models"
	"paygate/internal/orderid"
	"paygate/internal/sign"
	"paygate/internal/store"
	"paygate/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bounded retries for same-second order number collisions.
const maxOrderNoAttempts = 3

var (
	ErrInvalidPayMethod = errors.New("invalid pay method")
	ErrOrderNoExhausted = errors.New("order number generation exhausted retries")
)

// CheckoutService creates pending orders and signed provider redirect URLs.
type CheckoutService struct {
	store     OrderStore
	generator *orderid.Generator
	payment   config.PaymentConfig
	publisher EventPublisher
	cache     StatusCache
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store OrderStore,
	generator *orderid.Generator,
	payment config.PaymentConfig,
	publisher EventPublisher,
	cache StatusCache,
) *CheckoutService {
	return &CheckoutService{
		store:     store,
		generator: generator,
		payment:   payment,
		publisher: publisher,
		cache:     cache,
		logger:    util.GetLogger(),
	}
}

// CheckoutResult is returned to the client after a successful checkout.
type CheckoutResult struct {
	OrderNo     string `json:"order_no"`
	RedirectURL string `json:"url"`
}

// CreateCheckout creates a pending order at the configured fixed amount and
// returns the signed provider redirect URL. The single insert is the only
// side effect on the order store.
func (s *CheckoutService) CreateCheckout(ctx context.Context, clientID, payMethod string) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateCheckout")
	defer span.End()

	if payMethod == "" {
		payMethod = models.PayMethodAlipay
	}
	if !models.ValidPayMethod(payMethod) {
		util.CheckoutsFailedTotal.WithLabelValues("invalid_pay_method").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayMethod, payMethod)
	}

	order, err := s.insertWithRetry(ctx, clientID, payMethod)
	if err != nil {
		return nil, err
	}

	util.CheckoutsCreatedTotal.Inc()
	s.logger.Info("Checkout order created",
		zap.String("order_no", order.OrderNo),
		zap.String("client_id", clientID),
		zap.String("pay_method", payMethod))

	if s.cache != nil {
		if err := s.cache.SetOrderStatus(ctx, order.OrderNo, order.Status, clientID); err != nil {
			s.logger.Warn("Failed to warm status cache", zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := &models.OrderCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCreated,
				Timestamp: time.Now(),
			},
			OrderNo:   order.OrderNo,
			ClientID:  clientID,
			Amount:    order.Amount,
			PayMethod: payMethod,
		}
		if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	return &CheckoutResult{
		OrderNo:     order.OrderNo,
		RedirectURL: s.buildRedirectURL(order.OrderNo, payMethod),
	}, nil
}

func (s *CheckoutService) insertWithRetry(ctx context.Context, clientID, payMethod string) (*models.Order, error) {
	for attempt := 0; attempt < maxOrderNoAttempts; attempt++ {
		order := &models.Order{
			OrderNo:   s.generator.Next(),
			ClientID:  clientID,
			Amount:    s.payment.Amount,
			PayMethod: payMethod,
			Status:    models.OrderStatusPending,
		}

		err := s.store.CreateOrder(ctx, order)
		if err == nil {
			return order, nil
		}
		if errors.Is(err, store.ErrDuplicateOrderNo) {
			s.logger.Warn("Order number collision, regenerating",
				zap.String("order_no", order.OrderNo),
				zap.Int("attempt", attempt+1))
			continue
		}
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.CheckoutsFailedTotal.WithLabelValues("order_no_exhausted").Inc()
	return nil, ErrOrderNoExhausted
}

// buildRedirectURL assembles the signed provider submit URL.
func (s *CheckoutService) buildRedirectURL(orderNo, payMethod string) string {
	params := map[string]string{
		"pid":          s.payment.MerchantID,
		"type":         payMethod,
		"out_trade_no": orderNo,
		"notify_url":   s.payment.NotifyURL,
		"return_url":   s.payment.ReturnURL,
		"name":         s.payment.ProductName,
		"money":        s.payment.Amount,
	}
	params[sign.FieldSign] = sign.Sign(params, s.payment.Secret)
	params[sign.FieldSignType] = "MD5"

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return s.payment.GatewayURL + "?" + q.Encode()
}
