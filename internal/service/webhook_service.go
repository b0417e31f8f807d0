package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"paygate/config"
	"paygate/internal/models"
	"paygate/internal/sign"
	"paygate/internal/store"
	"paygate/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provider acknowledgment tokens. The provider redelivers the webhook until
// it reads TokenSuccess from the response body.
const (
	TokenSuccess = "success"
	TokenFail    = "fail"
)

// Provider-reported status for a completed payment.
const tradeStatusSuccess = "TRADE_SUCCESS"

// WebhookService verifies provider callbacks and applies the pending->paid
// transition exactly once per order, however many deliveries arrive.
type WebhookService struct {
	store     OrderStore
	payment   config.PaymentConfig
	publisher EventPublisher
	cache     StatusCache
	logger    *zap.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	store OrderStore,
	payment config.PaymentConfig,
	publisher EventPublisher,
	cache StatusCache,
) *WebhookService {
	return &WebhookService{
		store:     store,
		payment:   payment,
		publisher: publisher,
		cache:     cache,
		logger:    util.GetLogger(),
	}
}

// HandleCallback processes one webhook delivery and returns the bare token
// the provider expects in the response body plus the HTTP status to use.
// Forged or inconsistent input (bad signature, unknown order, amount
// mismatch) is the only thing that earns a failure token; legitimate
// duplicates are always acknowledged so the provider stops retrying.
func (s *WebhookService) HandleCallback(ctx context.Context, params map[string]string) (string, int) {
	ctx, span := util.StartSpan(ctx, "WebhookService.HandleCallback")
	defer span.End()

	orderNo := params["out_trade_no"]

	if !sign.Verify(params, s.payment.Secret) {
		util.WebhookSignatureFailuresTotal.Inc()
		util.WebhookCallbacksTotal.WithLabelValues("signature_failure").Inc()
		s.logger.Warn("Webhook signature verification failed",
			zap.String("order_no", orderNo),
			zap.String("trade_no", params["trade_no"]))
		return TokenFail, http.StatusBadRequest
	}

	// Non-success notifications are acknowledged without state change so the
	// provider does not keep retrying them.
	if params["trade_status"] != tradeStatusSuccess {
		util.WebhookCallbacksTotal.WithLabelValues("non_success_status").Inc()
		s.logger.Info("Webhook reported non-success status",
			zap.String("order_no", orderNo),
			zap.String("trade_status", params["trade_status"]))
		return TokenSuccess, http.StatusOK
	}

	order, err := s.store.GetOrderByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			util.WebhookCallbacksTotal.WithLabelValues("unknown_order").Inc()
			s.logger.Warn("Webhook for unknown order", zap.String("order_no", orderNo))
			return TokenFail, http.StatusNotFound
		}
		util.WebhookCallbacksTotal.WithLabelValues("storage_error").Inc()
		s.logger.Error("Webhook order lookup failed", zap.Error(err))
		return TokenFail, http.StatusInternalServerError
	}

	// Idempotent duplicate: the order already moved past pending. Acknowledge
	// without re-verifying amount so a redelivery can never re-trigger side
	// effects.
	if order.Status != models.OrderStatusPending {
		util.WebhookCallbacksTotal.WithLabelValues("duplicate").Inc()
		return TokenSuccess, http.StatusOK
	}

	if order.Amount != params["money"] {
		util.WebhookAmountMismatchTotal.Inc()
		util.WebhookCallbacksTotal.WithLabelValues("amount_mismatch").Inc()
		s.logger.Warn("Webhook amount mismatch",
			zap.String("order_no", orderNo),
			zap.String("stored_amount", order.Amount),
			zap.String("reported_amount", params["money"]))
		return TokenFail, http.StatusBadRequest
	}

	applied, err := s.store.TransitionStatus(ctx, orderNo,
		models.OrderStatusPending, models.OrderStatusPaid,
		store.TransitionExtra{
			ProviderTradeNo: params["trade_no"],
			ProviderStatus:  params["trade_status"],
			PayMethod:       params["type"],
		})
	if err != nil {
		util.WebhookCallbacksTotal.WithLabelValues("storage_error").Inc()
		s.logger.Error("Webhook transition failed", zap.Error(err))
		return TokenFail, http.StatusInternalServerError
	}

	if !applied {
		// Lost the race to a concurrent delivery; the order is paid either way.
		util.WebhookCallbacksTotal.WithLabelValues("duplicate").Inc()
		return TokenSuccess, http.StatusOK
	}

	util.OrdersPaidTotal.Inc()
	util.WebhookCallbacksTotal.WithLabelValues("paid").Inc()
	s.logger.Info("Order paid",
		zap.String("order_no", orderNo),
		zap.String("trade_no", params["trade_no"]))

	if s.cache != nil {
		if err := s.cache.SetOrderStatus(ctx, orderNo, models.OrderStatusPaid, order.ClientID); err != nil {
			s.logger.Warn("Failed to refresh status cache", zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderNo:         orderNo,
			ProviderTradeNo: params["trade_no"],
			Amount:          order.Amount,
			PayMethod:       params["type"],
		}
		if err := s.publisher.PublishOrderPaid(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}
	}

	return TokenSuccess, http.StatusOK
}
