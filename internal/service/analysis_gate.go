package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paygate/internal/models"
	"paygate/internal/store"
	"paygate/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotPaid         = errors.New("order not paid")
	ErrAlreadyConsumed = errors.New("order already consumed for analysis")
)

// AnalysisGate redeems a paid order for the downstream analysis call. Each
// order can be consumed at most once; concurrent callers race on the
// conditional transition and exactly one wins.
type AnalysisGate struct {
	store     OrderStore
	publisher EventPublisher
	cache     StatusCache
	logger    *zap.Logger
}

// NewAnalysisGate creates a new analysis gate
func NewAnalysisGate(store OrderStore, publisher EventPublisher, cache StatusCache) *AnalysisGate {
	return &AnalysisGate{
		store:     store,
		publisher: publisher,
		cache:     cache,
		logger:    util.GetLogger(),
	}
}

// ConsumeForAnalysis moves the order paid->analyzed and returns the snapshot
// taken before the mutation for downstream use. Callers must only perform
// the paid action when this returns without error.
func (g *AnalysisGate) ConsumeForAnalysis(ctx context.Context, orderNo string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "AnalysisGate.ConsumeForAnalysis")
	defer span.End()

	order, err := g.store.GetOrderByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			util.AnalysesRejectedTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	switch order.Status {
	case models.OrderStatusAnalyzed:
		util.AnalysesRejectedTotal.WithLabelValues("already_consumed").Inc()
		return nil, ErrAlreadyConsumed
	case models.OrderStatusPaid:
		// fall through to the conditional transition
	default:
		util.AnalysesRejectedTotal.WithLabelValues("not_paid").Inc()
		return nil, ErrNotPaid
	}

	applied, err := g.store.TransitionStatus(ctx, orderNo,
		models.OrderStatusPaid, models.OrderStatusAnalyzed, store.TransitionExtra{})
	if err != nil {
		return nil, fmt.Errorf("failed to consume order: %w", err)
	}
	if !applied {
		// A concurrent caller redeemed the order first.
		util.AnalysesRejectedTotal.WithLabelValues("already_consumed").Inc()
		return nil, ErrAlreadyConsumed
	}

	util.AnalysesConsumedTotal.Inc()
	g.logger.Info("Order consumed for analysis",
		zap.String("order_no", orderNo),
		zap.String("client_id", order.ClientID))

	if g.cache != nil {
		if err := g.cache.SetOrderStatus(ctx, orderNo, models.OrderStatusAnalyzed, order.ClientID); err != nil {
			g.logger.Warn("Failed to refresh status cache", zap.Error(err))
		}
	}

	if g.publisher != nil {
		event := &models.OrderAnalyzedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderAnalyzed,
				Timestamp: time.Now(),
			},
			OrderNo:  orderNo,
			ClientID: order.ClientID,
		}
		if err := g.publisher.PublishOrderAnalyzed(ctx, event); err != nil {
			g.logger.Error("Failed to publish OrderAnalyzed event", zap.Error(err))
		}
	}

	return order, nil
}
