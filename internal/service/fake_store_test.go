package service

import (
	"context"
	"sync"
	"time"

	"paygate/internal/models"
	"paygate/internal/store"
)

// fakeStore is an in-memory OrderStore with the same conditional-transition
// semantics as the Postgres store, for exercising the services without a
// database.
type fakeStore struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	nextID    int64
	dupFirstN int // fail the first N creates with ErrDuplicateOrderNo
	applied   int // count of transitions that actually applied
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: map[string]*models.Order{}}
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dupFirstN > 0 {
		f.dupFirstN--
		return store.ErrDuplicateOrderNo
	}
	if _, exists := f.orders[order.OrderNo]; exists {
		return store.ErrDuplicateOrderNo
	}

	f.nextID++
	order.ID = f.nextID
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := *order
	f.orders[order.OrderNo] = &stored
	return nil
}

func (f *fakeStore) GetOrderByOrderNo(_ context.Context, orderNo string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderNo]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	snapshot := *order
	return &snapshot, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, orderNo, expected, next string, extra store.TransitionExtra) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderNo]
	if !ok || order.Status != expected {
		return false, nil
	}

	order.Status = next
	order.UpdatedAt = time.Now()
	if extra.ProviderTradeNo != "" {
		order.ProviderTradeNo.String = extra.ProviderTradeNo
		order.ProviderTradeNo.Valid = true
	}
	if extra.ProviderStatus != "" {
		order.ProviderStatus.String = extra.ProviderStatus
		order.ProviderStatus.Valid = true
	}
	if extra.PayMethod != "" {
		order.PayMethod = extra.PayMethod
	}
	f.applied++
	return true, nil
}

func (f *fakeStore) GetOrdersByClientID(_ context.Context, clientID string, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []models.Order
	for _, o := range f.orders {
		if o.ClientID == clientID {
			orders = append(orders, *o)
		}
		if limit > 0 && len(orders) >= limit {
			break
		}
	}
	return orders, nil
}

func (f *fakeStore) appliedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied
}
