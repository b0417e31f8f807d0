package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"paygate/config"
	"paygate/internal/models"
	"paygate/internal/orderid"
	"paygate/internal/service"
	"paygate/internal/sign"
	"paygate/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	nextID int64
}

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.OrderNo]; ok {
		return store.ErrDuplicateOrderNo
	}
	m.nextID++
	order.ID = m.nextID
	stored := *order
	m.orders[order.OrderNo] = &stored
	return nil
}

func (m *memStore) GetOrderByOrderNo(_ context.Context, orderNo string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderNo]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	snapshot := *order
	return &snapshot, nil
}

func (m *memStore) TransitionStatus(_ context.Context, orderNo, expected, next string, extra store.TransitionExtra) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderNo]
	if !ok || order.Status != expected {
		return false, nil
	}
	order.Status = next
	if extra.ProviderTradeNo != "" {
		order.ProviderTradeNo.String = extra.ProviderTradeNo
		order.ProviderTradeNo.Valid = true
	}
	return true, nil
}

func (m *memStore) GetOrdersByClientID(_ context.Context, clientID string, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []models.Order
	for _, o := range m.orders {
		if o.ClientID == clientID {
			orders = append(orders, *o)
		}
		if limit > 0 && len(orders) >= limit {
			break
		}
	}
	return orders, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, order *models.Order) (string, error) {
	return "analysis for " + order.OrderNo, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore, config.PaymentConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	payment := config.PaymentConfig{
		MerchantID:  "1001",
		Secret:      "secret",
		GatewayURL:  "https://pay.example.com/submit.php",
		NotifyURL:   "https://api.example.com/api/v1/payment/notify",
		ReturnURL:   "https://app.example.com/",
		ProductName: "AI image analysis",
		Amount:      "0.50",
	}

	ms := &memStore{orders: map[string]*models.Order{}}
	fixed := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)
	generator := orderid.NewWithClock(func() time.Time { return fixed }, 7)

	handler := NewHandler(
		service.NewCheckoutService(ms, generator, payment, nil, nil),
		service.NewWebhookService(ms, payment, nil, nil),
		service.NewAnalysisGate(ms, nil, nil),
		service.NewOrderQuery(ms, nil),
		stubAnalyzer{},
	)

	router := gin.New()
	handler.SetupRoutes(router)
	return router, ms, payment
}

func seedOrder(ms *memStore, orderNo, status string) {
	ms.orders[orderNo] = &models.Order{
		OrderNo:   orderNo,
		ClientID:  "u1",
		Amount:    "0.50",
		PayMethod: models.PayMethodAlipay,
		Status:    status,
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := strings.NewReader(`{"client_id":"u1","pay_method":"alipay"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"order_no"`)
	assert.Contains(t, w.Body.String(), "pay.example.com")
}

func TestCheckoutEndpointMissingClientID(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookEndpointRespondsBareToken(t *testing.T) {
	router, ms, payment := newTestRouter(t)
	seedOrder(ms, "20260219120000123", models.OrderStatusPending)

	params := map[string]string{
		"pid":          "1001",
		"trade_no":     "2026021922001",
		"out_trade_no": "20260219120000123",
		"type":         models.PayMethodAlipay,
		"money":        "0.50",
		"trade_status": "TRADE_SUCCESS",
	}
	params[sign.FieldSign] = sign.Sign(params, payment.Secret)

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/notify?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.TokenSuccess, w.Body.String())
	require.Equal(t, models.OrderStatusPaid, ms.orders["20260219120000123"].Status)
}

func TestWebhookEndpointRejectsForged(t *testing.T) {
	router, ms, _ := newTestRouter(t)
	seedOrder(ms, "20260219120000123", models.OrderStatusPending)

	q := url.Values{}
	q.Set("out_trade_no", "20260219120000123")
	q.Set("money", "0.50")
	q.Set("trade_status", "TRADE_SUCCESS")
	q.Set("sign", "0123456789abcdef0123456789abcdef")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/notify?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.TokenFail, w.Body.String())
	assert.Equal(t, models.OrderStatusPending, ms.orders["20260219120000123"].Status)
}

func TestAnalyzeEndpointStatusCodes(t *testing.T) {
	router, ms, _ := newTestRouter(t)
	seedOrder(ms, "20260219120000123", models.OrderStatusPaid)
	seedOrder(ms, "20260219120000124", models.OrderStatusPending)

	do := func(orderNo string) *httptest.ResponseRecorder {
		body := strings.NewReader(`{"order_no":"` + orderNo + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// paid order analyzes once
	w := do("20260219120000123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "analysis for 20260219120000123")

	// already consumed
	w = do("20260219120000123")
	assert.Equal(t, http.StatusConflict, w.Code)

	// not paid
	w = do("20260219120000124")
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	// unknown order
	w = do("20260219999999999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListClientOrdersEndpoint(t *testing.T) {
	router, ms, _ := newTestRouter(t)
	seedOrder(ms, "20260219120000123", models.OrderStatusPaid)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/u1/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "20260219120000123")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/clients/u1/orders?limit=0", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderStatusEndpoint(t *testing.T) {
	router, ms, _ := newTestRouter(t)
	seedOrder(ms, "20260219120000123", models.OrderStatusPaid)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/20260219120000123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"paid"`)
	assert.Contains(t, w.Body.String(), `"client_id":"u1"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/unknown", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
