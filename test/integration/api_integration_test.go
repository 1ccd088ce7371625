package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier-commerce/internal/coupon"
	"atelier-commerce/internal/event"
	"atelier-commerce/internal/handler"
	"atelier-commerce/internal/metrics"
	"atelier-commerce/internal/model"
	"atelier-commerce/internal/payment"
	"atelier-commerce/internal/repository"
	"atelier-commerce/internal/router"
	"atelier-commerce/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, testDB *TestDB) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	couponRepo := repository.NewCouponRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	returnRepo := repository.NewReturnRepository(testDB.Pool, logger)

	publisher := event.NopPublisher{}
	commerceMetrics := metrics.NewCommerceMetricsWithRegisterer(prometheus.NewRegistry())
	validator := coupon.NewValidator(orderRepo, logger)
	refunder := payment.NewMockRefunder(logger)

	productService := service.NewProductService(productRepo, logger)
	couponService := service.NewCouponService(couponRepo, validator, commerceMetrics, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, couponRepo, validator, publisher, commerceMetrics, logger)
	returnService := service.NewReturnService(returnRepo, orderRepo, publisher, commerceMetrics, logger)
	refundService := service.NewRefundService(returnRepo, orderRepo, refunder, publisher, commerceMetrics, logger)

	productHandler := handler.NewProductHandler(productService, logger)
	couponHandler := handler.NewCouponHandler(couponService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	returnHandler := handler.NewReturnHandler(returnService, refundService, logger)

	return router.New(productHandler, couponHandler, orderHandler, returnHandler, "test-api-key", logger)
}

// doJSON issues an authenticated JSON request against the test server.
func doJSON(t *testing.T, server http.Handler, method, path string, payload any, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "test-api-key")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	return w
}

func TestProductAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	t.Run("GET /api/products returns all products", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := doJSON(t, server, http.MethodGet, "/api/products", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var products []model.Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&products))
		assert.Len(t, products, 5)
	})

	t.Run("GET /api/products with pagination", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := doJSON(t, server, http.MethodGet, "/api/products?limit=2&offset=0", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var products []model.Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&products))
		assert.Len(t, products, 2)
	})

	t.Run("GET /api/products/{id} returns specific product", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := doJSON(t, server, http.MethodGet, "/api/products/P001", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var product model.Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&product))
		assert.Equal(t, "P001", product.ID)
		assert.Equal(t, "Oxford Shirt", product.Name)
	})

	t.Run("GET /api/products/{id} returns 404 for non-existent product", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := doJSON(t, server, http.MethodGet, "/api/products/P999", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GET /api/products without API key returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("GET /health returns 200 without API key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCheckoutAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	t.Run("POST /api/orders verifies client totals and persists", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		// 2x Merino Scarf: items 71.00, shipping 10, tax 10.65.
		checkout := &model.CheckoutRequest{
			Items: []model.CheckoutItem{
				{ProductID: "P003", Quantity: 2},
			},
			PaymentMethod: "card",
			ItemsPrice:    71.00,
			ShippingPrice: 10,
			TaxPrice:      10.65,
			TotalPrice:    91.65,
		}

		w := doJSON(t, server, http.MethodPost, "/api/orders", checkout, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var order model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
		assert.Equal(t, 91.65, order.TotalPrice)
		require.Len(t, order.Items, 1)

		// Stock deduction is applied after commit.
		product := getProduct(t, server, "P003")
		assert.Equal(t, 78, product.CountInStock)
	})

	t.Run("POST /api/orders rejects tampered totals", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		checkout := &model.CheckoutRequest{
			Items: []model.CheckoutItem{
				{ProductID: "P003", Quantity: 2},
			},
			PaymentMethod: "card",
			ItemsPrice:    71.00,
			ShippingPrice: 10,
			TaxPrice:      10.65,
			TotalPrice:    9.99,
		}

		w := doJSON(t, server, http.MethodPost, "/api/orders", checkout, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp model.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Unable to process order", resp.Message)
	})

	t.Run("POST /api/orders redeems a coupon", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		createCoupon(t, server, "SUMMER20", model.DiscountPercentage, 20, 50)

		// 2x Merino Scarf + 1x Leather Belt: items 113.00, 20% off ->
		// 90.40 discounted, shipping 10, tax 13.56.
		code := "SUMMER20"
		checkout := &model.CheckoutRequest{
			Items: []model.CheckoutItem{
				{ProductID: "P003", Quantity: 2},
				{ProductID: "P005", Quantity: 1},
			},
			PaymentMethod:  "card",
			CouponCode:     &code,
			ItemsPrice:     113.00,
			DiscountAmount: 22.60,
			ShippingPrice:  10,
			TaxPrice:       13.56,
			TotalPrice:     113.96,
		}

		w := doJSON(t, server, http.MethodPost, "/api/orders", checkout, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var order model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
		require.NotNil(t, order.AppliedCoupon)
		assert.Equal(t, "SUMMER20", order.AppliedCoupon.Code)
		assert.Equal(t, 22.60, order.AppliedCoupon.DiscountAmount)
	})

	t.Run("POST /api/orders fails with non-existent product", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		checkout := &model.CheckoutRequest{
			Items: []model.CheckoutItem{
				{ProductID: "P999", Quantity: 1},
			},
			PaymentMethod: "card",
		}

		w := doJSON(t, server, http.MethodPost, "/api/orders", checkout, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("POST /api/orders fails with invalid quantity", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		checkout := &model.CheckoutRequest{
			Items: []model.CheckoutItem{
				{ProductID: "P003", Quantity: -1},
			},
			PaymentMethod: "card",
		}

		w := doJSON(t, server, http.MethodPost, "/api/orders", checkout, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReturnLifecycleAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)

	userID := "3f1c2b6a-9d4e-4a6f-8c3b-2e1d5a7b9c0f"

	// Place and fulfil an order: 2x Merino Scarf.
	checkout := &model.CheckoutRequest{
		Items: []model.CheckoutItem{
			{ProductID: "P003", Quantity: 2},
		},
		PaymentMethod: "card",
		ItemsPrice:    71.00,
		ShippingPrice: 10,
		TaxPrice:      10.65,
		TotalPrice:    91.65,
	}
	w := doJSON(t, server, http.MethodPost, "/api/orders", checkout, userID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order model.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	require.Len(t, order.Items, 1)

	w = doJSON(t, server, http.MethodPost, "/api/orders/"+order.ID.String()+"/pay", map[string]string{"paymentRef": "pay_x1"}, userID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodPost, "/api/orders/"+order.ID.String()+"/deliver", nil, userID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Customer returns one scarf.
	returnReq := &model.CreateReturnRequest{
		OrderID: order.ID,
		Items: []model.ReturnItemRequest{
			{OrderItemID: order.Items[0].ID, ReturnQty: 1, Condition: "unopened"},
		},
		Reason: "changed_mind",
	}
	w = doJSON(t, server, http.MethodPost, "/api/returns", returnReq, userID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ret model.Return
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ret))
	assert.Equal(t, model.ReturnPending, ret.Status)
	assert.Equal(t, 35.50, ret.TotalRefundAmount)

	// A second return for the same order is refused while one is open.
	w = doJSON(t, server, http.MethodPost, "/api/returns", returnReq, userID)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Admin walks the return to the warehouse.
	for _, status := range []model.ReturnStatus{model.ReturnApproved, model.ReturnShippedBack, model.ReturnReceived} {
		w = doJSON(t, server, http.MethodPut, "/api/returns/"+ret.ID.String()+"/status",
			&model.UpdateReturnStatusRequest{Status: status}, userID)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Arrival at the warehouse stamped the return date.
	w = doJSON(t, server, http.MethodGet, "/api/returns/"+ret.ID.String(), nil, userID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ret))
	require.NotNil(t, ret.ReturnDate)

	// Inspection approves the full entitlement.
	w = doJSON(t, server, http.MethodPost, "/api/returns/"+ret.ID.String()+"/quality-check",
		&model.QualityCheckRequest{OverallCondition: "good", Approved: true, Restockable: true}, userID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, json.NewDecoder(w.Body).Decode(&ret))
	assert.Equal(t, model.ReturnApprovedRefund, ret.Status)
	require.NotNil(t, ret.QualityCheck)
	assert.Equal(t, 35.50, ret.QualityCheck.FinalRefundAmount)

	// Refund settles net of the restocking fee.
	w = doJSON(t, server, http.MethodPost, "/api/returns/"+ret.ID.String()+"/refund",
		&model.ProcessRefundRequest{RefundMethod: "original_payment", RestockingFee: 0.50}, userID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, json.NewDecoder(w.Body).Decode(&ret))
	assert.Equal(t, model.ReturnRefundProcessed, ret.Status)
	require.NotNil(t, ret.RefundInfo)
	assert.Equal(t, 35.00, ret.RefundInfo.Amount)
	assert.NotEmpty(t, ret.RefundInfo.TransactionID)

	// The order carries the cumulative refund; it is partial, so the
	// order is not flagged fully refunded.
	w = doJSON(t, server, http.MethodGet, "/api/orders/"+order.ID.String(), nil, userID)
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed model.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&refreshed))
	assert.Equal(t, 35.00, refreshed.RefundAmount)
	assert.True(t, refreshed.RefundProcessed)
	assert.False(t, refreshed.IsRefunded)
}

func TestCORS_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	t.Run("OPTIONS request returns CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
	})
}

func getProduct(t *testing.T, server http.Handler, id string) *model.Product {
	t.Helper()

	w := doJSON(t, server, http.MethodGet, "/api/products/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var product model.Product
	require.NoError(t, json.NewDecoder(w.Body).Decode(&product))
	return &product
}

func createCoupon(t *testing.T, server http.Handler, code, discountType string, value, minPurchase float64) {
	t.Helper()

	payload := map[string]any{
		"code":                  code,
		"discountType":          discountType,
		"discountValue":         value,
		"minimumPurchaseAmount": minPurchase,
		"validFrom":             "2020-01-01T00:00:00Z",
		"validUntil":            "2040-01-01T00:00:00Z",
	}
	w := doJSON(t, server, http.MethodPost, "/api/coupons", payload, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
