package router

import (
	"net/http"

	"atelier-commerce/internal/handler"
	"atelier-commerce/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	couponHandler *handler.CouponHandler,
	orderHandler *handler.OrderHandler,
	returnHandler *handler.ReturnHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health and metrics endpoints bypass authentication.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/products", productHandler.GetAll)
	mux.HandleFunc("GET /api/products/{id}", productHandler.GetByID)

	mux.HandleFunc("POST /api/coupons", couponHandler.Create)
	mux.HandleFunc("POST /api/coupons/apply", couponHandler.Apply)

	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders/mine", orderHandler.ListMine)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.GetByID)
	mux.HandleFunc("POST /api/orders/{id}/pay", orderHandler.Pay)
	mux.HandleFunc("POST /api/orders/{id}/deliver", orderHandler.Deliver)
	mux.HandleFunc("DELETE /api/orders/{id}", orderHandler.Delete)

	mux.HandleFunc("POST /api/returns", returnHandler.Create)
	mux.HandleFunc("GET /api/returns", returnHandler.List)
	mux.HandleFunc("GET /api/returns/mine", returnHandler.ListMine)
	mux.HandleFunc("GET /api/returns/{id}", returnHandler.GetByID)
	mux.HandleFunc("PUT /api/returns/{id}/status", returnHandler.UpdateStatus)
	mux.HandleFunc("POST /api/returns/{id}/quality-check", returnHandler.QualityCheck)
	mux.HandleFunc("POST /api/returns/{id}/refund", returnHandler.ProcessRefund)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
