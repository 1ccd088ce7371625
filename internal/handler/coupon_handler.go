package handler

import (
	"net/http"

	"atelier-commerce/internal/model"
	"atelier-commerce/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon-related HTTP requests.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Apply handles POST /api/coupons/apply requests. This is a dry run
// against the cart total; the coupon is only redeemed at checkout.
func (h *CouponHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req model.ApplyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	resp, err := h.service.Apply(r.Context(), userIDFrom(r), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/coupons requests.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	c, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}
