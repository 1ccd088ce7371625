package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses.
//
// The codes fall into five families: validation (malformed input),
// eligibility (business rules reported with a specific reason),
// integrity (client/server price mismatch, deliberately unspecific),
// state (operation not allowed from the current status) and
// external (a collaborator failed).
const (
	// Validation
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeNoOrderItems    = "NO_ORDER_ITEMS"
	ErrCodeInvalidAmount   = "INVALID_AMOUNT"

	// Eligibility
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeReturnNotFound     = "RETURN_NOT_FOUND"
	ErrCodeCouponNotFound     = "COUPON_NOT_FOUND"
	ErrCodeCouponExists       = "COUPON_ALREADY_EXISTS"
	ErrCodeCouponInactive     = "COUPON_INACTIVE"
	ErrCodeCouponNotYetValid  = "COUPON_NOT_YET_VALID"
	ErrCodeCouponExpired      = "COUPON_EXPIRED"
	ErrCodeCouponUsageLimit   = "COUPON_USAGE_LIMIT"
	ErrCodeCouponMinPurchase  = "COUPON_MINIMUM_NOT_MET"
	ErrCodeCouponUserLimit    = "COUPON_USER_LIMIT"
	ErrCodeNotOrderOwner      = "NOT_ORDER_OWNER"
	ErrCodeOrderNotPaid       = "ORDER_NOT_PAID"
	ErrCodeOrderNotDelivered  = "ORDER_NOT_DELIVERED"
	ErrCodeReturnWindowClosed = "RETURN_WINDOW_EXPIRED"
	ErrCodeReturnExists       = "RETURN_ALREADY_EXISTS"
	ErrCodeReturnQtyExceeded  = "RETURN_QTY_EXCEEDED"
	ErrCodeItemNotInOrder     = "ITEM_NOT_IN_ORDER"
	ErrCodeRefundBounds       = "REFUND_OUT_OF_BOUNDS"

	// Integrity
	ErrCodePriceMismatch = "PRICE_MISMATCH"

	// State
	ErrCodeInvalidState = "INVALID_STATE"
	ErrCodeConflict     = "CONFLICT"

	// External / infrastructure
	ErrCodeSettlementFailed = "SETTLEMENT_FAILED"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// DomainError carries a stable code alongside a user-facing message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that dynamically constructed
// errors (state errors, settlement errors) compare equal to their
// sentinel under errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewStateError reports an operation attempted from a status that does
// not permit it, naming the required status so a client can explain the
// block.
func NewStateError(current, required string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("operation not allowed in status %q, requires status %q", current, required),
	}
}

// NewTransitionError reports a return status transition the state
// machine does not permit.
func NewTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("cannot transition return from %q to %q", from, to),
	}
}

// NewSettlementError wraps a payment collaborator failure.
func NewSettlementError(cause error) *DomainError {
	return &DomainError{
		Code:    ErrCodeSettlementFailed,
		Message: fmt.Sprintf("refund settlement failed: %v", cause),
	}
}

// Common domain errors.
var (
	ErrNoOrderItems       = NewDomainError(ErrCodeNoOrderItems, "Order must contain at least one item")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrReturnNotFound     = NewDomainError(ErrCodeReturnNotFound, "Return not found")
	ErrCouponNotFound     = NewDomainError(ErrCodeCouponNotFound, "Coupon not found. Please check the code and try again")
	ErrCouponExists       = NewDomainError(ErrCodeCouponExists, "A coupon with this code already exists")
	ErrCouponInactive     = NewDomainError(ErrCodeCouponInactive, "This coupon is currently inactive")
	ErrCouponNotYetValid  = NewDomainError(ErrCodeCouponNotYetValid, "This coupon is not valid yet")
	ErrCouponExpired      = NewDomainError(ErrCodeCouponExpired, "This coupon has expired")
	ErrCouponUsageLimit   = NewDomainError(ErrCodeCouponUsageLimit, "This coupon has reached its usage limit")
	ErrCouponMinPurchase  = NewDomainError(ErrCodeCouponMinPurchase, "Minimum purchase amount not met for this coupon")
	ErrCouponUserLimit    = NewDomainError(ErrCodeCouponUserLimit, "You have already used this coupon the maximum number of times")
	ErrNotOrderOwner      = NewDomainError(ErrCodeNotOrderOwner, "Not authorised to act on this order")
	ErrOrderNotPaid       = NewDomainError(ErrCodeOrderNotPaid, "Order must be paid before initiating a return")
	ErrOrderNotDelivered  = NewDomainError(ErrCodeOrderNotDelivered, "Order must be delivered before initiating a return")
	ErrReturnWindowClosed = NewDomainError(ErrCodeReturnWindowClosed, "Return window has expired. Returns must be initiated within 30 days of purchase")
	ErrReturnExists       = NewDomainError(ErrCodeReturnExists, "A return request already exists for this order")
	ErrReturnQtyExceeded  = NewDomainError(ErrCodeReturnQtyExceeded, "Cannot return more items than were ordered")
	ErrItemNotInOrder     = NewDomainError(ErrCodeItemNotInOrder, "One or more items do not belong to this order")
	ErrConcurrentUpdate   = NewDomainError(ErrCodeConflict, "The record was modified concurrently, please retry")
	ErrRefundExceedsTotal = NewDomainError(ErrCodeRefundBounds, "Refund amount cannot exceed the total return amount")
	ErrRefundNegative     = NewDomainError(ErrCodeRefundBounds, "Final refund amount cannot be negative")
	ErrPriceMismatch      = NewDomainError(ErrCodePriceMismatch, "Unable to process order")
)
