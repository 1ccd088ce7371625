package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"atelier-commerce/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// userIDHeader carries the authenticated customer identity, set by the
// gateway in front of this service.
const userIDHeader = "X-User-ID"

// statusByCode maps stable domain error codes to HTTP statuses. Codes
// not listed here are treated as internal errors.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:     http.StatusBadRequest,
	model.ErrCodeMissingField:    http.StatusBadRequest,
	model.ErrCodeInvalidQuantity: http.StatusBadRequest,
	model.ErrCodeNoOrderItems:    http.StatusBadRequest,
	model.ErrCodeInvalidAmount:   http.StatusBadRequest,

	model.ErrCodeProductNotFound: http.StatusNotFound,
	model.ErrCodeOrderNotFound:   http.StatusNotFound,
	model.ErrCodeReturnNotFound:  http.StatusNotFound,
	model.ErrCodeCouponNotFound:  http.StatusNotFound,

	model.ErrCodeCouponExists: http.StatusConflict,
	model.ErrCodeReturnExists: http.StatusConflict,
	model.ErrCodeConflict:     http.StatusConflict,
	model.ErrCodeInvalidState: http.StatusConflict,

	model.ErrCodeCouponInactive:     http.StatusBadRequest,
	model.ErrCodeCouponNotYetValid:  http.StatusBadRequest,
	model.ErrCodeCouponExpired:      http.StatusBadRequest,
	model.ErrCodeCouponUsageLimit:   http.StatusBadRequest,
	model.ErrCodeCouponMinPurchase:  http.StatusBadRequest,
	model.ErrCodeCouponUserLimit:    http.StatusBadRequest,
	model.ErrCodeOrderNotPaid:       http.StatusBadRequest,
	model.ErrCodeOrderNotDelivered:  http.StatusBadRequest,
	model.ErrCodeReturnWindowClosed: http.StatusBadRequest,
	model.ErrCodeReturnQtyExceeded:  http.StatusBadRequest,
	model.ErrCodeItemNotInOrder:     http.StatusBadRequest,
	model.ErrCodeRefundBounds:       http.StatusBadRequest,
	model.ErrCodePriceMismatch:      http.StatusBadRequest,

	model.ErrCodeNotOrderOwner: http.StatusForbidden,
	model.ErrCodeUnauthorised:  http.StatusUnauthorized,
	model.ErrCodeForbidden:     http.StatusForbidden,

	model.ErrCodeSettlementFailed: http.StatusBadGateway,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are gone by now; nothing useful left to do.
		return
	}
}

// writeError writes an error response with the given status code and
// message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError translates a service error into an HTTP response.
// Non-domain errors become an opaque 500.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		writeError(w, status, de.Code, de.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

// decodeJSON decodes the request body into dst, rejecting unknown
// fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

// userIDFrom reads the optional customer identity header. A missing or
// malformed header yields nil: the caller is anonymous.
func userIDFrom(r *http.Request) *uuid.UUID {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// requireUserID reads the customer identity header and writes a 401
// when it is absent or malformed.
func requireUserID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	id := userIDFrom(r)
	if id == nil {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "user identity required", logger)
		return uuid.Nil, false
	}
	return *id, true
}

// actorFrom identifies who performed a back-office action, for audit
// trails. Falls back to "system" for machine callers.
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get(userIDHeader); actor != "" {
		return actor
	}
	return "system"
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}
