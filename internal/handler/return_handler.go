package handler

import (
	"net/http"
	"strconv"

	"atelier-commerce/internal/model"
	"atelier-commerce/internal/service"

	"github.com/rs/zerolog"
)

// ReturnHandler handles return and refund HTTP requests.
type ReturnHandler struct {
	returns service.ReturnService
	refunds service.RefundService
	logger  zerolog.Logger
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(returns service.ReturnService, refunds service.RefundService, logger zerolog.Logger) *ReturnHandler {
	return &ReturnHandler{
		returns: returns,
		refunds: refunds,
		logger:  logger.With().Str("handler", "return").Logger(),
	}
}

// Create handles POST /api/returns requests.
func (h *ReturnHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CreateReturnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ret, err := h.returns.Create(r.Context(), userID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, ret)
}

// GetByID handles GET /api/returns/{id} requests.
func (h *ReturnHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	returnID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid return ID format", h.logger)
		return
	}

	ret, err := h.returns.GetByID(r.Context(), returnID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if ret == nil {
		writeDomainError(w, model.ErrReturnNotFound, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ret)
}

// ListMine handles GET /api/returns/mine requests.
func (h *ReturnHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	returns, err := h.returns.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, returns)
}

// List handles GET /api/returns requests for back-office review, with
// an optional status filter and pagination.
func (h *ReturnHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *model.ReturnStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.ReturnStatus(raw)
		if !s.IsValid() {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidState, "unknown return status", h.logger)
			return
		}
		status = &s
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidAmount, "invalid limit parameter", h.logger)
			return
		}
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		var err error
		offset, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidAmount, "invalid offset parameter", h.logger)
			return
		}
	}

	returns, err := h.returns.List(r.Context(), status, limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, returns)
}

// UpdateStatus handles PUT /api/returns/{id}/status requests.
func (h *ReturnHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	returnID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid return ID format", h.logger)
		return
	}

	var req model.UpdateReturnStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ret, err := h.returns.UpdateStatus(r.Context(), returnID, actorFrom(r), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ret)
}

// QualityCheck handles POST /api/returns/{id}/quality-check requests.
func (h *ReturnHandler) QualityCheck(w http.ResponseWriter, r *http.Request) {
	returnID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid return ID format", h.logger)
		return
	}

	var req model.QualityCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ret, err := h.returns.QualityCheck(r.Context(), returnID, actorFrom(r), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ret)
}

// ProcessRefund handles POST /api/returns/{id}/refund requests.
func (h *ReturnHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	returnID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid return ID format", h.logger)
		return
	}

	var req model.ProcessRefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	ret, err := h.refunds.ProcessRefund(r.Context(), returnID, actorFrom(r), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ret)
}
