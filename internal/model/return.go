package model

import (
	"time"

	"github.com/google/uuid"
)

// ReturnStatus is the lifecycle state of a return request.
type ReturnStatus string

// Return lifecycle states.
const (
	ReturnPending         ReturnStatus = "pending"
	ReturnApproved        ReturnStatus = "approved"
	ReturnRejected        ReturnStatus = "rejected"
	ReturnShippedBack     ReturnStatus = "shipped_back"
	ReturnReceived        ReturnStatus = "received"
	ReturnInspecting      ReturnStatus = "inspecting"
	ReturnApprovedRefund  ReturnStatus = "approved_refund"
	ReturnRefundProcessed ReturnStatus = "refund_processed"
	ReturnCompleted       ReturnStatus = "completed"
	ReturnCancelled       ReturnStatus = "cancelled"
)

// returnTransitions is the forward edge set of the return state
// machine. Cancellation is allowed from any non-terminal state before
// money has moved.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnPending:         {ReturnApproved, ReturnRejected, ReturnCancelled},
	ReturnApproved:        {ReturnShippedBack, ReturnCancelled},
	ReturnShippedBack:     {ReturnReceived, ReturnCancelled},
	ReturnReceived:        {ReturnInspecting, ReturnApprovedRefund, ReturnRejected, ReturnCancelled},
	ReturnInspecting:      {ReturnApprovedRefund, ReturnRejected, ReturnCancelled},
	ReturnApprovedRefund:  {ReturnRefundProcessed, ReturnCancelled},
	ReturnRefundProcessed: {ReturnCompleted},
}

// IsValid reports whether s is a known return status.
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnPending, ReturnApproved, ReturnRejected, ReturnShippedBack,
		ReturnReceived, ReturnInspecting, ReturnApprovedRefund,
		ReturnRefundProcessed, ReturnCompleted, ReturnCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnRejected || s == ReturnCompleted || s == ReturnCancelled
}

// CanTransitionTo reports whether the state machine permits moving from
// s to next.
func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	for _, allowed := range returnTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReturnItem records one order line (or part of it) being returned.
// UnitPrice and Quantity are copied from the order line so the refund
// entitlement survives later catalogue changes.
type ReturnItem struct {
	OrderItemID  uuid.UUID `json:"orderItemId"`
	ProductID    string    `json:"productId"`
	Name         string    `json:"name"`
	UnitPrice    float64   `json:"unitPrice"`
	Quantity     int       `json:"quantity"`
	ReturnQty    int       `json:"returnQty"`
	SelectedSize *string   `json:"selectedSize,omitempty"`
	Reason       string    `json:"reason"`
	Condition    string    `json:"condition"`
	RefundAmount float64   `json:"refundAmount"`
}

// StatusChange is one entry in a return's audit trail.
type StatusChange struct {
	Status    ReturnStatus `json:"status"`
	Date      time.Time    `json:"date"`
	UpdatedBy string       `json:"updatedBy"`
	Notes     string       `json:"notes,omitempty"`
}

// ItemCheck is the inspection verdict for a single returned item.
type ItemCheck struct {
	OrderItemID uuid.UUID `json:"orderItemId"`
	Condition   string    `json:"condition"`
	Notes       string    `json:"notes,omitempty"`
}

// QualityCheck records the warehouse inspection outcome.
type QualityCheck struct {
	CheckedBy         string      `json:"checkedBy"`
	CheckDate         time.Time   `json:"checkDate"`
	OverallCondition  string      `json:"overallCondition"`
	ItemChecks        []ItemCheck `json:"itemChecks,omitempty"`
	Approved          bool        `json:"approved"`
	FinalRefundAmount float64     `json:"finalRefundAmount"`
	Restockable       bool        `json:"restockable"`
	Notes             string      `json:"notes,omitempty"`
}

// RefundInfo records the executed settlement.
type RefundInfo struct {
	Method             string    `json:"method"`
	Amount             float64   `json:"amount"`
	Date               time.Time `json:"date"`
	TransactionID      string    `json:"transactionId"`
	RestockingFee      float64   `json:"restockingFee"`
	ReturnShippingCost float64   `json:"returnShippingCost"`
	ProcessedBy        string    `json:"processedBy"`
}

// Return represents a return request through its whole lifecycle.
type Return struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	ReturnNumber      string         `json:"returnNumber" db:"return_number"`
	OrderID           uuid.UUID      `json:"orderId" db:"order_id"`
	UserID            uuid.UUID      `json:"userId" db:"user_id"`
	Status            ReturnStatus   `json:"status" db:"status"`
	Items             []ReturnItem   `json:"items" db:"items"`
	Reason            string         `json:"reason" db:"reason"`
	DetailedReason    string         `json:"detailedReason,omitempty" db:"detailed_reason"`
	CustomerNotes     string         `json:"customerNotes,omitempty" db:"customer_notes"`
	TotalRefundAmount float64        `json:"totalRefundAmount" db:"total_refund_amount"`
	ReturnDate        *time.Time     `json:"returnDate,omitempty" db:"return_date"`
	StatusHistory     []StatusChange `json:"statusHistory" db:"status_history"`
	QualityCheck      *QualityCheck  `json:"qualityCheck,omitempty" db:"quality_check"`
	RefundInfo        *RefundInfo    `json:"refundInfo,omitempty" db:"refund_info"`
	CreatedAt         time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time      `json:"updatedAt" db:"updated_at"`
}

// CreateReturnRequest is the customer payload for initiating a return.
type CreateReturnRequest struct {
	OrderID        uuid.UUID           `json:"orderId"`
	Items          []ReturnItemRequest `json:"items"`
	Reason         string              `json:"reason"`
	DetailedReason string              `json:"detailedReason,omitempty"`
	CustomerNotes  string              `json:"customerNotes,omitempty"`
}

// ReturnItemRequest names one order line and how many units come back.
type ReturnItemRequest struct {
	OrderItemID uuid.UUID `json:"orderItemId"`
	ReturnQty   int       `json:"returnQty"`
	Reason      string    `json:"reason,omitempty"`
	Condition   string    `json:"condition,omitempty"`
}

// UpdateReturnStatusRequest is the admin payload for advancing a
// return through its lifecycle.
type UpdateReturnStatusRequest struct {
	Status ReturnStatus `json:"status"`
	Notes  string       `json:"notes,omitempty"`
}

// QualityCheckRequest is the admin payload for recording an inspection.
type QualityCheckRequest struct {
	OverallCondition  string      `json:"overallCondition"`
	ItemChecks        []ItemCheck `json:"itemChecks,omitempty"`
	Approved          bool        `json:"approved"`
	FinalRefundAmount *float64    `json:"finalRefundAmount,omitempty"`
	Restockable       bool        `json:"restockable"`
	Notes             string      `json:"notes,omitempty"`
}

// ProcessRefundRequest is the admin payload for executing the refund of
// an approved return.
type ProcessRefundRequest struct {
	RefundAmount       *float64 `json:"refundAmount,omitempty"`
	RefundMethod       string   `json:"refundMethod"`
	RestockingFee      float64  `json:"restockingFee"`
	ReturnShippingCost float64  `json:"returnShippingCost"`
	Notes              string   `json:"notes,omitempty"`
}
