package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MockRefunder is a configurable in-process refund provider. It backs
// local development and tests; production deployments swap in a real
// provider behind the same interface.
type MockRefunder struct {
	mu sync.Mutex

	// FailWith, when non-nil, is returned from every Refund call.
	FailWith error

	logger zerolog.Logger
	calls  []RefundRequest
}

// NewMockRefunder creates a mock refund provider that approves every
// settlement.
func NewMockRefunder(logger zerolog.Logger) *MockRefunder {
	return &MockRefunder{
		logger: logger.With().Str("component", "mock-refunder").Logger(),
	}
}

// Refund records the request and returns a synthetic confirmation.
func (m *MockRefunder) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.FailWith != nil {
		m.logger.Warn().
			Str("order_id", req.OrderID).
			Float64("amount", req.Amount).
			Err(m.FailWith).
			Msg("simulating refund failure")
		return nil, m.FailWith
	}

	result := &RefundResult{
		TransactionID: "mock-rf-" + uuid.NewString(),
		Status:        "succeeded",
	}

	m.logger.Info().
		Str("order_id", req.OrderID).
		Str("return_number", req.ReturnNumber).
		Float64("amount", req.Amount).
		Str("transaction_id", result.TransactionID).
		Msg("refund settled")

	return result, nil
}

// Calls returns a copy of every refund request seen so far.
func (m *MockRefunder) Calls() []RefundRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RefundRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
