// Package payment defines the gateway capability the core depends on.
// Concrete provider adapters live outside this module; the core only
// authorizes, captures, refunds and voids through this interface and maps
// provider failures onto stable error codes.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
)

// Authorization states. Only ACTIVE authorizations may be captured or
// voided; only captured ones may be refunded.
const (
	StateActive   = "ACTIVE"
	StateCaptured = "CAPTURED"
	StateVoided   = "VOIDED"
	StateRefunded = "REFUNDED"
)

// Authorization is one hold placed against a payment source.
type Authorization struct {
	ID        string
	SourceID  string
	Amount    decimal.Decimal
	Currency  string
	State     string
	CreatedAt time.Time
}

// Source is one stored payment instrument of a user.
type Source struct {
	ID        string
	Kind      string // CARD, BANK
	Label     string // masked display label
	IsDefault bool
}

// Gateway is the provider capability. Implementations translate their own
// failures into the sentinel errors below before returning.
type Gateway interface {
	Authorize(ctx context.Context, sourceID string, amount decimal.Decimal, currency string) (Authorization, error)
	Capture(ctx context.Context, authorizationID string) (Authorization, error)
	Refund(ctx context.Context, authorizationID string, amount decimal.Decimal) (Authorization, error)
	Void(ctx context.Context, authorizationID string) (Authorization, error)
	ListSources(ctx context.Context, userID uint64) ([]Source, error)
}

// Sentinel errors adapters must return for state-machine violations.
var (
	ErrCaptureInactive = errors.New("payment: capture on non-active authorization")
	ErrVoidInactive    = errors.New("payment: void on non-active authorization")
	ErrCannotRefund    = errors.New("payment: refund on non-captured authorization")
)

// CodeFor maps a gateway error to its stable API error code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrCaptureInactive):
		return apperr.CodeCaptureInactivePayment
	case errors.Is(err, ErrVoidInactive):
		return apperr.CodeVoidInactivePayment
	case errors.Is(err, ErrCannotRefund):
		return apperr.CodeCannotRefund
	default:
		return apperr.CodePaymentError
	}
}
