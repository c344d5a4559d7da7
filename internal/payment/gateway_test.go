package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
)

func TestCodeForSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrCaptureInactive, apperr.CodeCaptureInactivePayment},
		{ErrVoidInactive, apperr.CodeVoidInactivePayment},
		{ErrCannotRefund, apperr.CodeCannotRefund},
		{errors.New("provider timeout"), apperr.CodePaymentError},
	}
	for _, tc := range cases {
		if got := CodeFor(tc.err); got != tc.want {
			t.Fatalf("CodeFor(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestCodeForWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("adapter: %w", ErrCaptureInactive)
	if got := CodeFor(err); got != apperr.CodeCaptureInactivePayment {
		t.Fatalf("wrapped CodeFor = %s", got)
	}
}
