// Package apperr defines the error codes surfaced at the request boundary.
// Sentinel values let handlers distinguish failure classes the same way the
// repository layer does; validation failures bubble up as a list of
// field-level errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to clients.
const (
	CodeNotFound         = "NOT_FOUND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeInvalid          = "INVALID"
	CodeRequired         = "REQUIRED"
	CodeUnique           = "UNIQUE"
	CodeSlugTaken        = "SLUG_TAKEN"
	CodeTooManyItems     = "TOO_MANY_ITEMS"
	CodeTooManyMessages  = "TOO_MANY_MESSAGES"
	CodeInternal         = "INTERNAL"

	// Payment state-machine rejections. The gateway adapter is an external
	// collaborator; the core only maps its failures onto these codes.
	CodePaymentError           = "PAYMENT_ERROR"
	CodeCaptureInactivePayment = "CAPTURE_INACTIVE_PAYMENT"
	CodeVoidInactivePayment    = "VOID_INACTIVE_PAYMENT"
	CodeCannotRefund           = "CANNOT_REFUND"
)

// Sentinels reused across services and repositories.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTooManyMessages  = errors.New("too many messages")
	ErrTooManyItems     = errors.New("too many items")
)

// FieldError describes one validation failure on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// List is a set of field errors that satisfies the error interface so it can
// travel through ordinary error returns up to the handler.
type List []FieldError

func (l List) Error() string {
	if len(l) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", l[0].Field, l[0].Code)
}

// Required builds the standard missing-field error.
func Required(field string) FieldError {
	return FieldError{Field: field, Code: CodeRequired, Message: field + " is required"}
}

// Invalid builds a generic invalid-value error.
func Invalid(field, msg string) FieldError {
	return FieldError{Field: field, Code: CodeInvalid, Message: msg}
}

// Unique builds a uniqueness-violation error.
func Unique(field string) FieldError {
	return FieldError{Field: field, Code: CodeUnique, Message: field + " already exists"}
}

// SlugTaken is the dedicated code for slug collisions.
func SlugTaken() FieldError {
	return FieldError{Field: "slug", Code: CodeSlugTaken, Message: "slug already in use"}
}

// StatusFor maps an error code to its HTTP status. Unknown codes map to 500.
func StatusFor(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeInvalid, CodeRequired, CodeUnique, CodeSlugTaken, CodeTooManyItems:
		return http.StatusBadRequest
	case CodeTooManyMessages:
		return http.StatusTooManyRequests
	case CodePaymentError, CodeCaptureInactivePayment, CodeVoidInactivePayment, CodeCannotRefund:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
