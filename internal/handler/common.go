// Package handler terminates HTTP requests: bind, validate, call the
// repositories and services, translate errors. All entity ids on the wire
// are opaque strings; numeric ids never leave this package.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/apperr"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
)

// Opaque id kind tags.
const (
	KindCompany  = "Company"
	KindProduct  = "Product"
	KindCategory = "Category"
	KindOffer    = "Offer"
	KindPortDeal = "PortDeal"
	KindThread   = "QueryThread"
	KindContact  = "Contact"
	KindTracking = "TrackingEvent"
	KindUser     = "User"
	KindPost     = "Post"
)

// dbCtx bounds a repository call the way every handler does.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// callerID returns the authenticated user id, 0 when anonymous.
func callerID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// writeErr translates service/repository errors into the API error shape.
// Not-found and permission failures collapse into the same 404 so
// existence of hidden entities never leaks. Unknown errors become a 500
// with a correlation id; the cause stays in the log.
func writeErr(c echo.Context, log *zap.Logger, err error) error {
	var list apperr.List
	if errors.As(err, &list) {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": list})
	}

	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrPermissionDenied):
		return c.JSON(http.StatusNotFound, echo.Map{"error": apperr.CodeNotFound})
	case errors.Is(err, apperr.ErrTooManyMessages):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": apperr.CodeTooManyMessages})
	case errors.Is(err, apperr.ErrTooManyItems):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": apperr.CodeTooManyItems})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": apperr.CodeUnique})
	}

	id := uuid.NewString()
	log.Error("internal error", zap.String("correlation_id", id), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error":          apperr.CodeInternal,
		"correlation_id": id,
	})
}

// notFound is the uniform body for masked lookups.
func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": apperr.CodeNotFound})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
