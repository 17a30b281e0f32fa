package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	cylinderdomain "github.com/tanklab/gasworks/internal/cylinder/domain"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	invoicedomain "github.com/tanklab/gasworks/internal/invoice/domain"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	userdomain "github.com/tanklab/gasworks/internal/user/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		err := lastErr.Err
		if errors.Is(err, pricingdomain.ErrMultipleActivePrices) {
			log.Error("pricing integrity violation surfaced to client",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}

		status, payload := mapError(err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, filleventdomain.ErrBlenderRequired):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, pricingdomain.ErrPriceConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrProcessorUnavailable),
		errors.Is(err, paymentdomain.ErrIntentOrphaned):
		return http.StatusBadGateway, errorPayload{
			Type:    "processor_error",
			Message: err.Error(),
		}
	default:
		// ErrMultipleActivePrices and unknown failures stay opaque.
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pricingdomain.ErrInvalidGas),
		errors.Is(err, pricingdomain.ErrInvalidPrice),
		errors.Is(err, pricingdomain.ErrInvalidInterval),
		errors.Is(err, filleventdomain.ErrNoGasesGiven),
		errors.Is(err, filleventdomain.ErrNegativeFillPressure),
		errors.Is(err, filleventdomain.ErrPriceMismatch),
		errors.Is(err, invoicedomain.ErrNoFillEvents),
		errors.Is(err, paymentdomain.ErrNoFillEvents),
		errors.Is(err, paymentdomain.ErrFillEventNotBillable),
		errors.Is(err, paymentdomain.ErrBelowMinimumCharge):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, gasdomain.ErrNotFound),
		errors.Is(err, pricingdomain.ErrPriceNotFound),
		errors.Is(err, filleventdomain.ErrNotFound),
		errors.Is(err, cylinderdomain.ErrSetNotFound),
		errors.Is(err, cylinderdomain.ErrStorageCylinderNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
