package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/api/shared/dto"
	apierrors "github.com/zlytics/wallet-insights/internal/api/shared/errors"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/logger"
)

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, dto.Fail(apierrors.NewBadRequestError(message, details...)))
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, dto.Fail(apierrors.NewNotFoundError(message, details...)))
}

// respondValidationError sends a 400 Bad Request with validation error
func respondValidationError(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, dto.Fail(apierrors.NewValidationError(details)))
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	c.JSON(http.StatusInternalServerError, dto.Fail(apierrors.NewInternalError(message)))
}

// respondServiceError maps service-layer errors onto HTTP responses. Sentinel
// errors carry their own status; anything unrecognized is a logged 500.
func respondServiceError(c *gin.Context, err error, message string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		respondValidationError(c, ve.Error())
		return
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) && apiErr.Code == apierrors.ErrCodeValidationFailed {
		c.JSON(http.StatusBadRequest, dto.Fail(apiErr))
		return
	}

	switch {
	case errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrInvoiceNotFound),
		errors.Is(err, domain.ErrTaskNotFound):
		respondNotFound(c, message, err.Error())

	case errors.Is(err, domain.ErrAccessDenied):
		c.JSON(http.StatusForbidden, dto.Fail(apierrors.NewForbiddenError(message, err.Error())))

	case errors.Is(err, domain.ErrPaymentRequired):
		c.JSON(http.StatusPaymentRequired, dto.Fail(apierrors.NewPaymentRequiredError(message, err.Error())))

	case errors.Is(err, domain.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, dto.Fail(apierrors.NewInsufficientBalanceError(message, err.Error())))

	case errors.Is(err, domain.ErrUpstreamUnavailable):
		logger.Error(err, zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusServiceUnavailable, dto.Fail(apierrors.NewUpstreamError("Upstream service unavailable, try again later")))

	default:
		respondInternalError(c, err, message)
	}
}
