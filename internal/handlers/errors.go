package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// StatusClientClosedRequest is reported when the caller went away before the work finished.
const StatusClientClosedRequest = 499

// statusFor maps service errors to HTTP statuses. The second value is the client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "Insufficient balance"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrIdempotencyMismatch):
		return http.StatusConflict, "Idempotency-Key was already used for a different request"
	case errors.Is(err, apperrors.ErrCancelled):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, "Request timed out"
		}
		return StatusClientClosedRequest, "Request cancelled"
	case errors.Is(err, apperrors.ErrProviderExhausted):
		return http.StatusBadGateway, "All providers failed, try again later"
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable, try again later"
	default:
		return http.StatusInternalServerError, ""
	}
}

// respondError writes the mapped status. fallback is the message for unexpected failures.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable && status != http.StatusBadGateway {
		logger.Error(fallback, slog.String("error", err.Error()))
	} else {
		logger.Warn(fallback, slog.Int("status", status), slog.String("error", err.Error()))
	}
	if msg == "" {
		msg = fallback
	}
	c.JSON(status, gin.H{"error": msg})
}
