package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/dto"
	"github.com/SscSPs/usage_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// callbackHandler receives signed webhooks from the payment processor and the relay.
type callbackHandler struct {
	paymentService    portssvc.PaymentSvc
	settlementService portssvc.SettlementSvc
	validate          *validator.Validate
}

func newCallbackHandler(ps portssvc.PaymentSvc, ss portssvc.SettlementSvc) *callbackHandler {
	return &callbackHandler{
		paymentService:    ps,
		settlementService: ss,
		validate:          validator.New(validator.WithRequiredStructEnabled()),
	}
}

func registerCallbackRoutes(r *gin.Engine, webhookSecret string, ps portssvc.PaymentSvc, ss portssvc.SettlementSvc) {
	h := newCallbackHandler(ps, ss)

	callbacks := r.Group("/callbacks", middleware.VerifySignature(webhookSecret))
	{
		callbacks.POST("/payments", h.paymentConfirmed)
		callbacks.POST("/relay", h.relayCompleted)
	}
}

// acknowledge answers a callback that needs no further delivery. Repeats of an already
// processed event are acknowledged the same way so the sender stops retrying.
func acknowledge(c *gin.Context, logger *slog.Logger, err error) bool {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "processed"})
		return true
	}
	if errors.Is(err, apperrors.ErrDuplicateEvent) {
		logger.Info("Duplicate callback acknowledged")
		c.JSON(http.StatusOK, gin.H{"status": "already_processed"})
		return true
	}
	return false
}

// paymentConfirmed godoc
// @Summary Payment confirmation webhook
// @Description Grants the purchased credit pack once per payment event
// @Tags callbacks
// @Accept json
// @Produce json
// @Param X-Signature header string true "Hex HMAC-SHA256 of the body"
// @Param request body dto.PaymentCallbackRequest true "Payment event"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 401 {object} map[string]string "Bad signature"
// @Failure 503 {object} map[string]string "Storage unavailable, redeliver later"
// @Router /callbacks/payments [post]
func (h *callbackHandler) paymentConfirmed(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for payment callback", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		logger.Warn("Payment callback failed validation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger = logger.With(slog.String("event_id", req.EventID), slog.String("account_id", req.AccountID))
	err := h.paymentService.HandleConfirmation(c.Request.Context(), req.ToDomain())
	if acknowledge(c, logger, err) {
		return
	}
	respondError(c, logger, err, "Failed to process payment event")
}

// relayCompleted godoc
// @Summary Relay completion webhook
// @Description Completes and charges, or fails, an asynchronous job once per relay event
// @Tags callbacks
// @Accept json
// @Produce json
// @Param X-Signature header string true "Hex HMAC-SHA256 of the body"
// @Param request body dto.RelayCallbackRequest true "Relay event"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 401 {object} map[string]string "Bad signature"
// @Failure 404 {object} map[string]string "Job not found"
// @Failure 503 {object} map[string]string "Storage unavailable, redeliver later"
// @Router /callbacks/relay [post]
func (h *callbackHandler) relayCompleted(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RelayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for relay callback", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		logger.Warn("Relay callback failed validation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger = logger.With(slog.String("event_id", req.EventID), slog.String("job_id", req.JobID))
	err := h.settlementService.HandleRelayCallback(c.Request.Context(), req.ToDomain())
	if acknowledge(c, logger, err) {
		return
	}
	respondError(c, logger, err, "Failed to process relay event")
}
