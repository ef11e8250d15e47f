package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/dto"
	"github.com/SscSPs/usage_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// usageHandler serves the paid synchronous operations.
type usageHandler struct {
	usageService portssvc.UsageSvc
	timeout      time.Duration
}

func newUsageHandler(us portssvc.UsageSvc, timeout time.Duration) *usageHandler {
	return &usageHandler{usageService: us, timeout: timeout}
}

func registerUsageRoutes(rg *gin.RouterGroup, usageService portssvc.UsageSvc, timeout time.Duration) {
	h := newUsageHandler(usageService, timeout)

	rg.POST("/translate", h.translate)
	rg.POST("/transcribe", h.transcribe)
	rg.POST("/speech", h.speech)
}

// requestContext bounds the whole operation, provider fallbacks included.
func (h *usageHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// translate godoc
// @Summary Translate text
// @Description Translates text through the configured provider chain and charges the account for the usage
// @Tags usage
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Key that makes retries of this request charge at most once"
// @Param request body dto.TranslateRequest true "Text to translate"
// @Success 200 {object} domain.TranslateOutput
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 402 {object} map[string]string "Insufficient balance"
// @Failure 409 {object} map[string]string "Idempotency-Key reused for a different request"
// @Failure 499 {object} map[string]string "Client closed request"
// @Failure 502 {object} map[string]string "All providers failed"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security DeviceToken
// @Router /translate [post]
func (h *usageHandler) translate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Translate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	out, err := h.usageService.Translate(ctx, accountID, c.GetHeader(dto.IdempotencyKeyHeader), req.ToDomain())
	if err != nil {
		respondError(c, logger, err, "Failed to translate")
		return
	}
	c.JSON(http.StatusOK, out)
}

// transcribe godoc
// @Summary Transcribe audio segments
// @Description Transcribes up to 64 audio segments concurrently and charges once for the whole batch
// @Tags usage
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Key that makes retries of this request charge at most once"
// @Param request body dto.TranscribeRequest true "Audio segments"
// @Success 200 {object} domain.Transcript
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 402 {object} map[string]string "Insufficient balance"
// @Failure 409 {object} map[string]string "Idempotency-Key reused for a different request"
// @Failure 499 {object} map[string]string "Client closed request"
// @Failure 502 {object} map[string]string "All providers failed"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security DeviceToken
// @Router /transcribe [post]
func (h *usageHandler) transcribe(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Transcribe", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	transcript, err := h.usageService.Transcribe(ctx, accountID, c.GetHeader(dto.IdempotencyKeyHeader), req.ToDomain())
	if err != nil {
		respondError(c, logger, err, "Failed to transcribe")
		return
	}
	c.JSON(http.StatusOK, transcript)
}

// speech godoc
// @Summary Synthesize speech
// @Description Turns text into audio through the configured provider chain and charges per character
// @Tags usage
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Key that makes retries of this request charge at most once"
// @Param request body dto.SpeechRequest true "Text to speak"
// @Success 200 {object} domain.SpeechOutput
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 402 {object} map[string]string "Insufficient balance"
// @Failure 409 {object} map[string]string "Idempotency-Key reused for a different request"
// @Failure 499 {object} map[string]string "Client closed request"
// @Failure 502 {object} map[string]string "All providers failed"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security DeviceToken
// @Router /speech [post]
func (h *usageHandler) speech(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Speech", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()
	out, err := h.usageService.Synthesize(ctx, accountID, c.GetHeader(dto.IdempotencyKeyHeader), req.ToDomain())
	if err != nil {
		respondError(c, logger, err, "Failed to synthesize speech")
		return
	}
	c.JSON(http.StatusOK, out)
}
