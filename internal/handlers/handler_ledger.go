package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/dto"
	"github.com/SscSPs/usage_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler serves the calling account's balance and history.
type ledgerHandler struct {
	ledgerService portssvc.LedgerReaderSvc
}

func newLedgerHandler(ls portssvc.LedgerReaderSvc) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerReaderSvc) {
	h := newLedgerHandler(ledgerService)

	rg.GET("/balance", h.getBalance)
	rg.GET("/ledger", h.listEntries)
}

// getBalance godoc
// @Summary Get credit balance
// @Description Returns the credit balance of the calling device account. Unknown accounts have a balance of zero.
// @Tags ledger
// @Produce json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} map[string]string "Missing or invalid device token"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security DeviceToken
// @Router /balance [get]
func (h *ledgerHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusNotFound {
			c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, Balance: 0})
			return
		}
		respondError(c, logger, err, "Failed to retrieve balance")
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, Balance: balance})
}

// listEntries godoc
// @Summary List ledger entries
// @Description Lists the calling account's ledger entries, newest first
// @Tags ledger
// @Produce json
// @Param limit query int false "Number of entries to return" default(50)
// @Param offset query int false "Number of entries to skip" default(0)
// @Success 200 {array} dto.LedgerEntryResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Missing or invalid device token"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security DeviceToken
// @Router /ledger [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListLedgerParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListLedger", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	entries, err := h.ledgerService.ListEntries(c.Request.Context(), accountID, params.Limit, params.Offset)
	if err != nil {
		respondError(c, logger, err, "Failed to list ledger entries")
		return
	}
	c.JSON(http.StatusOK, dto.ToListLedgerEntryResponse(entries))
}
