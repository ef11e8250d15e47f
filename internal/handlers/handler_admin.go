package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/dto"
	"github.com/SscSPs/usage_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// adminHandler serves operator balance corrections.
type adminHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newAdminHandler(ls portssvc.LedgerSvcFacade) *adminHandler {
	return &adminHandler{ledgerService: ls}
}

func registerAdminRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newAdminHandler(ledgerService)

	accounts := rg.Group("/accounts/:accountID")
	{
		accounts.POST("/grants", h.grantCredits)
		accounts.POST("/reset", h.resetBalance)
		accounts.GET("/reconcile", h.reconcile)
	}
}

// accountParam reads and validates the accountID path parameter.
func accountParam(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return "", false
	}
	return id.String(), true
}

func adminMetadata(c *gin.Context, note string) domain.Metadata {
	meta := domain.Metadata{}
	if adminID, ok := middleware.GetUserIDFromContext(c); ok {
		meta["admin_id"] = adminID
	}
	if note != "" {
		meta["note"] = note
	}
	return meta
}

// grantCredits godoc
// @Summary Grant credits
// @Description Adds credits to an account, creating it if needed
// @Tags admin
// @Accept json
// @Produce json
// @Param accountID path string true "Account ID (device token)"
// @Param request body dto.GrantCreditsRequest true "Grant"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/grants [post]
func (h *adminHandler) grantCredits(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	var req dto.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for GrantCredits", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	acc, err := h.ledgerService.Grant(c.Request.Context(), accountID, req.Amount, domain.ReasonAdminGrant, adminMetadata(c, req.Note))
	if err != nil {
		respondError(c, logger, err, "Failed to grant credits")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// resetBalance godoc
// @Summary Reset balance
// @Description Sets an account to an exact balance and records the difference in the ledger
// @Tags admin
// @Accept json
// @Produce json
// @Param accountID path string true "Account ID (device token)"
// @Param request body dto.ResetBalanceRequest true "New balance"
// @Success 200 {object} dto.LedgerEntryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/reset [post]
func (h *adminHandler) resetBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	var req dto.ResetBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResetBalance", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	entry, err := h.ledgerService.ResetBalance(c.Request.Context(), accountID, *req.Balance, adminMetadata(c, req.Note))
	if err != nil {
		respondError(c, logger, err, "Failed to reset balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerEntryResponse(*entry))
}

// reconcile godoc
// @Summary Reconcile an account
// @Description Compares the stored balance with the sum of the account's ledger
// @Tags admin
// @Produce json
// @Param accountID path string true "Account ID (device token)"
// @Success 200 {object} domain.Reconciliation
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/reconcile [get]
func (h *adminHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	rec, err := h.ledgerService.Reconcile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile account")
		return
	}
	c.JSON(http.StatusOK, rec)
}
