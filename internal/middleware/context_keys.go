package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// userIDKey stores the authenticated admin's subject.
const userIDKey = contextKey("userID")

// accountIDKey stores the device token of the calling account.
const accountIDKey = contextKey("accountID")

// GetUserIDFromContext retrieves the authenticated admin ID from the request context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// GetAccountIDFromContext retrieves the device account ID set by DeviceTokenAuth.
func GetAccountIDFromContext(c *gin.Context) (string, bool) {
	return AccountIDFromCtx(c.Request.Context())
}

// AccountIDFromCtx is the context.Context variant of GetAccountIDFromContext.
func AccountIDFromCtx(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDKey).(string)
	return accountID, ok && accountID != ""
}

// GetActorID returns the account ID for device calls, or the admin ID for admin calls.
func GetActorID(c *gin.Context) (string, bool) {
	if id, ok := GetAccountIDFromContext(c); ok {
		return id, true
	}
	return GetUserIDFromContext(c)
}
