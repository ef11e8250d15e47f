package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeviceTokenHeader carries the opaque device token that identifies an account.
const DeviceTokenHeader = "X-Device-Token"

// DeviceTokenAuth requires a UUID device token and stores it as the account ID.
// Proving ownership of the token is the caller transport's concern.
func DeviceTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		raw := c.GetHeader(DeviceTokenHeader)
		if raw == "" {
			logger.Warn("Device token missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": DeviceTokenHeader + " header required"})
			return
		}
		token, err := uuid.Parse(raw)
		if err != nil {
			logger.Warn("Device token is not a UUID", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid device token"})
			return
		}

		accountID := token.String()
		ctx := context.WithValue(c.Request.Context(), accountIDKey, accountID)
		ctx = WithLogger(ctx, logger.With(slog.String("account_id", accountID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
