package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

const maxCallbackBody = 1 << 20

// VerifySignature rejects callbacks whose body was not signed with secret.
// The body is restored for the handler after verification.
func VerifySignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		if secret == "" {
			logger.Error("Callback rejected: webhook secret not configured")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Callbacks are not configured"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		if err != nil {
			logger.Warn("Failed to read callback body", "error", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unreadable body"})
			return
		}

		given, err := hex.DecodeString(c.GetHeader(SignatureHeader))
		if err != nil || !hmac.Equal(given, Sign(secret, body)) {
			logger.Warn("Callback signature mismatch")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

// Sign computes the HMAC-SHA256 of body.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
