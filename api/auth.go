package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const tokenTTL = 24 * time.Hour

// GenerateToken issues a signed session token: "<userID>.<expiry>.<sig>".
func GenerateToken(secret string, userID int64) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("auth secret not configured")
	}
	expiry := time.Now().Add(tokenTTL).Unix()
	payload := fmt.Sprintf("%d.%d", userID, expiry)
	return payload + "." + sign(secret, payload), nil
}

// ParseToken verifies the signature and expiry and returns the user id.
func ParseToken(secret, token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed token")
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(sign(secret, payload)), []byte(parts[2])) {
		return 0, fmt.Errorf("invalid token signature")
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return 0, fmt.Errorf("token expired")
	}

	return strconv.ParseInt(parts[0], 10, 64)
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the authenticated user id in the gin context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
