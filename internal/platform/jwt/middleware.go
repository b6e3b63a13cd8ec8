package jwtmw

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextUserID はgin.Contextに設定されるオペレーターIDのキーです。
	ContextUserID = "userID"
	// ContextOperatorName はgin.Contextに設定されるオペレーター名のキーです。
	ContextOperatorName = "operatorName"
)

// AuthRequired returns a Gin middleware that accepts only requests carrying a
// valid operator token signed with secret.
func AuthRequired(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		if len(key) == 0 {
			// JWT_SECRET 未設定はサーバーの設定ミス
			slog.Error("jwt secret is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		var claims Claims
		token, err := parser.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil || !token.Valid || claims.OperatorID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, claims.OperatorID)
		c.Set(ContextOperatorName, claims.Name)
		c.Next()
	}
}
