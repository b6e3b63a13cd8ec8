// Package middleware はGin共通のミドルウェアを提供します。
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID はリクエストIDを運ぶヘッダー名です。
	HeaderRequestID = "X-Request-ID"
	// ContextRequestID はGinコンテキストにリクエストIDを保存するキーです。
	ContextRequestID = "requestID"

	maxRequestIDLen = 64
)

// RequestID assigns every request an ID, reusing the caller's X-Request-ID
// when it is present and short enough, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the request ID set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
