package middleware

import (
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// RequireJSON rejects body-bearing mutations whose content type is not
// application/json with a 415.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != "application/json" {
			response.UnsupportedMediaType(c)
			return
		}
		c.Next()
	}
}
