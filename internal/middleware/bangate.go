package middleware

import (
	"github.com/FlashGalatine/xivdyetools-api/internal/models"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BanGate blocks mutating actions by banned users. A failed lookup allows the
// request through: availability over strictness, a storage hiccup must not
// block legitimate traffic.
func BanGate(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := GetAuth(c).UserID()
		if uid == "" {
			c.Next()
			return
		}

		var n int64
		err := db.Model(&models.BannedUserModel{}).Where("user_id = ?", uid).Count(&n).Error
		if err != nil {
			log.Warn("ban lookup failed, allowing request", zap.String("user_id", uid), zap.Error(err))
			c.Next()
			return
		}
		if n > 0 {
			response.Banned(c)
			return
		}
		c.Next()
	}
}
