package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"oshipochi/internal/db"
	"oshipochi/internal/models"
)

const CheckUserKey = "user"
const SessionUserIDKey = "user_id"

// LoadUser はセッションのユーザーをコンテキストに載せる
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserIDKey).(string)
		if ok && userID != "" {
			var user models.User
			if err := db.DB.First(&user, "id = ?", userID).Error; err == nil {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

// AuthRequired はログイン必須の API 用。未ログインは JSON の 401 を返す
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "ログインが必要です"})
			return
		}
		c.Next()
	}
}
