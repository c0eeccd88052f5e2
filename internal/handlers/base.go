package handlers

import (
	"github.com/gin-gonic/gin"

	"oshipochi/internal/middleware"
	"oshipochi/internal/models"
)

// CurrentUser はミドルウェアが載せたログインユーザーを返す
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// JSONError はエラー応答のヘルパー
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}
