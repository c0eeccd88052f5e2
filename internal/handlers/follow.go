package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"oshipochi/internal/db"
	"oshipochi/internal/models"
)

type FollowHandler struct{}

func NewFollowHandler() *FollowHandler {
	return &FollowHandler{}
}

// Follow はフォローする。既にフォロー済みなら何もしない（冪等）
func (h *FollowHandler) Follow(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	targetID := c.Param("id")
	if targetID == user.ID {
		JSONError(c, http.StatusBadRequest, "自分自身はフォローできません")
		return
	}

	var target models.User
	if err := db.DB.Select("id").First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusNotFound, "ユーザーが見つかりません")
			return
		}
		JSONError(c, http.StatusInternalServerError, "ユーザーの取得に失敗しました")
		return
	}

	follow := models.Follow{FollowerID: user.ID, FollowingID: targetID}
	err := db.DB.Where("follower_id = ? AND following_id = ?", user.ID, targetID).
		FirstOrCreate(&follow).Error
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "フォローに失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow はフォローを外す（冪等）
func (h *FollowHandler) Unfollow(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	err := db.DB.Where("follower_id = ? AND following_id = ?", user.ID, c.Param("id")).
		Delete(&models.Follow{}).Error
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "フォロー解除に失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}
