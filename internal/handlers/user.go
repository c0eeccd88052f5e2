package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"oshipochi/internal/db"
	"oshipochi/internal/models"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me は自分のプロフィールを返す
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe は表示名と PayPay ID を更新する
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	var body struct {
		DisplayName *string `json:"display_name"`
		PayPayID    *string `json:"paypay_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		JSONError(c, http.StatusBadRequest, "リクエストが不正です")
		return
	}

	updates := map[string]interface{}{}
	if body.DisplayName != nil {
		name := strings.TrimSpace(*body.DisplayName)
		if name == "" || len([]rune(name)) > 30 {
			JSONError(c, http.StatusBadRequest, "表示名は 1〜30 文字です")
			return
		}
		updates["display_name"] = name
	}
	if body.PayPayID != nil {
		id := strings.TrimSpace(*body.PayPayID)
		if len(id) > 50 {
			JSONError(c, http.StatusBadRequest, "PayPay ID が長すぎます")
			return
		}
		updates["pay_pay_id"] = id
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, user)
		return
	}

	if err := db.DB.Model(user).Updates(updates).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "更新に失敗しました")
		return
	}
	c.JSON(http.StatusOK, user)
}

// VerifyAge は年齢確認フラグを立てる
func (h *UserHandler) VerifyAge(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	if err := db.DB.Model(user).UpdateColumn("is_verified_adult", true).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "更新に失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "年齢確認が完了しました"})
}

// Profile は公開プロフィールと各種カウントを返す
func (h *UserHandler) Profile(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusNotFound, "ユーザーが見つかりません")
			return
		}
		JSONError(c, http.StatusInternalServerError, "ユーザーの取得に失敗しました")
		return
	}

	var postCount, followerCount, followingCount int64
	db.DB.Model(&models.Post{}).Where("user_id = ? AND expires_at > ?", userID, time.Now()).Count(&postCount)
	db.DB.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followerCount)
	db.DB.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&followingCount)

	isFollowing := false
	if current, ok := CurrentUser(c); ok && current.ID != userID {
		var n int64
		db.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", current.ID, userID).
			Count(&n)
		isFollowing = n > 0
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"display_name": user.DisplayName,
			"avatar_url":   user.AvatarURL,
			"paypay_id":    user.PayPayID,
		},
		"post_count":      postCount,
		"follower_count":  followerCount,
		"following_count": followingCount,
		"is_following":    isFollowing,
	})
}
