package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"oshipochi/internal/db"
	"oshipochi/internal/services"
	"oshipochi/internal/utils"
)

// CronHandler は外部スケジューラから叩かれる定期処理エンドポイント
// CRON_SECRET の Bearer トークンで保護する
type CronHandler struct {
	topics  *services.TopicService
	storage *services.Storage
}

func NewCronHandler(topics *services.TopicService, storage *services.Storage) *CronHandler {
	return &CronHandler{topics: topics, storage: storage}
}

// authorize は共有シークレットを検証する。未設定時は全て拒否
func (h *CronHandler) authorize(c *gin.Context) bool {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" || c.GetHeader("Authorization") != "Bearer "+secret {
		JSONError(c, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

// Cleanup は期限切れ投稿と画像を削除する
func (h *CronHandler) Cleanup(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	deleted, files, err := services.CleanupExpiredPosts(c.Request.Context(), db.DB, h.storage, time.Now())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No expired posts to clean up"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Cleanup successful",
		"deleted_count": deleted,
		"deleted_files": files,
	})
}

// GenerateTopics は JST の今日 1 日分のお題を生成する（日単位で冪等）
func (h *CronHandler) GenerateTopics(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	now := time.Now()
	count, err := h.topics.EnsureToday(c.Request.Context(), now)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if count == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "Topics for today already exist",
			"skipped": true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Topics generated successfully",
		"count":   count,
		"date":    utils.JSTDayStartUTC(now).In(utils.JST).Format("2006-01-02"),
	})
}
