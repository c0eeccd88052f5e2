package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"oshipochi/internal/db"
	"oshipochi/internal/models"
	"oshipochi/internal/services"
)

type VoteHandler struct {
	quota   *services.HeartQuota
	batcher *services.HeartBatcher
	topics  *services.TopicService
}

func NewVoteHandler(quota *services.HeartQuota, batcher *services.HeartBatcher, topics *services.TopicService) *VoteHandler {
	return &VoteHandler{quota: quota, batcher: batcher, topics: topics}
}

// CastHeart はハート 1 個を積む
// 枠の確保は即時（原子的）、DB への書き込みはデバウンスされてまとめて行われる
func (h *VoteHandler) CastHeart(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	postID := c.Param("id")
	now := time.Now()

	var post models.Post
	if err := db.DB.Select("id", "expires_at").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusNotFound, "投稿が見つかりません")
			return
		}
		JSONError(c, http.StatusInternalServerError, "投稿の取得に失敗しました")
		return
	}
	if post.ExpiresAt.Before(now) {
		JSONError(c, http.StatusGone, "この投稿は期限切れです")
		return
	}

	remaining, err := h.quota.Reserve(c.Request.Context(), user.ID, now)
	if err != nil {
		if errors.Is(err, services.ErrQuotaExhausted) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":     err.Error(),
				"remaining": 0,
			})
			return
		}
		JSONError(c, http.StatusInternalServerError, "ハートの送信に失敗しました")
		return
	}

	// フォールバックお題（ID なし）のときは null でタグ付け
	var topicID *string
	if topic := h.topics.Active(c.Request.Context(), now); topic.ID != "" {
		topicID = &topic.ID
	}

	h.batcher.Add(user.ID, postID, topicID)
	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}

// Remaining は今時間のハート残数を返す（クライアントの初期表示用）
func (h *VoteHandler) Remaining(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	remaining, err := h.quota.Remaining(c.Request.Context(), user.ID, time.Now())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "残数の取得に失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"remaining": remaining, "limit": services.HourlyHeartLimit})
}
