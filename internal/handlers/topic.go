package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"oshipochi/internal/services"
)

type TopicHandler struct {
	topics *services.TopicService
}

func NewTopicHandler(topics *services.TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// Current は今のお題を返す。DB に行が無くてもフォールバックで必ず何か返る
func (h *TopicHandler) Current(c *gin.Context) {
	topic := h.topics.Active(c.Request.Context(), time.Now())
	c.JSON(http.StatusOK, gin.H{
		"id":        topic.ID, // フォールバック時は空文字列
		"title":     topic.Title,
		"starts_at": topic.StartsAt,
		"ends_at":   topic.EndsAt,
	})
}

// Today は JST の今日のお題一覧を返す
func (h *TopicHandler) Today(c *gin.Context) {
	topics, err := h.topics.Today(c.Request.Context(), time.Now())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "お題の取得に失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}
