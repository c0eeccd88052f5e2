package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"oshipochi/internal/db"
	"oshipochi/internal/models"
	"oshipochi/internal/services"
	"oshipochi/internal/utils"
)

// PostLifetime 投稿は作成から 1 時間で期限切れ
const PostLifetime = time.Hour

const maxImageBytes = 10 << 20 // 10MB
const maxCaptionLen = 100
const feedPageSize = 20
const rankingSize = 30

type PostHandler struct {
	storage   *services.Storage
	topics    *services.TopicService
	sanitizer *bluemonday.Policy
}

func NewPostHandler(storage *services.Storage, topics *services.TopicService) *PostHandler {
	return &PostHandler{
		storage:   storage,
		topics:    topics,
		sanitizer: bluemonday.StrictPolicy(), // キャプションはタグを一切許可しない
	}
}

// Create は写真を投稿する。モデレーション → ストレージ保存 → 行作成の順
func (h *PostHandler) Create(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	caption := strings.TrimSpace(h.sanitizer.Sanitize(c.PostForm("caption")))
	if len([]rune(caption)) > maxCaptionLen {
		JSONError(c, http.StatusBadRequest, "ひとことが長すぎます")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		JSONError(c, http.StatusBadRequest, "画像が必要です")
		return
	}
	if fileHeader.Size > maxImageBytes {
		JSONError(c, http.StatusBadRequest, "画像が大きすぎます")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "画像の読み込みに失敗しました")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil || int64(len(image)) > maxImageBytes {
		JSONError(c, http.StatusBadRequest, "画像の読み込みに失敗しました")
		return
	}

	// モデレーションで弾かれたときだけユーザーに見えるエラーを返す
	if result := services.CheckImage(image); !result.Safe {
		JSONError(c, http.StatusBadRequest, "不適切な画像のため投稿できません")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	path := fmt.Sprintf("%s/%d%s", user.ID, time.Now().UnixMilli(), ext)

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if err := h.storage.Upload(path, image, contentType); err != nil {
		log.Error().Err(err).Str("path", path).Msg("画像のアップロードに失敗")
		JSONError(c, http.StatusInternalServerError, "アップロードに失敗しました")
		return
	}

	now := time.Now()
	var topicID *string
	if topic := h.topics.Active(c.Request.Context(), now); topic.ID != "" {
		topicID = &topic.ID
	}

	post := models.Post{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ImageURL:  path,
		Caption:   caption,
		TopicID:   topicID,
		ExpiresAt: now.Add(PostLifetime),
	}
	if err := db.DB.Create(&post).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "投稿の作成に失敗しました")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// Feed は期限内の投稿を新しい順で返す
func (h *PostHandler) Feed(c *gin.Context) {
	page := utils.StringToInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}

	var posts []models.Post
	err := db.DB.Preload("User").
		Where("expires_at > ?", time.Now()).
		Order("created_at DESC").
		Limit(feedPageSize).
		Offset((page - 1) * feedPageSize).
		Find(&posts).Error
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "フィードの取得に失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page})
}

// Ranking は期限内の投稿をハート数順で返す
func (h *PostHandler) Ranking(c *gin.Context) {
	var posts []models.Post
	err := db.DB.Preload("User").
		Where("expires_at > ?", time.Now()).
		Order("heart_count DESC, created_at DESC").
		Limit(rankingSize).
		Find(&posts).Error
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "ランキングの取得に失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Detail は投稿 1 件を返す。期限切れは 410
func (h *PostHandler) Detail(c *gin.Context) {
	var post models.Post
	err := db.DB.Preload("User").First(&post, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusNotFound, "投稿が見つかりません")
			return
		}
		JSONError(c, http.StatusInternalServerError, "投稿の取得に失敗しました")
		return
	}
	if post.ExpiresAt.Before(time.Now()) {
		JSONError(c, http.StatusGone, "この投稿は期限切れです")
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete は自分の投稿を削除する。画像の削除はベストエフォート
func (h *PostHandler) Delete(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "ログインが必要です")
		return
	}

	var post models.Post
	if err := db.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusNotFound, "投稿が見つかりません")
			return
		}
		JSONError(c, http.StatusInternalServerError, "投稿の取得に失敗しました")
		return
	}
	if post.UserID != user.ID {
		JSONError(c, http.StatusForbidden, "自分の投稿のみ削除できます")
		return
	}

	if err := h.storage.Remove([]string{post.ImageURL}); err != nil {
		log.Warn().Err(err).Str("path", post.ImageURL).Msg("投稿画像の削除に失敗")
	}
	if err := db.DB.Delete(&post).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "投稿の削除に失敗しました")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "削除しました"})
}
