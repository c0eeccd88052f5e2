package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"oshipochi/internal/models"
)

// CleanupExpiredPosts は期限切れ投稿の画像と行を削除する
// ストレージ削除はベストエフォート。失敗してもログのみで行削除は続行する
func CleanupExpiredPosts(ctx context.Context, db *gorm.DB, storage *Storage, now time.Time) (int, []string, error) {
	var expired []models.Post
	if err := db.WithContext(ctx).
		Select("id", "image_url").
		Where("expires_at < ?", now).
		Find(&expired).Error; err != nil {
		return 0, nil, err
	}
	if len(expired) == 0 {
		return 0, nil, nil
	}

	ids := make([]string, 0, len(expired))
	files := make([]string, 0, len(expired))
	for _, post := range expired {
		ids = append(ids, post.ID)
		files = append(files, post.ImageURL)
	}

	if err := storage.Remove(files); err != nil {
		log.Warn().Err(err).Int("count", len(files)).Msg("期限切れ画像の削除に失敗")
	}

	if err := db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Post{}).Error; err != nil {
		return 0, nil, err
	}

	log.Info().Int("deleted", len(ids)).Msg("期限切れ投稿を削除")
	return len(ids), files, nil
}
