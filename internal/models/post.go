package models

import (
	"time"
)

// Post は写真投稿。作成から 1 時間で期限切れになり、クリーンアップで削除される
type Post struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;not null;index" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ImageURL   string    `gorm:"not null" json:"image_url"` // ストレージ内パス {userID}/{filename}
	Caption    string    `gorm:"size:200" json:"caption"`
	HeartCount int       `gorm:"default:0" json:"heart_count"` // heart_votes の合計と一致する（結果整合）
	TopicID    *string   `gorm:"size:36;index" json:"topic_id"`
	ExpiresAt  time.Time `gorm:"index" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
