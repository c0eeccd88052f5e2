package models

import (
	"time"
)

// HeartVote はまとめ送信されたハートの記録。作成後は更新・削除しない
type HeartVote struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	PostID    string    `gorm:"size:36;not null;index" json:"post_id"`
	TopicID   *string   `gorm:"size:36" json:"topic_id"` // フォールバックお題のときは null
	Hearts    int       `gorm:"not null" json:"hearts"`  // 正の値。1 回のフラッシュ分
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
