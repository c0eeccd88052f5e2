package models

import (
	"time"
)

// Follow はフォロー関係。同じ組は 1 行のみ
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  string    `gorm:"size:36;not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowingID string    `gorm:"size:36;not null;uniqueIndex:idx_follow_pair" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
