package models

import (
	"time"
)

// HourlyTopic は 1 時間単位のお題。JST の 1 日分 24 行をバッチ生成する
// starts_at の一意制約が同日二重生成のガードになる
type HourlyTopic struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	StartsAt  time.Time `gorm:"uniqueIndex;not null" json:"starts_at"`
	EndsAt    time.Time `gorm:"not null" json:"ends_at"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
