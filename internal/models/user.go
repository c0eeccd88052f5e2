package models

import (
	"time"
)

// User は SNS 認証で作成されるユーザー。メール/パスワード認証は持たない
type User struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	DisplayName     string    `gorm:"size:50;not null" json:"display_name"`
	AvatarURL       string    `json:"avatar_url"`
	AuthProvider    string    `gorm:"size:20;index" json:"auth_provider"` // google, x, line, tiktok
	LineUserID      string    `gorm:"index" json:"-"`                     // LINE の userId
	TikTokOpenID    string    `gorm:"index" json:"-"`                     // TikTok の open_id
	IsSNSVerified   bool      `gorm:"default:false" json:"is_sns_verified"`
	IsVerifiedAdult bool      `gorm:"default:false" json:"is_verified_adult"` // 年齢確認済みか
	PayPayID        string    `gorm:"size:50" json:"paypay_id"`               // 手動送金用に表示する PayPay ID
	BonusHearts     int       `gorm:"default:0" json:"bonus_hearts"`          // 招待ボーナスのハート
	ReferralCode    string    `gorm:"uniqueIndex;size:8;not null" json:"referral_code"`
	ReferredBy      *string   `gorm:"size:36" json:"referred_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
