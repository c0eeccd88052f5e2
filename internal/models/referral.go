package models

import (
	"time"
)

// Referral は招待の成立記録。invitee は一度しか招待を受けられない
type Referral struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	InviterID  string    `gorm:"size:36;not null;index" json:"inviter_id"`
	InviteeID  string    `gorm:"size:36;not null;uniqueIndex" json:"invitee_id"`
	BonusGiven bool      `gorm:"default:false" json:"bonus_given"`
	CreatedAt  time.Time `json:"created_at"`
}
