package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"oshipochi/internal/db"
	"oshipochi/internal/models"
)

// ReferralBonusHearts 招待成立時に双方へ付与するハート数
const ReferralBonusHearts = 5

type ReferralHandler struct{}

func NewReferralHandler() *ReferralHandler {
	return &ReferralHandler{}
}

// Apply は招待コードを適用し、招待者・被招待者の両方にボーナスを付与する
// 1 ユーザーが受けられる招待は 1 回のみ（invitee_id の一意制約）
func (h *ReferralHandler) Apply(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "未ログインです")
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Code) == "" {
		JSONError(c, http.StatusBadRequest, "招待コードが必要です")
		return
	}

	var inviter models.User
	err := db.DB.Select("id").First(&inviter, "referral_code = ?", strings.ToUpper(strings.TrimSpace(body.Code))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusNotFound, "無効な招待コードです")
			return
		}
		JSONError(c, http.StatusInternalServerError, "招待の処理に失敗しました")
		return
	}

	if inviter.ID == user.ID {
		JSONError(c, http.StatusBadRequest, "自分自身は招待できません")
		return
	}

	var existing int64
	db.DB.Model(&models.Referral{}).Where("invitee_id = ?", user.ID).Count(&existing)
	if existing > 0 {
		JSONError(c, http.StatusConflict, "既に招待済みです")
		return
	}

	// 記録とボーナス付与を 1 トランザクションで行う
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		referral := models.Referral{
			ID:         uuid.NewString(),
			InviterID:  inviter.ID,
			InviteeID:  user.ID,
			BonusGiven: true,
		}
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"bonus_hearts": gorm.Expr("bonus_hearts + ?", ReferralBonusHearts),
				"referred_by":  inviter.ID,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", inviter.ID).
			UpdateColumn("bonus_hearts", gorm.Expr("bonus_hearts + ?", ReferralBonusHearts)).
			Error
	})
	if err != nil {
		// 同時適用は invitee_id の一意制約で片方だけ成立する
		JSONError(c, http.StatusConflict, "招待の処理に失敗しました")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("招待ボーナス❤%d個を受け取りました！", ReferralBonusHearts),
		"bonus":   ReferralBonusHearts,
	})
}
