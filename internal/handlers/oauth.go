package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"oshipochi/internal/db"
	"oshipochi/internal/middleware"
	"oshipochi/internal/models"
	"oshipochi/internal/utils"
)

// AuthHandler は LINE / TikTok の OAuth ログインとログアウトを扱う
// Google / X はホスト型認証サービス側で処理されるためここには無い
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// siteURL はコールバック URL の組み立てに使う
func siteURL() string {
	if url := os.Getenv("SITE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// generateStateToken は CSRF 対策のランダム state を生成する
func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// saveOAuthState は state を短命セッションに保存する
func saveOAuthState(c *gin.Context, provider, state string) error {
	session := sessions.Default(c)
	session.Set("oauth_state_"+provider, state)
	return session.Save()
}

// verifyOAuthState は state を検証し、一致した場合のみ true を返す
func verifyOAuthState(c *gin.Context, provider, state string) bool {
	session := sessions.Default(c)
	key := "oauth_state_" + provider
	saved, _ := session.Get(key).(string)
	session.Delete(key)
	session.Save()
	return state != "" && state == saved
}

// snsProfile は各プロバイダから取得した最小限のプロフィール
type snsProfile struct {
	provider    string // "line" or "tiktok"
	providerID  string
	displayName string
	avatarURL   string
}

// findOrCreateSNSUser はプロバイダ ID でユーザーを引き当て、無ければ作成する
// 既存ユーザーは表示名とアバターを最新化する
func findOrCreateSNSUser(profile snsProfile) (*models.User, error) {
	column := "line_user_id"
	if profile.provider == "tiktok" {
		column = "tik_tok_open_id"
	}

	var user models.User
	err := db.DB.First(&user, column+" = ?", profile.providerID).Error
	if err == nil {
		updates := map[string]interface{}{
			"display_name":    profile.displayName,
			"avatar_url":      profile.avatarURL,
			"is_sns_verified": true,
		}
		if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	code, err := utils.RandomCode(8)
	if err != nil {
		return nil, err
	}
	user = models.User{
		ID:            uuid.NewString(),
		DisplayName:   profile.displayName,
		AvatarURL:     profile.avatarURL,
		AuthProvider:  profile.provider,
		IsSNSVerified: true,
		ReferralCode:  code,
	}
	if profile.provider == "tiktok" {
		user.TikTokOpenID = profile.providerID
	} else {
		user.LineUserID = profile.providerID
	}
	if err := db.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// loginAndRedirect はセッションを確立し、年齢確認の状態に応じてリダイレクトする
func loginAndRedirect(c *gin.Context, user *models.User) {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserIDKey, user.ID)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("セッションの保存に失敗")
		c.Redirect(http.StatusFound, "/login?error=session_failed")
		return
	}

	if user.IsVerifiedAdult {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, "/verify-age")
}

// Logout はセッションを破棄する
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "ログアウトしました"})
}
