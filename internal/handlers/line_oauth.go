package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var lineOauthConfig *oauth2.Config

// InitLineOAuth は LINE Login v2.1 の OAuth 設定を初期化する
func InitLineOAuth() {
	lineOauthConfig = &oauth2.Config{
		ClientID:     os.Getenv("LINE_CLIENT_ID"),
		ClientSecret: os.Getenv("LINE_CLIENT_SECRET"),
		RedirectURL:  siteURL() + "/auth/line/callback",
		Scopes:       []string{"profile", "openid"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://access.line.me/oauth2/v2.1/authorize",
			TokenURL: "https://api.line.me/oauth2/v2.1/token",
		},
	}
}

// lineProfile は LINE の /v2/profile 応答
type lineProfile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// LineLogin は LINE の認可画面へリダイレクトする
func (h *AuthHandler) LineLogin(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "state の生成に失敗しました")
		return
	}
	if err := saveOAuthState(c, "line", state); err != nil {
		JSONError(c, http.StatusInternalServerError, "セッションの保存に失敗しました")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, lineOauthConfig.AuthCodeURL(state))
}

// LineCallback は認可コードを受け取りログインを完了する
func (h *AuthHandler) LineCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		log.Warn().Str("error", errParam).Msg("LINE OAuth エラー")
		c.Redirect(http.StatusFound, "/login?error=line_auth_failed")
		return
	}

	if !verifyOAuthState(c, "line", c.Query("state")) {
		c.Redirect(http.StatusFound, "/login?error=invalid_state")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/login?error=no_code")
		return
	}

	token, err := lineOauthConfig.Exchange(context.Background(), code)
	if err != nil {
		log.Error().Err(err).Msg("LINE トークン交換に失敗")
		c.Redirect(http.StatusFound, "/login?error=token_failed")
		return
	}

	profile, err := fetchLineProfile(token.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("LINE プロフィール取得に失敗")
		c.Redirect(http.StatusFound, "/login?error=profile_failed")
		return
	}

	user, err := findOrCreateSNSUser(snsProfile{
		provider:    "line",
		providerID:  profile.UserID,
		displayName: profile.DisplayName,
		avatarURL:   profile.PictureURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("LINE ユーザーの作成に失敗")
		c.Redirect(http.StatusFound, "/login?error=signup_failed")
		return
	}

	loginAndRedirect(c, user)
}

func fetchLineProfile(accessToken string) (*lineProfile, error) {
	req, err := http.NewRequest(http.MethodGet, "https://api.line.me/v2/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("LINE プロフィール取得に失敗: status %d: %s", resp.StatusCode, string(body))
	}

	var profile lineProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
