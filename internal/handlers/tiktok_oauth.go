package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// TikTok は client_key という独自パラメータ名を使うため
// x/oauth2 ではなく手動でトークン交換を行う
const (
	tiktokAuthURL     = "https://www.tiktok.com/v2/auth/authorize/"
	tiktokTokenURL    = "https://open.tiktokapis.com/v2/oauth/token/"
	tiktokUserInfoURL = "https://open.tiktokapis.com/v2/user/info/?fields=open_id,display_name,avatar_url"
)

var tiktokClient = &http.Client{Timeout: 10 * time.Second}

type tiktokTokenResponse struct {
	AccessToken string `json:"access_token"`
	OpenID      string `json:"open_id"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type tiktokUserInfoResponse struct {
	Data struct {
		User struct {
			OpenID      string `json:"open_id"`
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
		} `json:"user"`
	} `json:"data"`
}

// TikTokLogin は TikTok の認可画面へリダイレクトする
func (h *AuthHandler) TikTokLogin(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "state の生成に失敗しました")
		return
	}
	if err := saveOAuthState(c, "tiktok", state); err != nil {
		JSONError(c, http.StatusInternalServerError, "セッションの保存に失敗しました")
		return
	}

	q := url.Values{}
	q.Set("client_key", os.Getenv("TIKTOK_CLIENT_KEY"))
	q.Set("response_type", "code")
	q.Set("scope", "user.info.basic")
	q.Set("redirect_uri", siteURL()+"/auth/tiktok/callback")
	q.Set("state", state)
	c.Redirect(http.StatusTemporaryRedirect, tiktokAuthURL+"?"+q.Encode())
}

// TikTokCallback は認可コードを受け取りログインを完了する
func (h *AuthHandler) TikTokCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		log.Warn().Str("error", errParam).Msg("TikTok OAuth エラー")
		c.Redirect(http.StatusFound, "/login?error=tiktok_auth_failed")
		return
	}

	if !verifyOAuthState(c, "tiktok", c.Query("state")) {
		c.Redirect(http.StatusFound, "/login?error=invalid_state")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/login?error=no_code")
		return
	}

	token, err := exchangeTikTokCode(code)
	if err != nil {
		log.Error().Err(err).Msg("TikTok トークン交換に失敗")
		c.Redirect(http.StatusFound, "/login?error=token_failed")
		return
	}

	openID, displayName, avatarURL, err := fetchTikTokUser(token.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("TikTok ユーザー情報取得に失敗")
		c.Redirect(http.StatusFound, "/login?error=profile_failed")
		return
	}
	if openID == "" {
		openID = token.OpenID
	}

	user, err := findOrCreateSNSUser(snsProfile{
		provider:    "tiktok",
		providerID:  openID,
		displayName: displayName,
		avatarURL:   avatarURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("TikTok ユーザーの作成に失敗")
		c.Redirect(http.StatusFound, "/login?error=signup_failed")
		return
	}

	loginAndRedirect(c, user)
}

func exchangeTikTokCode(code string) (*tiktokTokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", os.Getenv("TIKTOK_CLIENT_KEY"))
	form.Set("client_secret", os.Getenv("TIKTOK_CLIENT_SECRET"))
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", siteURL()+"/auth/tiktok/callback")

	resp, err := tiktokClient.Post(tiktokTokenURL,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, err
	}

	var token tiktokTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, err
	}
	if token.Error != "" || token.AccessToken == "" {
		return nil, fmt.Errorf("TikTok トークン交換に失敗: %s %s", token.Error, token.ErrorDesc)
	}
	return &token, nil
}

func fetchTikTokUser(accessToken string) (openID, displayName, avatarURL string, err error) {
	req, err := http.NewRequest(http.MethodGet, tiktokUserInfoURL, nil)
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := tiktokClient.Do(req)
	if err != nil {
		return "", "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("TikTok ユーザー情報取得に失敗: status %d", resp.StatusCode)
	}

	var info tiktokUserInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", "", err
	}
	u := info.Data.User
	return u.OpenID, u.DisplayName, u.AvatarURL, nil
}
