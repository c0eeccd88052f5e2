package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultVisionAPIURL = "https://vision.googleapis.com/v1/images:annotate"

// ModerationResult は SafeSearch 判定の結果
type ModerationResult struct {
	Safe     bool   `json:"safe"`
	Skipped  bool   `json:"skipped,omitempty"` // API キー未設定などで判定していない
	Adult    string `json:"adult,omitempty"`
	Violence string `json:"violence,omitempty"`
	Racy     string `json:"racy,omitempty"`
}

// visionRequest / visionResponse は Vision API の SAFE_SEARCH_DETECTION の最小構造
type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionAnnotateRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionResponse struct {
	Responses []struct {
		SafeSearchAnnotation *struct {
			Adult    string `json:"adult"`
			Violence string `json:"violence"`
			Racy     string `json:"racy"`
		} `json:"safeSearchAnnotation"`
	} `json:"responses"`
}

var moderationClient = &http.Client{Timeout: 30 * time.Second}

// CheckImage は Google Cloud Vision の SafeSearch で画像を判定する
// adult / violence / racy のいずれかが LIKELY 以上ならブロック
// API キー未設定や API エラー時はサービス停止を避けるため「安全」として通す
func CheckImage(image []byte) *ModerationResult {
	apiKey := os.Getenv("GOOGLE_CLOUD_VISION_KEY")
	if apiKey == "" {
		log.Warn().Msg("GOOGLE_CLOUD_VISION_KEY 未設定のためモデレーションをスキップ")
		return &ModerationResult{Safe: true, Skipped: true}
	}

	baseURL := os.Getenv("VISION_API_URL")
	if baseURL == "" {
		baseURL = defaultVisionAPIURL
	}

	reqBody := visionRequest{
		Requests: []visionAnnotateRequest{{
			Image:    visionImage{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []visionFeature{{Type: "SAFE_SEARCH_DETECTION"}},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return &ModerationResult{Safe: true}
	}

	resp, err := moderationClient.Post(baseURL+"?key="+apiKey, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Error().Err(err).Msg("Vision API 呼び出しに失敗。画像を通します")
		return &ModerationResult{Safe: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Vision API がエラー応答。画像を通します")
		return &ModerationResult{Safe: true}
	}

	var visionResp visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		log.Error().Err(err).Msg("Vision API 応答の解析に失敗。画像を通します")
		return &ModerationResult{Safe: true}
	}

	if len(visionResp.Responses) == 0 || visionResp.Responses[0].SafeSearchAnnotation == nil {
		return &ModerationResult{Safe: true}
	}

	ann := visionResp.Responses[0].SafeSearchAnnotation
	unsafe := isBlockLevel(ann.Adult) || isBlockLevel(ann.Violence) || isBlockLevel(ann.Racy)
	return &ModerationResult{
		Safe:     !unsafe,
		Adult:    ann.Adult,
		Violence: ann.Violence,
		Racy:     ann.Racy,
	}
}

func isBlockLevel(likelihood string) bool {
	return likelihood == "LIKELY" || likelihood == "VERY_LIKELY"
}
