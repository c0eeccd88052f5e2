package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Storage はオブジェクトストレージのバケットクライアント
// 投稿画像とアバターを {userID}/{filename} のパスで保存する
type Storage struct {
	baseURL string
	bucket  string
	token   string
	client  *http.Client
}

// NewStorage は環境変数からストレージクライアントを作成する
// STORAGE_BASE_URL が未設定の場合は無効なクライアントを返す（テスト・ローカル用）
func NewStorage() *Storage {
	bucket := os.Getenv("STORAGE_BUCKET")
	if bucket == "" {
		bucket = "posts"
	}
	return &Storage{
		baseURL: strings.TrimRight(os.Getenv("STORAGE_BASE_URL"), "/"),
		bucket:  bucket,
		token:   os.Getenv("STORAGE_TOKEN"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled はストレージが設定済みかを返す
func (s *Storage) Enabled() bool {
	return s != nil && s.baseURL != ""
}

// Upload はバケットにオブジェクトを保存する
func (s *Storage) Upload(path string, data []byte, contentType string) error {
	if !s.Enabled() {
		return fmt.Errorf("ストレージが設定されていません")
	}

	endpoint := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, url.PathEscape(path))
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("アップロード要求に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("アップロードに失敗: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Remove は複数オブジェクトをまとめて削除する
func (s *Storage) Remove(paths []string) error {
	if !s.Enabled() || len(paths) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/object/%s", s.baseURL, s.bucket)
	req, err := http.NewRequest(http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("削除要求に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("削除に失敗: status %d", resp.StatusCode)
	}
	return nil
}

// PublicURL は公開 URL を返す
func (s *Storage) PublicURL(path string) string {
	if !s.Enabled() {
		return ""
	}
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, path)
}
