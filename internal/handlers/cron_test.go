package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"oshipochi/internal/models"
	"oshipochi/internal/services"
)

const testCronSecret = "test-cron-secret"

func setupCronRouter(t *testing.T, gdb *gorm.DB) *gin.Engine {
	t.Helper()
	t.Setenv("CRON_SECRET", testCronSecret)
	t.Setenv("STORAGE_BASE_URL", "")

	topics := services.NewTopicService(gdb, nil)
	h := NewCronHandler(topics, services.NewStorage())

	r := gin.New()
	r.GET("/api/cron/cleanup", h.Cleanup)
	r.GET("/api/cron/generate-topics", h.GenerateTopics)
	return r
}

func cronGet(r *gin.Engine, path, secret string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCronRejectsWithoutSecret(t *testing.T) {
	gdb := setupTestDB(t)
	r := setupCronRouter(t, gdb)

	assert.Equal(t, http.StatusUnauthorized, cronGet(r, "/api/cron/cleanup", "").Code)
	assert.Equal(t, http.StatusUnauthorized, cronGet(r, "/api/cron/cleanup", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, cronGet(r, "/api/cron/generate-topics", "").Code)
}

func TestCronRejectsWhenSecretUnset(t *testing.T) {
	gdb := setupTestDB(t)
	r := setupCronRouter(t, gdb)
	t.Setenv("CRON_SECRET", "")

	// シークレット未設定時は全て拒否（素通しにしない）
	assert.Equal(t, http.StatusUnauthorized, cronGet(r, "/api/cron/cleanup", "").Code)
}

func TestCronCleanupDeletesExpiredPosts(t *testing.T) {
	gdb := setupTestDB(t)
	r := setupCronRouter(t, gdb)
	user := createUser(t, gdb, "AAAA2222")

	expired := createPost(t, gdb, user.ID, time.Now().Add(-time.Minute))
	createPost(t, gdb, user.ID, time.Now().Add(time.Hour))

	w := cronGet(r, "/api/cron/cleanup", testCronSecret)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		DeletedCount int      `json:"deleted_count"`
		DeletedFiles []string `json:"deleted_files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.DeletedCount)
	assert.Equal(t, []string{expired.ImageURL}, body.DeletedFiles)

	var count int64
	require.NoError(t, gdb.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// 2 回目は削除対象なし
	w = cronGet(r, "/api/cron/cleanup", testCronSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No expired posts")
}

func TestCronGenerateTopicsIsIdempotent(t *testing.T) {
	gdb := setupTestDB(t)
	r := setupCronRouter(t, gdb)

	w := cronGet(r, "/api/cron/generate-topics", testCronSecret)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count   int    `json:"count"`
		Date    string `json:"date"`
		Skipped bool   `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 24, body.Count)
	assert.NotEmpty(t, body.Date)

	w = cronGet(r, "/api/cron/generate-topics", testCronSecret)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Skipped)

	var count int64
	require.NoError(t, gdb.Model(&models.HourlyTopic{}).Count(&count).Error)
	assert.EqualValues(t, 24, count)
}
