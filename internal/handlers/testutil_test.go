package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oshipochi/internal/db"
	"oshipochi/internal/middleware"
	"oshipochi/internal/models"
)

// setupTestDB は in-memory SQLite を用意してグローバル接続を差し替える
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:oshipochi_%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() { db.DB = prev })
	return gdb
}

// forceLogin はセッションを介さず指定ユーザーでログインした状態を作る
func forceLogin(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.CheckUserKey, user)
		}
		c.Next()
	}
}

func createUser(t *testing.T, gdb *gorm.DB, code string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.NewString(),
		DisplayName:  "テストユーザー",
		AuthProvider: "line",
		ReferralCode: code,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

func createPost(t *testing.T, gdb *gorm.DB, userID string, expiresAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImageURL:  userID + "/photo.jpg",
		Caption:   "テスト投稿",
		ExpiresAt: expiresAt,
	}
	require.NoError(t, gdb.Create(post).Error)
	return post
}
