package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oshipochi/internal/db"
	"oshipochi/internal/models"
)

// newTestDB はテストごとに独立した in-memory SQLite を用意する
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:oshipochi_%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, code string) *models.User {
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

func seedPost(t *testing.T, gdb *gorm.DB, userID string, expiresAt time.Time) *models.Post {
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
