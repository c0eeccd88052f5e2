package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oshipochi/internal/models"
)

func TestCleanupExpiredPostsDeletesOnlyExpired(t *testing.T) {
	t.Setenv("STORAGE_BASE_URL", "")
	gdb := newTestDB(t)
	user := seedUser(t, gdb, "CCCC4444")
	now := time.Now()

	expired := seedPost(t, gdb, user.ID, now.Add(-time.Minute))
	live := seedPost(t, gdb, user.ID, now.Add(time.Hour))

	deleted, files, err := CleanupExpiredPosts(context.Background(), gdb, NewStorage(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{expired.ImageURL}, files)

	var remaining []models.Post
	require.NoError(t, gdb.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, live.ID, remaining[0].ID)
}

func TestCleanupExpiredPostsNoopWhenNothingExpired(t *testing.T) {
	t.Setenv("STORAGE_BASE_URL", "")
	gdb := newTestDB(t)
	user := seedUser(t, gdb, "DDDD5555")

	seedPost(t, gdb, user.ID, time.Now().Add(time.Hour))

	deleted, files, err := CleanupExpiredPosts(context.Background(), gdb, NewStorage(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, files)
}
