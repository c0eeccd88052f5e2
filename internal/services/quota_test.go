package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oshipochi/internal/models"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestReserveCountsDownToZero(t *testing.T) {
	q := NewHeartQuota(newTestDB(t), newTestRedis(t))
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= HourlyHeartLimit; i++ {
		remaining, err := q.Reserve(ctx, "user-1", now)
		require.NoError(t, err)
		assert.Equal(t, HourlyHeartLimit-i, remaining)
	}

	_, err := q.Reserve(ctx, "user-1", now)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	remaining, err := q.Remaining(ctx, "user-1", now)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestReserveExhaustedDoesNotLeakSlots(t *testing.T) {
	q := NewHeartQuota(newTestDB(t), newTestRedis(t))
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < HourlyHeartLimit; i++ {
		_, err := q.Reserve(ctx, "user-1", now)
		require.NoError(t, err)
	}

	// 超過分は何度呼んでもカウンタを増やさない
	for i := 0; i < 3; i++ {
		_, err := q.Reserve(ctx, "user-1", now)
		assert.ErrorIs(t, err, ErrQuotaExhausted)
	}

	remaining, err := q.Remaining(ctx, "user-1", now)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestQuotaIsPerUserAndPerHour(t *testing.T) {
	q := NewHeartQuota(newTestDB(t), newTestRedis(t))
	ctx := context.Background()
	now := time.Now()

	_, err := q.Reserve(ctx, "user-1", now)
	require.NoError(t, err)

	// 別ユーザーは満タンのまま
	remaining, err := q.Remaining(ctx, "user-2", now)
	require.NoError(t, err)
	assert.Equal(t, HourlyHeartLimit, remaining)

	// 次の正時はキーが変わるので満タンに戻る
	remaining, err = q.Remaining(ctx, "user-1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, HourlyHeartLimit, remaining)
}

func TestQuotaFallsBackToDBWithoutRedis(t *testing.T) {
	gdb := newTestDB(t)
	q := NewHeartQuota(gdb, nil)
	ctx := context.Background()
	now := time.Now()

	user := seedUser(t, gdb, "BBBB3333")
	post := seedPost(t, gdb, user.ID, now.Add(time.Hour))

	require.NoError(t, gdb.Create(&models.HeartVote{
		ID:        "vote-1",
		UserID:    user.ID,
		PostID:    post.ID,
		Hearts:    7,
		CreatedAt: now,
	}).Error)

	remaining, err := q.Remaining(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	remaining, err = q.Reserve(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	require.NoError(t, gdb.Create(&models.HeartVote{
		ID:        "vote-2",
		UserID:    user.ID,
		PostID:    post.ID,
		Hearts:    3,
		CreatedAt: now,
	}).Error)

	_, err = q.Reserve(ctx, user.ID, now)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}
