package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oshipochi/internal/models"
)

// recordingFlush はフラッシュ呼び出しを記録するテスト用 flushFunc
type recordingFlush struct {
	mu    sync.Mutex
	calls []flushCall
}

type flushCall struct {
	userID string
	postID string
	hearts int
}

func (r *recordingFlush) fn(userID, postID string, topicID *string, hearts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, flushCall{userID: userID, postID: postID, hearts: hearts})
	return nil
}

func (r *recordingFlush) snapshot() []flushCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]flushCall(nil), r.calls...)
}

func TestHeartBatcherCoalescesTaps(t *testing.T) {
	rec := &recordingFlush{}
	b := newHeartBatcher(20*time.Millisecond, rec.fn)

	for i := 0; i < 5; i++ {
		b.Add("user-1", "post-1", nil)
	}

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "user-1", calls[0].userID)
	assert.Equal(t, "post-1", calls[0].postID)
	assert.Equal(t, 5, calls[0].hearts)
}

func TestHeartBatcherSeparatePostsFlushSeparately(t *testing.T) {
	rec := &recordingFlush{}
	b := newHeartBatcher(20*time.Millisecond, rec.fn)

	b.Add("user-1", "post-1", nil)
	b.Add("user-1", "post-2", nil)
	b.Add("user-1", "post-2", nil)

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)

	byPost := map[string]int{}
	for _, call := range rec.snapshot() {
		byPost[call.postID] += call.hearts
	}
	assert.Equal(t, 1, byPost["post-1"])
	assert.Equal(t, 2, byPost["post-2"])
}

func TestHeartBatcherCloseFlushesPending(t *testing.T) {
	rec := &recordingFlush{}
	// タイマーが発火しないよう長めの遅延にする
	b := newHeartBatcher(time.Hour, rec.fn)

	b.Add("user-1", "post-1", nil)
	b.Add("user-1", "post-1", nil)
	b.Add("user-1", "post-1", nil)
	b.Close()

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, 3, calls[0].hearts)

	// Close は冪等で、二重フラッシュしない
	b.Close()
	assert.Len(t, rec.snapshot(), 1)
}

func TestHeartBatcherAddAfterCloseFlushesImmediately(t *testing.T) {
	rec := &recordingFlush{}
	b := newHeartBatcher(time.Hour, rec.fn)
	b.Close()

	b.Add("user-1", "post-1", nil)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].hearts)
}

func TestFlushHeartsWritesVoteAndCounter(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb, "AAAA2222")
	post := seedPost(t, gdb, user.ID, time.Now().Add(time.Hour))

	flush := flushHearts(gdb)
	require.NoError(t, flush(user.ID, post.ID, nil, 4))

	var vote models.HeartVote
	require.NoError(t, gdb.First(&vote, "post_id = ?", post.ID).Error)
	assert.Equal(t, user.ID, vote.UserID)
	assert.Equal(t, 4, vote.Hearts)
	assert.Nil(t, vote.TopicID)

	var got models.Post
	require.NoError(t, gdb.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, 4, got.HeartCount)

	// 2 回目は加算される
	require.NoError(t, flush(user.ID, post.ID, nil, 2))
	require.NoError(t, gdb.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, 6, got.HeartCount)
}
