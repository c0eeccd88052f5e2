package services

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"oshipochi/internal/models"
)

// FlushDelay 連打をまとめて 1 回の書き込みにする猶予
const FlushDelay = 300 * time.Millisecond

// flushFunc は溜まったハートを 1 回のバックエンド呼び出しで書き込む
type flushFunc func(userID, postID string, topicID *string, hearts int) error

// pendingVote はユーザー×投稿ごとの未送信カウンタ
type pendingVote struct {
	count   int
	topicID *string
	timer   *time.Timer
}

// HeartBatcher は短時間に連続したハートをまとめて書き込む
// キーは userID|postID。タイマー発火か Close でフラッシュし、
// カウンタはロック内で読み取りと同時にゼロ化するため二重送信は起きない
type HeartBatcher struct {
	delay   time.Duration
	flush   flushFunc
	mu      sync.Mutex
	pending map[string]*pendingVote
	closed  bool
}

// NewHeartBatcher は DB へ書き込むバッチャーを作成する
func NewHeartBatcher(db *gorm.DB) *HeartBatcher {
	return newHeartBatcher(FlushDelay, flushHearts(db))
}

func newHeartBatcher(delay time.Duration, flush flushFunc) *HeartBatcher {
	return &HeartBatcher{
		delay:   delay,
		flush:   flush,
		pending: make(map[string]*pendingVote),
	}
}

// Add はハート 1 個を積み、デバウンスタイマーをリセットする
// Close 後に呼ばれた場合は即時に書き込む
func (b *HeartBatcher) Add(userID, postID string, topicID *string) {
	key := userID + "|" + postID

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.doFlush(userID, postID, topicID, 1)
		return
	}
	p, ok := b.pending[key]
	if !ok {
		p = &pendingVote{topicID: topicID}
		b.pending[key] = p
	}
	p.count++
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(b.delay, func() { b.flushKey(key) })
	b.mu.Unlock()
}

// flushKey は該当キーの未送信分を取り出してゼロ化し、1 回だけ書き込む
func (b *HeartBatcher) flushKey(key string) {
	b.mu.Lock()
	p, ok := b.pending[key]
	if !ok {
		// タイマーと Close が競合した場合、後から来た方は何もしない
		b.mu.Unlock()
		return
	}
	delete(b.pending, key)
	count := p.count
	topicID := p.topicID
	b.mu.Unlock()

	if count <= 0 {
		return
	}
	userID, postID, _ := strings.Cut(key, "|")
	b.doFlush(userID, postID, topicID, count)
}

func (b *HeartBatcher) doFlush(userID, postID string, topicID *string, hearts int) {
	// 失敗してもリトライしない。UI の楽観的減算も巻き戻さない
	if err := b.flush(userID, postID, topicID, hearts); err != nil {
		log.Error().Err(err).
			Str("post_id", postID).
			Str("user_id", userID).
			Int("hearts", hearts).
			Msg("ハートの書き込みに失敗")
	}
}

// Close は全タイマーを止め、残っている未送信分を同期的にフラッシュする
func (b *HeartBatcher) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	keys := make([]string, 0, len(b.pending))
	for key, p := range b.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		keys = append(keys, key)
	}
	b.mu.Unlock()

	for _, key := range keys {
		b.flushKey(key)
	}
}

// flushHearts は 1 トランザクションで投票記録の追加と heart_count の加算を行う
func flushHearts(db *gorm.DB) flushFunc {
	return func(userID, postID string, topicID *string, hearts int) error {
		return db.Transaction(func(tx *gorm.DB) error {
			vote := models.HeartVote{
				ID:      uuid.NewString(),
				UserID:  userID,
				PostID:  postID,
				TopicID: topicID,
				Hearts:  hearts,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).
				Where("id = ?", postID).
				UpdateColumn("heart_count", gorm.Expr("heart_count + ?", hearts)).
				Error
		})
	}
}
