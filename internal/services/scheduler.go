package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"oshipochi/internal/utils"
)

// Scheduler はプロセス内の定期ジョブ
// 外部 cron からも同じ処理を叩けるが、単体デプロイでも動くように内蔵している
type Scheduler struct {
	db      *gorm.DB
	topics  *TopicService
	storage *Storage
}

func NewScheduler(db *gorm.DB, topics *TopicService, storage *Storage) *Scheduler {
	return &Scheduler{db: db, topics: topics, storage: storage}
}

// Start は起動時に今日分のお題を確保し、バックグラウンドループを開始する
func (s *Scheduler) Start(ctx context.Context) {
	if n, err := s.topics.EnsureToday(ctx, time.Now()); err != nil {
		log.Error().Err(err).Msg("起動時のお題生成に失敗")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("今日のお題を生成")
	}

	go s.topicLoop(ctx)
	go s.cleanupLoop(ctx)
}

// topicLoop は JST の 0 時に翌日分のお題を生成する
func (s *Scheduler) topicLoop(ctx context.Context) {
	for {
		now := time.Now()
		next := utils.JSTDayStartUTC(now).Add(24 * time.Hour)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		if n, err := s.topics.EnsureToday(ctx, time.Now()); err != nil {
			log.Error().Err(err).Msg("お題の日次生成に失敗")
		} else if n > 0 {
			log.Info().Int("count", n).Msg("今日のお題を生成")
		}
	}
}

// cleanupLoop は毎正時に期限切れ投稿を削除する
func (s *Scheduler) cleanupLoop(ctx context.Context) {
	for {
		now := time.Now()
		next := utils.NextHourUTC(now)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		if _, _, err := CleanupExpiredPosts(ctx, s.db, s.storage, time.Now()); err != nil {
			log.Error().Err(err).Msg("期限切れ投稿の削除に失敗")
		}
	}
}
