package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"oshipochi/internal/models"
	"oshipochi/internal/utils"
)

// TopicTemplates 時間帯別の固定お題（JST、0〜23 時）
// 日次生成とフォールバック表示の両方がこの 1 つの表を参照する
var TopicTemplates = [24]string{
	"深夜のひとりごと",     // 0時
	"眠れない夜に",         // 1時
	"真夜中の告白",         // 2時
	"夜更かしの理由",       // 3時
	"早起きさんへ",         // 4時
	"朝焼けの空",           // 5時
	"目覚めの一枚",         // 6時
	"朝の一杯",             // 7時
	"通勤・通学風景",       // 8時
	"今日のデスク周り",     // 9時
	"午前のおやつ",         // 10時
	"お昼ごはん",           // 11時
	"午後のひととき",       // 12時
	"推しグッズ自慢",       // 13時
	"散歩で見つけたもの",   // 14時
	"今日のおやつ",         // 15時
	"夕焼けの空",           // 16時
	"晩ごはん",             // 17時
	"今日の推し活",         // 18時
	"夜のリラックスタイム", // 19時
	"今日のベストショット", // 20時
	"寝る前の一枚",         // 21時
	"深夜のお供",           // 22時
	"今日のありがとう",     // 23時
}

const activeTopicCacheKey = "topics:active"

// TopicService は「今のお題」の解決と日次生成を行う
type TopicService struct {
	db    *gorm.DB
	cache *utils.TTLCache
}

func NewTopicService(db *gorm.DB, cache *utils.TTLCache) *TopicService {
	return &TopicService{db: db, cache: cache}
}

// Active は現在時刻に有効なお題を返す
// DB に行が無い・DB に到達できない場合は固定表から合成した一時お題を返す
// 合成お題は ID が空で、永続化されることはない
func (s *TopicService) Active(ctx context.Context, now time.Time) *models.HourlyTopic {
	if s.cache != nil {
		if cached, ok := s.cache.Get(activeTopicCacheKey).(*models.HourlyTopic); ok && cached != nil {
			if !now.Before(cached.StartsAt) && now.Before(cached.EndsAt) {
				return cached
			}
		}
	}

	var topic models.HourlyTopic
	err := s.db.WithContext(ctx).
		Where("starts_at <= ? AND ends_at > ? AND is_active = ?", now, now, true).
		Order("starts_at DESC").
		First(&topic).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Err(err).Msg("お題の取得に失敗。固定表にフォールバック")
		}
		return s.fallbackTopic(now)
	}

	if s.cache != nil {
		s.cache.SetUntil(activeTopicCacheKey, &topic, topic.EndsAt)
	}
	return &topic
}

// fallbackTopic は JST の時刻に対応する固定お題を合成する
func (s *TopicService) fallbackTopic(now time.Time) *models.HourlyTopic {
	return &models.HourlyTopic{
		Title:    TopicTemplates[utils.JSTHour(now)],
		StartsAt: utils.HourStartUTC(now),
		EndsAt:   utils.NextHourUTC(now),
		IsActive: true,
	}
}

// EnsureToday は JST の今日 1 日分 24 時間のお題を生成する
// 今日の行が 1 つでも存在すれば何もしない（日単位で冪等）
// 同時実行で重複した場合は starts_at の一意制約が弾くため、一意違反は生成済み扱いにする
func (s *TopicService) EnsureToday(ctx context.Context, now time.Time) (int, error) {
	dayStart := utils.JSTDayStartUTC(now)
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int64
	err := s.db.WithContext(ctx).Model(&models.HourlyTopic{}).
		Where("starts_at >= ? AND starts_at < ?", dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	topics := make([]models.HourlyTopic, 0, len(TopicTemplates))
	for hour, title := range TopicTemplates {
		startsAt := dayStart.Add(time.Duration(hour) * time.Hour)
		topics = append(topics, models.HourlyTopic{
			ID:       uuid.NewString(),
			Title:    title,
			StartsAt: startsAt,
			EndsAt:   startsAt.Add(time.Hour),
			IsActive: true,
		})
	}

	if err := s.db.WithContext(ctx).Create(&topics).Error; err != nil {
		if isDuplicateKey(err) {
			return 0, nil
		}
		return 0, err
	}
	return len(topics), nil
}

// Today は JST の今日のお題を開始時刻順で返す
func (s *TopicService) Today(ctx context.Context, now time.Time) ([]models.HourlyTopic, error) {
	dayStart := utils.JSTDayStartUTC(now)
	var topics []models.HourlyTopic
	err := s.db.WithContext(ctx).
		Where("starts_at >= ? AND starts_at < ?", dayStart, dayStart.Add(24*time.Hour)).
		Order("starts_at ASC").
		Find(&topics).Error
	return topics, err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite (テスト) / TranslateError 無効時のフォールバック
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
