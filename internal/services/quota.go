package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"oshipochi/internal/models"
	"oshipochi/internal/utils"
)

// HourlyHeartLimit は 1 ユーザーが 1 時間（正時区切り）に送れるハート数
const HourlyHeartLimit = 10

// quotaKeyTTLGrace はキー失効を時間境界より少し遅らせる猶予
const quotaKeyTTLGrace = 5 * time.Minute

var ErrQuotaExhausted = errors.New("今時間のハートを使い切りました")

// HeartQuota はハート残数の判定を行う
// Redis の INCR で原子的に枠を確保するため、複数端末から同時に押しても上限を超えない
// Redis が使えない場合は heart_votes の集計にフォールバックする（参考値、原子性なし）
type HeartQuota struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHeartQuota(db *gorm.DB, rdb *redis.Client) *HeartQuota {
	return &HeartQuota{db: db, rdb: rdb}
}

// quotaKey は正時区切りのカウンタキーを返す
func quotaKey(userID string, now time.Time) string {
	return "heart_quota:" + userID + ":" + utils.HourStartUTC(now).Format("2006010215")
}

// Reserve は 1 ハート分の枠を確保し、確保後の残数を返す
// 上限超過時は ErrQuotaExhausted を返し、カウンタは戻す
func (q *HeartQuota) Reserve(ctx context.Context, userID string, now time.Time) (int, error) {
	if q.rdb != nil {
		key := quotaKey(userID, now)
		n, err := q.rdb.Incr(ctx, key).Result()
		if err == nil {
			if n == 1 {
				q.rdb.ExpireAt(ctx, key, utils.NextHourUTC(now).Add(quotaKeyTTLGrace))
			}
			if n > HourlyHeartLimit {
				q.rdb.Decr(ctx, key)
				return 0, ErrQuotaExhausted
			}
			return HourlyHeartLimit - int(n), nil
		}
		log.Warn().Err(err).Msg("Redis でのハート枠確保に失敗。DB 集計にフォールバック")
	}

	// フォールバック: フラッシュ済みの heart_votes のみ数えるため未送信分は見えない
	used, err := q.usedSince(ctx, userID, utils.HourStartUTC(now))
	if err != nil {
		return 0, err
	}
	if used >= HourlyHeartLimit {
		return 0, ErrQuotaExhausted
	}
	return HourlyHeartLimit - used - 1, nil
}

// Remaining は現在の残数を返す（UI の初期表示用）
func (q *HeartQuota) Remaining(ctx context.Context, userID string, now time.Time) (int, error) {
	if q.rdb != nil {
		n, err := q.rdb.Get(ctx, quotaKey(userID, now)).Int()
		if err == nil {
			return clampRemaining(n), nil
		}
		if errors.Is(err, redis.Nil) {
			return HourlyHeartLimit, nil
		}
		log.Warn().Err(err).Msg("Redis でのハート残数取得に失敗。DB 集計にフォールバック")
	}

	used, err := q.usedSince(ctx, userID, utils.HourStartUTC(now))
	if err != nil {
		return 0, err
	}
	return clampRemaining(used), nil
}

func clampRemaining(used int) int {
	if used >= HourlyHeartLimit {
		return 0
	}
	return HourlyHeartLimit - used
}

// usedSince は hourStart 以降に記録されたハート数の合計を返す
func (q *HeartQuota) usedSince(ctx context.Context, userID string, hourStart time.Time) (int, error) {
	var used int64
	err := q.db.WithContext(ctx).Model(&models.HeartVote{}).
		Where("user_id = ? AND created_at >= ?", userID, hourStart).
		Select("COALESCE(SUM(hearts), 0)").
		Scan(&used).Error
	if err != nil {
		return 0, err
	}
	return int(used), nil
}
