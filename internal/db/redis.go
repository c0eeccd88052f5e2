package db

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var RDB *redis.Client

// InitRedis は Redis に接続する。ハート残数カウンタに使う
// 接続できなくてもクォータ側が DB 集計にフォールバックするため起動は続行する
func InitRedis() {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Error().Err(err).Msg("REDIS_URL の解析に失敗")
		return
	}
	RDB = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis に接続できません。ハート上限は DB 集計のみで判定します")
		return
	}
	log.Info().Msg("redis connection established")
}
