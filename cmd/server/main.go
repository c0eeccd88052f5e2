package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"oshipochi/internal/db"
	"oshipochi/internal/handlers"
	"oshipochi/internal/logging"
	"oshipochi/internal/middleware"
	"oshipochi/internal/router"
	"oshipochi/internal/services"
	"oshipochi/internal/utils"
)

func main() {
	// .env が無くても環境変数があれば動く
	if err := godotenv.Load(); err != nil {
		log.Info().Msg(".env ファイルが見つかりません。環境変数を直接使用します")
	}
	logging.Init()

	db.Init()
	db.InitRedis()

	handlers.InitLineOAuth()

	cache, err := utils.NewTTLCache(256)
	if err != nil {
		log.Fatal().Err(err).Msg("キャッシュの初期化に失敗")
	}
	topics := services.NewTopicService(db.DB, cache)
	quota := services.NewHeartQuota(db.DB, db.RDB)
	batcher := services.NewHeartBatcher(db.DB)
	storage := services.NewStorage()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal().Msg("SESSION_SECRET が設定されていません")
	}
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions("oshipochi_session", store))
	r.Use(middleware.LoadUser())

	router.Register(r, router.Handlers{
		Auth:     handlers.NewAuthHandler(),
		Post:     handlers.NewPostHandler(storage, topics),
		Topic:    handlers.NewTopicHandler(topics),
		Vote:     handlers.NewVoteHandler(quota, batcher, topics),
		User:     handlers.NewUserHandler(),
		Follow:   handlers.NewFollowHandler(),
		Referral: handlers.NewReferralHandler(),
		Terms:    handlers.NewTermsHandler(),
		Cron:     handlers.NewCronHandler(topics, storage),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// お題生成と期限切れ投稿の掃除をプロセス内でも回す
	scheduler := services.NewScheduler(db.DB, topics, storage)
	scheduler.Start(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("サーバーを起動します")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("サーバーの起動に失敗")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("シャットダウンします")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("シャットダウンに失敗")
	}

	// 未反映のハートを確実に書き出してから終了する
	batcher.Close()
}
