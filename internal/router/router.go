package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oshipochi/internal/handlers"
	"oshipochi/internal/middleware"
)

// Handlers はルーティングに必要なハンドラ一式
type Handlers struct {
	Auth     *handlers.AuthHandler
	Post     *handlers.PostHandler
	Topic    *handlers.TopicHandler
	Vote     *handlers.VoteHandler
	User     *handlers.UserHandler
	Follow   *handlers.FollowHandler
	Referral *handlers.ReferralHandler
	Terms    *handlers.TermsHandler
	Cron     *handlers.CronHandler
}

// Register は全ルートを登録する
func Register(r *gin.Engine, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/terms/:name", h.Terms.Show)

	// OAuth ログイン
	r.GET("/auth/line", h.Auth.LineLogin)
	r.GET("/auth/line/callback", h.Auth.LineCallback)
	r.GET("/auth/tiktok", h.Auth.TikTokLogin)
	r.GET("/auth/tiktok/callback", h.Auth.TikTokCallback)
	r.POST("/logout", h.Auth.Logout)

	api := r.Group("/api")
	{
		// 未ログインでも閲覧できる公開 API
		api.GET("/feed", h.Post.Feed)
		api.GET("/ranking", h.Post.Ranking)
		api.GET("/posts/:id", h.Post.Detail)
		api.GET("/topics/current", h.Topic.Current)
		api.GET("/topics/today", h.Topic.Today)
		api.GET("/users/:id", h.User.Profile)

		// ログイン必須 API。書き込み系はレート制限をかける
		authorized := api.Group("")
		authorized.Use(middleware.AuthRequired())
		authorized.Use(middleware.NewRateLimiter(5, 10).Handler())
		{
			authorized.POST("/posts", h.Post.Create)
			authorized.DELETE("/posts/:id", h.Post.Delete)
			authorized.POST("/posts/:id/hearts", h.Vote.CastHeart)
			authorized.GET("/hearts", h.Vote.Remaining)
			authorized.GET("/me", h.User.Me)
			authorized.PATCH("/me", h.User.UpdateMe)
			authorized.POST("/me/verify-age", h.User.VerifyAge)
			authorized.PUT("/users/:id/follow", h.Follow.Follow)
			authorized.DELETE("/users/:id/follow", h.Follow.Unfollow)
			authorized.POST("/referral/apply", h.Referral.Apply)
		}

		// 外部スケジューラ用（CRON_SECRET で保護）
		cron := api.Group("/cron")
		{
			cron.GET("/cleanup", h.Cron.Cleanup)
			cron.GET("/generate-topics", h.Cron.GenerateTopics)
		}
	}
}
