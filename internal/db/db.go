package db

import (
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"oshipochi/internal/models"
)

var DB *gorm.DB

// Init は Postgres に接続しマイグレーションを実行する
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// ローカル開発用フォールバック
		dsn = "host=localhost user=postgres password=postgres dbname=oshipochi port=5432 sslmode=disable TimeZone=Asia/Tokyo"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("データベース接続に失敗")
	}

	log.Info().Msg("database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatal().Err(err).Msg("マイグレーションに失敗")
	}
	log.Info().Msg("database migration completed")
}

// Migrate は全モデルの AutoMigrate を実行する。テストからも使う
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.HeartVote{},
		&models.HourlyTopic{},
		&models.Follow{},
		&models.Referral{},
	)
}
