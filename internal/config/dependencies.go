package config

import (
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"tasktracker/configs"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
	"tasktracker/internal/sessions"
	"tasktracker/pkg/crypto"
	"tasktracker/pkg/database"
	"tasktracker/pkg/logger"
)

// Dependencies is everything the web layer needs, built once at startup and
// passed down explicitly.
type Dependencies struct {
	DB *gorm.DB
	// Redis is nil when sessions and rate limits are kept in memory.
	Redis    *redis.Client
	Repo     *repository.Repository
	Sessions *sessions.Manager
	Accounts *service.Accounts
	Tasks    *service.Tasks
	Loggers  *logger.Loggers

	RateLimitMax int
}

// Build assembles the services over db. redisClient may be nil.
func Build(cfg configs.Config, db *gorm.DB, redisClient *redis.Client, loggers *logger.Loggers) *Dependencies {
	repo := repository.New(db)
	validate := service.NewValidator()

	sessCfg := sessions.Config{Expiration: cfg.SessionTTL, CookieSecure: cfg.CookieSecure}
	if redisClient != nil {
		sessCfg.Storage = database.NewRedisStorage(redisClient, "session:")
	}

	return &Dependencies{
		DB:           db,
		Redis:        redisClient,
		Repo:         repo,
		Sessions:     sessions.NewManager(sessCfg),
		Accounts:     service.NewAccounts(repo, crypto.NewBcryptHasher(cfg.BcryptCost), validate, loggers),
		Tasks:        service.NewTasks(repo, validate, time.Now, loggers),
		Loggers:      loggers,
		RateLimitMax: cfg.RateLimitMax,
	}
}
