package main

import (
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"tasktracker/configs"
	"tasktracker/internal/config"
	"tasktracker/internal/repository"
	"tasktracker/internal/web"
	"tasktracker/pkg/database"
	"tasktracker/pkg/logger"
)

func main() {
	// Load config
	cfg := configs.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Inisialisasi logger
	loggers, err := logger.New(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer loggers.Sync()
	loggers.System.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Inisialisasi database
	db, err := database.ConnectDB(cfg, loggers)
	if err != nil {
		loggers.Error.Fatal("Database connection failed", zap.Error(err))
	}
	defer database.Close(db)
	loggers.System.Info("Database Connected", zap.String("driver", cfg.DBDriver))

	// Buat tabel jika belum ada
	if err := repository.CreateTableIfNotExists(db); err != nil {
		loggers.Error.Fatal("Migration failed", zap.Error(err))
	}

	// Redis hanya dipakai jika REDIS_HOST diisi
	var redisClient *redis.Client
	if cfg.RedisHost != "" {
		redisClient, err = database.ConnectRedis(cfg)
		if err != nil {
			loggers.Error.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
		loggers.System.Info("Redis Connected")
	}

	app := web.NewApp(config.Build(cfg, db, redisClient, loggers))

	loggers.System.Info("Application ready", zap.String("addr", cfg.Addr()))
	if err := app.Listen(cfg.Addr()); err != nil {
		loggers.Error.Error("Application failed to start", zap.Error(err))
	}
}
