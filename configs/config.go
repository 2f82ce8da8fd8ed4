package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppPort int `validate:"min=1,max=65535"`

	DBDriver   string `validate:"oneof=sqlite postgres"`
	DBHost     string `validate:"required_if=DBDriver postgres"`
	DBPort     int    `validate:"min=1,max=65535"`
	DBUser     string `validate:"required_if=DBDriver postgres"`
	DBPassword string
	DBName     string `validate:"required_if=DBDriver postgres"`
	SQLitePath string `validate:"required_if=DBDriver sqlite"`

	// Sessions live in memory when RedisHost is empty.
	RedisHost     string
	RedisPort     int `validate:"min=1,max=65535"`
	RedisPassword string

	SessionTTL   time.Duration `validate:"min=1m"`
	CookieSecure bool
	RateLimitMax int `validate:"min=0"`
	LogDir       string
	BcryptCost   int `validate:"min=4,max=31"`
}

func LoadConfig() Config {
	// Muat file .env
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		AppPort:       envInt("APP_PORT", 3004),
		DBDriver:      envString("DB_DRIVER", "sqlite"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        envInt("DB_PORT", 5432),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		SQLitePath:    envString("SQLITE_PATH", "tasks.db"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     envInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SessionTTL:    time.Duration(envInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",
		RateLimitMax:  envInt("RATE_LIMIT_MAX", 100),
		LogDir:        envString("LOG_DIR", "logs"),
		BcryptCost:    envInt("BCRYPT_COST", bcrypt.DefaultCost),
	}
}

// Validate checks the loaded values before anything connects.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.AppPort) }

// envString returns def only when the variable is unset, so LOG_DIR= can
// switch file logging off.
func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
