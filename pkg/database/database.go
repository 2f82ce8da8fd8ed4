package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tasktracker/configs"
	"tasktracker/pkg/logger"
)

// MemorySQLite is the DSN of a private in-memory SQLite database.
const MemorySQLite = "file::memory:"

// ConnectDB opens the store selected by cfg.DBDriver.
func ConnectDB(cfg configs.Config, loggers *logger.Loggers) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		return OpenPostgres(dsn, loggers)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath, loggers)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// OpenPostgres connects through lib/pq and hands the pool to gorm.
func OpenPostgres(dsn string, loggers *logger.Loggers) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig(loggers))
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite file (or MemorySQLite) with foreign keys
// enforced. A single connection is used: writes are serialized and an
// in-memory database survives for the life of the pool.
func OpenSQLite(path string, loggers *logger.Loggers) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), gormConfig(loggers))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormConfig(loggers *logger.Loggers) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			zap.NewStdLog(loggers.System),
			gormlogger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}
}
