package database

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/blog-api/internal/config"
	"github.com/EgehanKilicarslan/blog-api/internal/database/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const sqliteScheme = "sqlite://"

// Connect opens the database named by cfg.DatabaseURL and brings its schema up to date.
// PostgreSQL DSNs are migrated with goose; "sqlite://<path>" URLs use gorm's AutoMigrate.
// The caller owns the returned handle and must release it with Close.
func Connect(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	dialector, name := openDialector(cfg.DatabaseURL)

	logger.Info("🔌 [Database] Connecting...", "driver", name)

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormLogLevel(cfg)),
	}

	var db *gorm.DB
	var err error
	maxRetries := int(max(cfg.DBConnectRetries, 1))
	retryDelay := time.Duration(cfg.DBRetryDelay) * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			// Test the connection
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				err = sqlDB.Ping()
			} else {
				err = dbErr
			}
			if err == nil {
				break
			}
		}

		if i < maxRetries-1 {
			logger.Warn("⏳ [Database] Connection failed, retrying...",
				"attempt", i+1,
				"max_retries", maxRetries,
				"retry_in", retryDelay,
				"error", err,
			)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", name, maxRetries, err)
	}

	logger.Info("✅ [Database] Database connection established")

	logger.Info("🔄 [Database] Running migrations...")
	if name == "postgres" {
		err = runMigrations(db)
	} else {
		err = AutoMigrate(db)
	}
	if err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("✅ [Database] Migrations completed successfully")

	return db, nil
}

// AutoMigrate creates the schema from the gorm models. Used for sqlite databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Post{}, &models.PostTag{})
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openDialector(url string) (gorm.Dialector, string) {
	if path, ok := strings.CutPrefix(url, sqliteScheme); ok {
		return sqlite.Open(path), "sqlite"
	}
	return postgres.Open(url), "postgres"
}

func runMigrations(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	return nil
}

func gormLogLevel(cfg *config.Config) gormlogger.LogLevel {
	if cfg.LogLevel <= slog.LevelDebug {
		return gormlogger.Info
	}
	return gormlogger.Silent
}
