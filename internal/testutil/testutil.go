package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/blog-api/internal/config"
	"github.com/EgehanKilicarslan/blog-api/internal/database"
)

// TestConfig returns a config suitable for unit tests
func TestConfig() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		LogLevel:        slog.LevelError,
		Port:            "0",
		DatabaseURL:     "sqlite://:memory:",
		JWTSecret:       "test-secret-key",
		TokenExpiration: 3600,
		BcryptCost:      bcrypt.MinCost,
		ShutdownTimeout: 1,
	}
}

// TestLogger returns a logger that discards output
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestDB opens an in-memory sqlite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// HashPassword hashes with the minimum bcrypt cost
func HashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}
