package testutil

import (
	"fmt"
	"testing"
	"time"

	"gitlearn/backend/config"
	"gitlearn/backend/models"
	"gitlearn/backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB returns a migrated in-memory sqlite database private to the test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// one connection keeps the shared-cache database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := utils.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func Logger(tb testing.TB) *zap.SugaredLogger {
	tb.Helper()
	return zap.NewNop().Sugar()
}

func Config() *config.Config {
	return &config.Config{
		DBDriver:           "sqlite",
		JWTSecret:          "testsecret",
		JWTTTL:             time.Hour,
		ServerPort:         "0",
		CORSOrigins:        "*",
		ClientURL:          "http://localhost:3000",
		AdminEmail:         "admin@example.com",
		ProgressMaxRetries: 5,
	}
}

// SeedUser creates a user whose password is "password".
func SeedUser(tb testing.TB, db *gorm.DB, username, role string) *models.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash: %v", err)
	}
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// Token signs an access token for u with cfg.
func Token(tb testing.TB, cfg *config.Config, u *models.User) string {
	tb.Helper()
	token, err := utils.GenerateJWTToken(u.ID, u.Role, cfg)
	if err != nil {
		tb.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}
