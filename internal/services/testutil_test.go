// internal/services/testutil_test.go
package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tphpa/portal-backend/internal/config"
	"github.com/tphpa/portal-backend/internal/database"
	"github.com/tphpa/portal-backend/internal/models"
)

// newTestDB opens a fresh in-memory database. A single connection keeps
// every goroutine on the same database and serializes writes.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 1,
		},
		Email: config.EmailConfig{
			FromEmail:   "noreply@test.local",
			FromName:    "Test Portal",
			SendTimeout: 1,
		},
		Approval: config.ApprovalConfig{
			TokenTTLHours: 24,
			ApproverRole:  "director",
			VerifyBaseURL: "http://localhost:4200/approvals/verify",
		},
		Frontend: config.FrontendConfig{
			BaseURL: "http://localhost:4200",
		},
	}
}

func newTestUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Role:      role,
		Status:    models.UserStatusActive,
	}
	if err := user.SetPassword("Passw0rd123"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}
