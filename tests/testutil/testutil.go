package testutil

import (
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/craftlink-lk/craftlink-api/models"
)

// OpenTestDB opens an isolated in-memory database with the full schema
// migrated. Every call returns a fresh handle, so tests never share state.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	return db
}

// RequireTestEnvironment fails the test unless GO_ENV is set to "test".
// Use it in tests that read connection settings from the environment, so a
// developer's .env.development can never leak into a test run.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("Refusing to run outside the test environment: GO_ENV=%q, want \"test\"", env)
	}
}
