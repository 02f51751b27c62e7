// Package testutil provides a postgres-backed database for repository tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"barstock-backend/internal/database"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSchema = "test_barstock"

// projectRoot returns the directory holding go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// SetupTestDB connects to TEST_DATABASE_DSN with a fresh schema per test and
// migrates every model. The schema is dropped on cleanup. Tests are skipped
// when TEST_DATABASE_DSN is not set.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if root := projectRoot(); root != "" {
		_ = godotenv.Load(filepath.Join(root, ".env"))
	}

	baseDSN := os.Getenv("TEST_DATABASE_DSN")
	if baseDSN == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping database test")
	}

	schemaName := fmt.Sprintf("%s_%d", testSchema, time.Now().UnixNano()%1000000)
	quiet := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true}

	setupDB, err := gorm.Open(postgres.Open(baseDSN), quiet)
	if err != nil {
		t.Fatalf("connect for schema setup: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if sqlSetup, err := setupDB.DB(); err == nil {
		sqlSetup.Close()
	}

	// search_path in the DSN so every pooled connection lands in the test schema
	db, err := gorm.Open(postgres.Open(fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)), quiet)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		cleanDB, err := gorm.Open(postgres.Open(baseDSN), quiet)
		if err != nil {
			return
		}
		cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
		if sqlClean, err := cleanDB.DB(); err == nil {
			sqlClean.Close()
		}
	})

	return db
}
