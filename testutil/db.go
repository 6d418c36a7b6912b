package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"loyaltystay/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultTestDBURL       = "host=localhost user=loyaltystay password=loyaltystay dbname=loyaltystay_test port=5432 sslmode=disable"
	testDBLockID     int64 = 801234569
)

// NewTestDB connects to TEST_DATABASE_URL, migrates the core tables plus
// extra, and truncates everything. Tests are skipped when Postgres is not
// reachable.
func NewTestDB(t *testing.T, extra ...interface{}) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = defaultTestDBURL
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	sqlDB.SetMaxOpenConns(4)

	t.Cleanup(func() { sqlDB.Close() })
	lockTestDB(t, db)

	if err := config.Migrate(db, extra...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	truncateAll(t, db)
	return db
}

// lockTestDB serializes packages that share the test database.
func lockTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	conn, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	c, err := conn.Conn(context.Background())
	if err != nil {
		t.Fatalf("acquire conn: %v", err)
	}
	if _, err := c.ExecContext(context.Background(), "SELECT pg_advisory_lock($1)", testDBLockID); err != nil {
		c.Close()
		t.Fatalf("advisory lock: %v", err)
	}
	t.Cleanup(func() {
		_, _ = c.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", testDBLockID)
		c.Close()
	})
}

func truncateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	tables, err := db.Migrator().GetTables()
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	if len(tables) == 0 {
		return
	}
	if err := db.Exec("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
