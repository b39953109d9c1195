package testutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/dubmyyt/internal/data/db"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	memSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database for repo tests. With TEST_POSTGRES_DSN set it
// is a shared Postgres connection; otherwise a fresh in-memory SQLite database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return postgresDB(tb, dsn)
	}
	return sqliteDB(tb)
}

func postgresDB(tb testing.TB, dsn string) *gorm.DB {
	tb.Helper()
	pgOnce.Do(func() {
		pgDB, pgErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if pgErr != nil {
			return
		}
		pgErr = db.AutoMigrateAll(pgDB)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

func sqliteDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := fmt.Sprintf("file:dubmyyt_test_%d?mode=memory&cache=shared", memSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Skipf("sqlite unavailable (cgo disabled?): %v", err)
	}
	if err := db.AutoMigrateAll(conn); err != nil {
		tb.Fatalf("automigrate sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
