package infra

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cloudcopper/mesher/domain/models"
	"github.com/cloudcopper/mesher/ports"
	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite" // purego sqlite3 driver
)

const (
	DriverSqlite         = "sqlite"
	SourceSqliteInMemory = "file::memory:?cache=shared&_pragma=foreign_keys(1)"
)

// SourceSqlite returns data source for database file path,
// or shared in-memory database if path is empty
func SourceSqlite(path string) string {
	if path == "" {
		return SourceSqliteInMemory
	}
	return fmt.Sprintf("file:%v?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

func NewDatabase(log ports.Logger, driver, source string) (ports.DB, func(), error) {
	sqlDB, err := sql.Open(driver, source)
	if err != nil {
		return nil, nil, err
	}

	dbLogger := slogGorm.New(slogGorm.WithHandler(log.Handler()))
	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	log.Debug("database opened", slog.String("driver", driver), slog.String("source", source))
	return db, func() { sqlDB.Close() }, nil
}

// MigrateDatabase syncs schema of all models
func MigrateDatabase(db ports.DB) error {
	return db.AutoMigrate(new(models.Conversion))
}
