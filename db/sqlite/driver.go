package sqlite

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by an SQLite file. Foreign keys are switched
// on for every connection so ON DELETE CASCADE rules apply.
func Open(path string) (*gorm.DB, error) {
	return open(withForeignKeys(path))
}

// OpenMemory creates a private in-memory database identified by name. All
// pooled connections share it, and the pool is capped at one connection so
// the database lives as long as the *gorm.DB.
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := open("file:" + name + "?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return db, nil
}

func open(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
