package db

import (
	"fmt"
	"strings"

	"github.com/kasuganosora/questforge/server/config"
	dbmysql "github.com/kasuganosora/questforge/server/db/mysql"
	dbpostgres "github.com/kasuganosora/questforge/server/db/postgres"
	dbsqlite "github.com/kasuganosora/questforge/server/db/sqlite"
	"github.com/xo/dburl"
	"gorm.io/gorm"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModeMySQL    = "mysql"
	ModePostgres = "postgres"
	ModeURL      = "url"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeMemory:
		return dbsqlite.OpenMemory("questforge")
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	case ModePostgres:
		return dbpostgres.Open(cfg.PostgresDSN, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	case ModeURL:
		return openURL(cfg)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}

// openURL resolves a database URL (postgres://, mysql://, sqlite:...) to the
// matching dialector.
func openURL(cfg config.DatabaseConfig) (*gorm.DB, error) {
	u, err := dburl.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("db: parse url: %w", err)
	}
	switch u.Driver {
	case "postgres":
		return dbpostgres.Open(u.DSN, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	case "mysql":
		dsn := u.DSN
		if !strings.Contains(dsn, "parseTime") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "parseTime=true"
		}
		return dbmysql.Open(dsn, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	case "sqlite3":
		return dbsqlite.Open(u.DSN)
	default:
		return nil, fmt.Errorf("db: unsupported url driver %q", u.Driver)
	}
}
