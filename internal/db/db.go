package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aviatorpro/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// GormConfig is shared by Open and tests that wrap a mocked connection.
// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	}
}

func Open(cfg config.DBConfig) (*DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("db dsn is empty")
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), GormConfig())
	if err != nil {
		return nil, err
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{Gorm: gdb, SQL: sqldb}, nil
}

// Wrap builds a DB around an existing *sql.DB, e.g. a sqlmock connection.
func Wrap(conn *sql.DB) (*DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), GormConfig())
	if err != nil {
		return nil, err
	}
	return &DB{Gorm: gdb, SQL: conn}, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func Ping(ctx context.Context, db *DB) error {
	if db == nil || db.SQL == nil {
		return errors.New("db not configured")
	}
	return db.SQL.PingContext(ctx)
}

func SetTimezone(db *DB, tz string) error {
	tz = strings.TrimSpace(tz)
	if tz == "" || db == nil || db.SQL == nil {
		return nil
	}
	if strings.ContainsAny(tz, "';") {
		return errors.New("invalid timezone")
	}
	_, err := db.SQL.Exec("SET TIME ZONE '" + tz + "'")
	return err
}
