package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/cobach/sia-alumnos-api/internal/config"
)

// ErrConnectivity indicates the relational backend could not be reached with the configured credentials.
var ErrConnectivity = errors.New("database connectivity error")

// Connect opens the configured relational backend and verifies it answers a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlserver", "":
		return sqlserver.Open(SQLServerDSN(cfg)), nil
	case "postgres":
		return postgres.Open(PostgresDSN(cfg)), nil
	case "sqlite":
		dsn := cfg.URL
		if dsn == "" {
			dsn = "file:alumnos.db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLServerDSN builds a go-mssqldb connection string unless an explicit URL is configured.
func SQLServerDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	host := cfg.Server
	if cfg.Port > 0 {
		host = net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
	}

	query := url.Values{}
	query.Set("database", cfg.Name)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// PostgresDSN builds a pgx connection URL unless an explicit URL is configured.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	port := cfg.Port
	if port <= 0 || port == 1433 {
		port = 5432
	}

	query := url.Values{}
	query.Set("sslmode", "disable")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Server, strconv.Itoa(port)),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}
