package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Provider hands out request-scoped connections from the shared pool.
type Provider struct {
	db      *gorm.DB
	dialect Dialect
	logger  zerolog.Logger
}

// NewProvider constructs a connection provider over an opened pool.
func NewProvider(db *gorm.DB, dialect Dialect, logger zerolog.Logger) *Provider {
	return &Provider{
		db:      db,
		dialect: dialect,
		logger:  logger.With().Str("component", "db_provider").Logger(),
	}
}

// Dialect reports the SQL dialect spoken by the backend.
func (p *Provider) Dialect() Dialect {
	return p.dialect
}

// Scope pins a single connection for the duration of fn and releases it on every exit path.
// Session-scoped objects such as temporary tables created inside fn are only visible to fn.
func (p *Provider) Scope(ctx context.Context, fn func(conn *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			p.logger.Warn().Err(closeErr).Msg("failed to release database connection")
		}
	}()

	tx := p.db.WithContext(ctx)
	tx.Statement.ConnPool = conn

	return fn(tx)
}

// Ping verifies the backend is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}

// Close releases the underlying pool.
func (p *Provider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
