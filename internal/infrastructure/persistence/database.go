package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketbook/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the gorm connection pool shared by the commission repositories
type Database struct {
	DB *gorm.DB
}

// Plugin is a gorm extension registered after the connection is opened
type Plugin interface {
	Register(db *gorm.DB) error
}

// Open connects to PostgreSQL, sizes the pool from cfg and verifies the
// connection before returning
func Open(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	gcfg := gormConfig(gormLogger)
	gcfg.PrepareStmt = true
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	database := &Database{DB: db}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return database, nil
}

// OpenDialector opens a database over a caller supplied dialector, such as
// sqlite in unit tests or a testcontainers PostgreSQL. Statements are not
// prepared. A nil logger silences gorm.
func OpenDialector(dialector gorm.Dialector, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Discard
	}
	db, err := gorm.Open(dialector, gormConfig(gormLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Database{DB: db}, nil
}

// gormConfig holds the settings every connection shares. Repositories rely
// on TranslateError to see gorm.ErrDuplicatedKey for ledger unique indexes,
// and open their own transactions.
func gormConfig(gormLogger logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// Use registers plugins such as query tracing on the connection
func (d *Database) Use(plugins ...Plugin) error {
	for _, p := range plugins {
		if err := p.Register(d.DB); err != nil {
			return fmt.Errorf("failed to register database plugin: %w", err)
		}
	}
	return nil
}

// PingContext checks the connection within the deadline of ctx
func (d *Database) PingContext(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
