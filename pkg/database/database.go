package database

import (
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zercsiz/recipe-app-api/pkg/config"
)

// DB is the global database instance
var DB *gorm.DB

// InitDB opens the database connection and configures the pool. The
// database may come up after the service in a containerized deployment,
// so the first connection is retried with a fixed backoff.
func InitDB(cfg *config.DBConfig) error {
	dialector, err := openDialector(cfg)
	if err != nil {
		return err
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
	}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 1; ; i++ {
		DB, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			break
		}
		if i >= attempts {
			return fmt.Errorf("database unavailable after %d attempts: %w", attempts, err)
		}
		log.Printf("Database unavailable, retrying in %s (attempt %d/%d): %v",
			cfg.ConnectBackoff, i, attempts, err)
		time.Sleep(cfg.ConnectBackoff)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return nil
}

func openDialector(cfg *config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		// PreferSimpleProtocol disables implicit prepared statement usage
		return postgres.New(postgres.Config{
			DSN:                  cfg.GetDSN(),
			PreferSimpleProtocol: true,
		}), nil
	case "sqlite":
		return sqlite.Open(cfg.DBName), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// MigrateModels runs migrations for the provided models
func MigrateModels(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database is not initialized")
	}

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
