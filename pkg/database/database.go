package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pos-service/pkg/config"
	applog "pos-service/pkg/logger"
	"pos-service/pkg/tenancy"
)

// InitDB opens the postgres connection and applies the pool settings from config
func InitDB(dbConfig *config.DBConfig) (*gorm.DB, error) {
	pgConfig := postgres.Config{
		DSN:                  dbConfig.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger:         logger.Default.LogMode(dbConfig.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		applog.GetLogger().Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		applog.GetLogger().Error("Failed to get database object", zap.Error(err))
		return nil, err
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	applog.GetLogger().Info("Database connected successfully",
		zap.String("host", dbConfig.Host),
		zap.String("database", dbConfig.DBName))

	return db, nil
}

// MigrateShared runs migrations for the models living in the public schema
func MigrateShared(db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// ProvisionSchema creates the tenant schema if needed and migrates every
// model registered with reg into it.
func ProvisionSchema(ctx context.Context, db *gorm.DB, reg *tenancy.Registry, schema string) error {
	if !tenancy.ValidSchemaName(schema) {
		return fmt.Errorf("%w: %q", tenancy.ErrInvalidSchema, schema)
	}

	if err := db.WithContext(ctx).Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(schema)).Error; err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}

	if err := reg.Migrate(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema %s: %w", schema, err)
	}

	return nil
}

// Ping checks database connectivity
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
