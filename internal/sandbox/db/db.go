package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tourdesk/internal/config"
	"tourdesk/internal/models"
	console "tourdesk/internal/utils/logger"
)

var log = console.New("DB")

const (
	maxRetries = 5
	retryDelay = 5 * time.Second
)

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Connect opens the sandbox database and migrates every model. Postgres is
// retried while the container comes up; sqlite fails fast.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	attempts := maxRetries
	if cfg.Driver == "sqlite" {
		attempts = 1
	}

	log.Info("Connecting to %s database...", cfg.Driver)
	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dial, &gorm.Config{
			Logger:                                   logger.Default.LogMode(logger.Warn),
			DisableForeignKeyConstraintWhenMigrating: true,
			AllowGlobalUpdate:                        false,
			TranslateError:                           true,
		})
		if err == nil {
			break
		}
		log.Warn("Failed to connect to database (attempt %d/%d): %v", i+1, attempts, err)
		if i < attempts-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, log.Error("Failed to connect to database after %d attempts", err, attempts)
	}
	log.Success("Connected to database")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, log.Error("Failed to get underlying *sql.DB instance", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite serializes writers; one connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, log.Error("Failed to run migrations", err)
	}
	log.Success("Migrations completed")
	return db, nil
}

// Migrate runs AutoMigrate for every model inside one transaction
func Migrate(db *gorm.DB) error {
	log.Info("Running migrations...")
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(models.All()...)
	})
}

// Seed creates the default roles and the admin account, plus sample records
// when sample is set.
func Seed(db *gorm.DB, sample bool) error {
	if err := models.SeedRoles(db); err != nil {
		return log.Error("Failed to seed roles", err)
	}
	if _, err := models.CreateAdminFromEnv(db); err != nil {
		return log.Error("Failed to create admin user", err)
	}
	if !sample {
		return nil
	}
	if err := models.SeedSampleData(db); err != nil {
		return log.Error("Failed to seed sample data", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
