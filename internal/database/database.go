package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/puls-academy/backend/internal/config"
	"github.com/puls-academy/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance.
var DB *gorm.DB

// Connect opens the configured database and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	DB = db
	return db, nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsProduction() {
		return logger.Warn
	}
	return logger.Info
}

func openDB(cfg *config.AppConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:               cfg.Database.DSNValue(),
			DefaultStringSize: 191,
		}), gormCfg)
	case config.DriverSQLite:
		path := cfg.Database.Path
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("create database dir: %w", mkErr)
			}
		}
		db, err = gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserModel{},
		&models.TrustedDevice{},
		&models.DeviceLoginRequest{},
		&models.ActiveSession{},
		&models.ViolationModel{},
		&models.CourseModel{},
		&models.LessonModel{},
		&models.PaymentModel{},
		&models.EnrollmentModel{},
		&models.NotificationModel{},
		&models.MessageModel{},
	)
}

// SeedDefaultAdmin creates the configured admin account when it is missing.
// An existing account with the seed email is left untouched.
func SeedDefaultAdmin(db *gorm.DB, seed config.AdminSeed) error {
	var existing models.UserModel
	err := db.Select("id").Where("email = ?", seed.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), 12)
	if err != nil {
		return err
	}
	admin := models.UserModel{
		Name:     seed.Name,
		Email:    seed.Email,
		Password: string(hash),
		Role:     models.RoleAdmin,
		Status:   models.StatusActive,
	}
	return db.Create(&admin).Error
}
