package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mediakeep/mediakeep/internal/config"
)

var DB *gorm.DB

// Initialize sets up the database connection based on the active configuration
func Initialize() {
	var err error

	cfg := config.Get()

	switch cfg.Database.Type {
	case "postgres":
		DB, err = connectPostgres(cfg)
	case "sqlite":
		DB, err = connectSQLite(cfg)
	default:
		log.Fatalf("Unsupported database type: %s", cfg.Database.Type)
	}

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Database initialized with %s", cfg.Database.Type)
}

func connectPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Database.Host, cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Database, cfg.Database.Port)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func connectSQLite(cfg *config.Config) (*gorm.DB, error) {
	dbPath := cfg.Database.DatabasePath

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// HealthCheck pings the underlying connection
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
