// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dealboard/dealboard-backend/internal/config"
	"github.com/dealboard/dealboard-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB, policy config.PolicyConfig) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.Deal{},
		&models.Coupon{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db, policy); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// createIndexes adds what AutoMigrate cannot express. The unique indexes
// on deals are the real guard against concurrent submissions that both
// pass the duplicate pre-check: the later insert fails with a unique
// violation, which the service layer translates back into a duplicate
// error.
func createIndexes(db *gorm.DB, policy config.PolicyConfig) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Deal indexes
		"CREATE INDEX IF NOT EXISTS idx_deals_author ON deals(author_id)",
		"CREATE INDEX IF NOT EXISTS idx_deals_store_status ON deals(store_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_deals_status_expire ON deals(status, expire_at)",
		"CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_deals_deal_types ON deals USING GIN(deal_types)",
		"CREATE INDEX IF NOT EXISTS idx_deals_tags ON deals USING GIN(tags)",

		// Coupon indexes
		"CREATE INDEX IF NOT EXISTS idx_coupons_deal ON coupons(deal_id)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// Full-text search
		"CREATE INDEX IF NOT EXISTS idx_deals_search ON deals USING GIN(to_tsvector('english', short_description || ' ' || description))",
	}

	if policy.ShortDescriptionCaseInsensitive {
		// The gorm-tagged unique index is exact-match; the configured
		// comparison strategy additionally needs a case-folded guard.
		indexes = append(indexes,
			"CREATE UNIQUE INDEX IF NOT EXISTS uniq_deals_short_description_ci ON deals(LOWER(short_description)) WHERE deleted_at IS NULL")
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@dealboard.io",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
			ProfileData: models.JSONB{
				"display_name": "Site Administrator",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	// A few well-known stores so the add-deal form has something to
	// offer on a fresh install.
	defaultStores := []models.Store{
		{Name: "Amazon", Slug: "amazon", Website: "https://www.amazon.com"},
		{Name: "Walmart", Slug: "walmart", Website: "https://www.walmart.com"},
		{Name: "Best Buy", Slug: "best-buy", Website: "https://www.bestbuy.com"},
		{Name: "Target", Slug: "target", Website: "https://www.target.com"},
	}

	for _, store := range defaultStores {
		var count int64
		db.Model(&models.Store{}).Where("slug = ?", store.Slug).Count(&count)
		if count == 0 {
			if err := db.Create(&store).Error; err != nil {
				log.Printf("Warning: Failed to create store %s: %v", store.Slug, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
