package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bermelken20/university-canteen-sub001/config"
	"github.com/bermelken20/university-canteen-sub001/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	// TranslateError turns driver constraint errors into gorm.ErrDuplicatedKey
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	DB = db

	if err := DB.AutoMigrate(
		&models.User{},
		&models.AdminUser{},
		&models.LoginAttempt{},
		&models.PasswordReset{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusLog{},
	); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}
}
