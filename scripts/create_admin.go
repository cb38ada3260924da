// scripts/create_admin.go
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bermelken20/university-canteen-sub001/config"
	"github.com/bermelken20/university-canteen-sub001/database"
	"github.com/bermelken20/university-canteen-sub001/models"
)

func main() {
	cfg := config.Load()
	database.Connect(cfg)

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme1"
	}
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "canteen-admin@university.edu"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var existing models.AdminUser
	if err := database.DB.Where("username = ?", username).First(&existing).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("failed to query admin_users: %v", err)
		}
	} else {
		fmt.Println("admin user already exists with username:", username)
		os.Exit(0)
	}

	taken := func(id string) bool {
		var n int64
		database.DB.Model(&models.AdminUser{}).Where("user_id = ?", id).Count(&n)
		return n > 0
	}
	a := models.AdminUser{
		UserID:   models.GenerateUserID("", taken), // USER-NNNNNN namespace
		Username: username,
		Name:     "Canteen Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     "admin",
	}
	if err := database.DB.Create(&a).Error; err != nil {
		log.Fatalf("failed to insert admin: %v", err)
	}

	fmt.Println("admin user created")
	fmt.Println("  user_id: ", a.UserID)
	fmt.Println("  username:", username)
	fmt.Println("  password:", password, "(change it after first login)")
}
