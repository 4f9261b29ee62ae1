package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Start cleanup...")

	// Delete all Appeals first, they reference challans
	if err := database.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Appeal{}).Error; err != nil {
		log.Fatalf("Failed to delete appeals: %v", err)
	}
	fmt.Println("✅ Deleted all appeals")

	// Delete all Payments
	if err := database.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Payment{}).Error; err != nil {
		log.Fatalf("Failed to delete payments: %v", err)
	}
	fmt.Println("✅ Deleted all payments")

	// Delete all Challans
	if err := database.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Challan{}).Error; err != nil {
		log.Fatalf("Failed to delete challans: %v", err)
	}
	fmt.Println("✅ Deleted all challans")

	// Delete all DeviceTokens
	if err := database.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.DeviceToken{}).Error; err != nil {
		log.Fatalf("Failed to delete device tokens: %v", err)
	}
	fmt.Println("✅ Deleted all device tokens")

	// Reset camera violation counters
	if err := database.DB.Model(&models.Camera{}).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Update("total_violations", 0).Error; err != nil {
		log.Fatalf("Failed to reset camera counters: %v", err)
	}
	fmt.Println("✅ Reset camera violation counters")

	fmt.Println("Cleanup finished successfully")
}
