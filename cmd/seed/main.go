package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/models"
)

type cameraSeed struct {
	lat, lng   float64
	address    string
	speedLimit int
}

var cameraSeeds = []cameraSeed{
	{31.5204, 74.3587, "Mall Road, Lahore", 60},
	{31.4697, 74.2728, "Thokar Niaz Baig, Lahore", 80},
	{31.5497, 74.3436, "Liberty Chowk, Lahore", 50},
	{24.8607, 67.0011, "Shahrah-e-Faisal, Karachi", 80},
	{24.9056, 67.0822, "University Road, Karachi", 60},
	{33.6844, 73.0479, "Blue Area, Islamabad", 60},
	{33.7294, 73.0931, "Faizabad Interchange, Islamabad", 80},
	{34.0151, 71.5249, "GT Road, Peshawar", 60},
	{30.1798, 66.9750, "Jinnah Road, Quetta", 50},
	{30.1575, 71.5249, "Abdali Road, Multan", 60},
	{31.4504, 73.1350, "D Ground, Faisalabad", 50},
}

var samplePlates = []string{
	"LEC-1234", "LEB-5678", "AFR-9012", "KHI-3456", "ISB-7890",
	"LEA-2468", "PES-1357", "QTA-8642", "MUL-9753", "FSD-1122",
}

var violationTypes = []string{
	"overspeed", "red_light", "no_helmet", "wrong_way", "traffic_violation",
}

var fineAmounts = map[string]float64{
	"overspeed":         1000,
	"red_light":         1500,
	"no_helmet":         500,
	"wrong_way":         2000,
	"traffic_violation": 500,
}

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

	fmt.Println("🌱 Starting seed...")

	// Seed cameras
	camerasCreated := 0
	var cameras []models.Camera
	for _, cs := range cameraSeeds {
		var count int64
		database.DB.Model(&models.Camera{}).Where("address = ?", cs.address).Count(&count)
		if count > 0 {
			continue
		}
		camera := models.Camera{
			Lat:         cs.lat,
			Lng:         cs.lng,
			Address:     cs.address,
			LightStatus: models.LightRed,
			Status:      models.CameraActive,
			SpeedLimit:  cs.speedLimit,
			HealthScore: 100,
		}
		if err := database.DB.Create(&camera).Error; err != nil {
			log.Printf("Failed to create camera: %v", err)
			continue
		}
		cameras = append(cameras, camera)
		camerasCreated++
	}
	fmt.Printf("✅ Created %d cameras\n", camerasCreated)

	if len(cameras) == 0 {
		database.DB.Limit(20).Find(&cameras)
	}
	if len(cameras) == 0 {
		fmt.Println("⚠️  No cameras available. Skipping challan seeding.")
		return
	}

	// Seed a demo citizen
	demoUser := seedDemoUser()

	rand.Seed(time.Now().UnixNano())
	now := time.Now()
	challansCreated := 0

	// Create challans for each camera over the last 7 days
	for i := range cameras {
		camera := &cameras[i]
		numChallans := rand.Intn(6) + 3

		for j := 0; j < numChallans; j++ {
			violationType := violationTypes[rand.Intn(len(violationTypes))]
			plate := samplePlates[rand.Intn(len(samplePlates))]

			daysAgo := rand.Intn(7)
			hoursAgo := rand.Intn(24)
			issuedAt := now.Add(-time.Duration(daysAgo)*24*time.Hour -
				time.Duration(hoursAgo)*time.Hour)

			challan := models.Challan{
				Vehicle:       plate,
				CameraID:      camera.ID,
				Amount:        fineAmounts[violationType],
				ViolationType: violationType,
				Status:        models.ChallanUnpaid,
				IssuedAt:      issuedAt,
			}
			if demoUser != nil && rand.Float64() > 0.5 {
				challan.UserID = &demoUser.ID
			}

			// Some challans are already settled
			if rand.Float64() > 0.7 {
				paidAt := issuedAt.Add(time.Duration(rand.Intn(48)) * time.Hour)
				challan.Status = models.ChallanPaid
				challan.PaidAt = &paidAt
			}

			if err := database.DB.Create(&challan).Error; err != nil {
				log.Printf("Failed to create challan: %v", err)
				continue
			}

			if challan.Status == models.ChallanPaid {
				completedAt := *challan.PaidAt
				payment := models.Payment{
					ChallanID:     challan.ID,
					UserID:        challan.UserID,
					Amount:        challan.Amount,
					PaymentMethod: []string{"card", "bank_transfer", "easypay", "jazzcash"}[rand.Intn(4)],
					Status:        models.PaymentCompleted,
					CreatedAt:     challan.IssuedAt,
					CompletedAt:   &completedAt,
				}
				if err := database.DB.Create(&payment).Error; err != nil {
					log.Printf("Failed to create payment: %v", err)
				}
			}

			camera.TotalViolations++
			challansCreated++
		}
		database.DB.Model(camera).Update("total_violations", camera.TotalViolations)
	}

	fmt.Printf("✅ Created %d challans across %d cameras\n", challansCreated, len(cameras))
	fmt.Println("✅ All seeding completed.")
}

func seedDemoUser() *models.User {
	username := "hanzla"
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err == nil {
		return &user
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash demo password: %v", err)
		return nil
	}

	fullName := "Hanzla Ahmed"
	phone := "03001234567"
	user = models.User{
		Username:     username,
		Email:        "hanzla@example.com",
		PasswordHash: string(hashedBytes),
		FullName:     &fullName,
		Phone:        &phone,
		Role:         "user",
	}
	if err := database.DB.Create(&user).Error; err != nil {
		log.Printf("Failed to create demo user: %v", err)
		return nil
	}
	fmt.Println("✅ Created demo user")
	return &user
}
