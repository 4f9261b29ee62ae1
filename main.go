package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/echallan/backend/classifier"
	"github.com/echallan/backend/database"
	"github.com/echallan/backend/handlers"
	"github.com/echallan/backend/lifecycle"
	"github.com/echallan/backend/natsserver"
	"github.com/echallan/backend/notify"
	"github.com/echallan/backend/services"
	"github.com/echallan/backend/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	defer database.Close()

	handlers.SeedAdminUser()

	// Start embedded NATS server for alerts and inference
	natsPort := 4233
	if raw := os.Getenv("NATS_PORT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			natsPort = n
		}
	}
	natsServer, err := natsserver.New(natsserver.Config{
		Port:       natsPort,
		MaxPayload: 8 * 1024 * 1024, // evidence images ride the inference subject
	})
	if err != nil {
		log.Fatalf("❌ Failed to start NATS server: %v", err)
	}
	defer natsServer.Shutdown()
	handlers.SetNATSServer(natsServer)

	// Alert hub bridges push subjects to WebSocket clients
	alertHub, err := services.NewAlertHub(natsServer.Conn())
	if err != nil {
		log.Fatalf("❌ Failed to start alert hub: %v", err)
	}
	defer alertHub.Close()
	go alertHub.Run()
	handlers.SetAlertHub(alertHub)
	log.Println("📺 Alert hub initialized")

	// Notification hub: push always, email and SMS when configured
	notifyHub := notify.NewHub()
	notifyHub.Register(notify.ChannelPush, notify.NewNATSPush(natsServer.Conn()))
	if email := notify.NewSMTPEmail(); email != nil {
		notifyHub.Register(notify.ChannelEmail, email)
		log.Println("✉️ Email transport configured")
	}
	if sms := notify.NewTwilioSMS(); sms != nil {
		notifyHub.Register(notify.ChannelSMS, sms)
		log.Println("📱 SMS transport configured")
	}
	handlers.SetNotifyHub(notifyHub)

	// Lifecycle engine over the database
	engine := lifecycle.New(lifecycle.NewGormStore(database.DB), notifyHub)
	handlers.SetLifecycle(engine)

	// Evidence classifier over NATS request/reply
	clf := classifier.NewService(natsServer)
	handlers.SetClassifier(clf)

	// Evidence object store (optional)
	evidenceStore, err := storage.NewFromEnv()
	if err != nil {
		log.Fatalf("❌ Failed to connect evidence store: %v", err)
	}
	if evidenceStore != nil {
		handlers.SetEvidenceStore(evidenceStore)
	} else {
		log.Println("⚠️ Evidence store not configured, uploads disabled")
	}

	// Setup Gin router
	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(config))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// WebSocket route for live alerts (outside /api group)
	router.GET("/ws/alerts", handlers.HandleAlertWebSocket)

	// Evidence classification
	router.POST("/predict", handlers.Predict)

	// API Routes
	api := router.Group("/api")
	{
		api.GET("/alerts/stats", handlers.GetAlertHubStats)
		api.GET("/system/info", handlers.SystemInfo)

		// Auth and users
		api.POST("/register", handlers.Register)
		api.POST("/login", handlers.Login)
		api.GET("/user/:id", handlers.AuthMiddleware(), handlers.GetUser)
		api.PUT("/user/:id", handlers.AuthMiddleware(), handlers.UpdateUser)
		api.GET("/profile", handlers.AuthMiddleware(), handlers.Profile)
		api.PUT("/profile", handlers.AuthMiddleware(), handlers.UpdateProfile)

		// Cameras
		api.GET("/cameras", handlers.ListCameras)
		api.GET("/cameras/health", handlers.CamerasHealth)
		api.POST("/camera", handlers.AuthMiddleware(), handlers.AdminMiddleware(), handlers.CreateCamera)
		api.GET("/camera/:id", handlers.GetCamera)
		api.POST("/camera/:id/health", handlers.ReportCameraHealth)
		api.PUT("/camera/:id/maintenance", handlers.AuthMiddleware(), handlers.AdminMiddleware(), handlers.RecordMaintenance)
		api.PATCH("/camera/:id/light", handlers.SetLightStatus)

		// Challans
		api.POST("/challan", handlers.IssueChallan)
		api.GET("/challans", handlers.ListChallans)
		api.GET("/challans/mine", handlers.AuthMiddleware(), handlers.MyChallans)
		api.GET("/challan/:id", handlers.GetChallan)
		api.POST("/challan/:id/evidence", handlers.UploadEvidence)

		// Payments
		api.POST("/payment", handlers.AuthMiddleware(), handlers.CreatePayment)
		api.PUT("/payment/:id/confirm", handlers.AuthMiddleware(), handlers.ConfirmPayment)
		api.GET("/payments", handlers.ListPayments)

		// Appeals
		api.POST("/appeal", handlers.AuthMiddleware(), handlers.CreateAppeal)
		api.GET("/appeals", handlers.ListAppeals)
		api.PUT("/appeal/:id/review", handlers.AuthMiddleware(), handlers.AdminMiddleware(), handlers.ReviewAppeal)

		// Analytics and lookup
		api.GET("/analytics/violations", handlers.ViolationStats)
		api.GET("/analytics/camera/:id", handlers.CameraAnalytics)
		api.GET("/analytics/dashboard", handlers.Dashboard)
		api.GET("/vehicle/:vehicle", handlers.VehicleLookup)
		api.GET("/search", handlers.Search)
		api.GET("/export/challans-csv", handlers.AuthMiddleware(), handlers.AdminMiddleware(), handlers.ExportChallansCSV)

		// Push registration
		api.POST("/register-fcm", handlers.RegisterFCMToken)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	log.Printf("🚀 Server running on http://localhost:%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
