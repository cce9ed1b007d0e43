package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/humpydonkey/patient-appointment-management/database"
	"github.com/humpydonkey/patient-appointment-management/internal/handlers"
	"github.com/humpydonkey/patient-appointment-management/internal/jobs"
	"github.com/humpydonkey/patient-appointment-management/internal/llm"
	"github.com/humpydonkey/patient-appointment-management/internal/models"
	"github.com/humpydonkey/patient-appointment-management/internal/routes"
	"github.com/humpydonkey/patient-appointment-management/internal/services"
	"github.com/humpydonkey/patient-appointment-management/internal/storage"
	"github.com/humpydonkey/patient-appointment-management/internal/utils"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found - using environment variables")
	}

	// Storage: in-memory for local development, PostgreSQL otherwise
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("Using in-memory storage (not for production!)")
		memStore := storage.NewMemoryStore()
		memStore.SeedDemoData(utils.Now())
		store = memStore
	} else {
		db, err := database.Connect()
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		err = db.AutoMigrate(
			&models.Patient{},
			&models.Appointment{},
			&models.OTPChallenge{},
			&models.ChatSession{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		store = storage.NewDatabaseStore(db)
		log.Println("Using PostgreSQL storage")
	}

	// SMS delivery: Twilio when configured, log-only otherwise
	var sms services.SMSSender
	if twilioSender, err := services.NewTwilioSender(); err == nil {
		sms = twilioSender
		log.Println("Twilio SMS sender initialized")
	} else {
		sms = services.LogSender{}
		log.Println("Twilio credentials not found - OTP codes will be logged")
	}

	// Language capability: hosted model when a key is set, rule-based otherwise
	var llmClient llm.Client
	if os.Getenv("OPENAI_API_KEY") != "" {
		llmClient = llm.NewOpenAIClient()
		log.Println("OpenAI language client initialized")
	} else {
		llmClient = llm.NewRuleBasedClient()
		log.Println("OPENAI_API_KEY not set - using rule-based language client")
	}

	verification := services.NewVerificationService(store, sms, nil)
	appointments := services.NewAppointmentService(store)
	sessions := services.NewSessionManager(store, nil)
	orchestrator := services.NewOrchestrator(verification, appointments, sessions, llmClient, nil)

	cleanupJob := jobs.NewCleanupJob(store)
	cleanupJob.Start()

	app := fiber.New(fiber.Config{
		AppName: "Patient Appointment Assistant v1.0.0",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	chatHandler := handlers.NewChatHandler(orchestrator, sessions)
	routes.SetupRoutes(app, chatHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Fatal("Server failed to start:", err)
		}
	}()
	log.Printf("Server listening on port %s", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cleanupJob.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
