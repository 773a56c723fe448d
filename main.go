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
	"gorm.io/gorm"

	"github.com/vegcafe/cafe-voice-backend/database"
	"github.com/vegcafe/cafe-voice-backend/internal/config"
	"github.com/vegcafe/cafe-voice-backend/internal/handlers"
	"github.com/vegcafe/cafe-voice-backend/internal/jobs"
	"github.com/vegcafe/cafe-voice-backend/internal/llm"
	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/routes"
	"github.com/vegcafe/cafe-voice-backend/internal/services"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

func main() {
	cfg := config.Load()

	// Initialize storage
	var store storage.Store
	var db *gorm.DB

	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		var err error
		db, err = database.Connect()
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		log.Println("🔄 Running database migrations...")
		err = db.AutoMigrate(
			&models.User{},
			&models.ChatSession{},
			&models.Order{},
			&models.MenuItem{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		// One active session per phone number, enforced at the store level
		err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_chat_sessions_active_phone
			ON chat_sessions (phone_number) WHERE is_active AND deleted_at IS NULL`).Error
		if err != nil {
			log.Fatal("Failed to create active-session index:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
	}

	// Pick the LLM provider
	var provider llm.Provider
	switch cfg.LLMProvider {
	case "anthropic":
		provider = llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.LLMModel)
	default:
		provider = llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
	}
	log.Printf("🤖 LLM provider: %s", provider.Name())

	// Twilio confirmations are optional
	notifier, err := services.NewNotifyService()
	if err != nil {
		log.Println("⚠️  Twilio not configured - order confirmations will not be sent")
		notifier = nil
	} else {
		log.Println("✅ Twilio notifier initialized")
	}

	// Wire services
	userService := services.NewUserService(store)
	menuService := services.NewMenuService(store)
	orderService := services.NewOrderService(store)
	agent := services.NewCafeAgent(provider, store, cfg.LLMTimeout)

	// Handlers
	chatHandler := handlers.NewChatHandler(store, userService, menuService, agent, orderService, notifier)
	kitchenHandler := handlers.NewKitchenHandler(store, userService)
	staffHandler := handlers.NewStaffHandler(cfg)
	healthHandler := handlers.NewHealthHandler(db)

	// Idle-session cleanup
	janitor := jobs.NewSessionJanitor(store, cfg.SessionIdleTTL)
	janitor.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Veg Cafe Voice Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, chatHandler, kitchenHandler, staffHandler, healthHandler)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		janitor.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Veg Cafe backend starting on port %s", cfg.AppPort)
	log.Printf("📊 Storage: %s", storageType(cfg))
	log.Printf("🤖 LLM: %s", provider.Name())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.AppPort))
}

func storageType(cfg *config.Config) string {
	if cfg.UseMemoryStore {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
