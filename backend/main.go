package main

import (
	"log"

	"gitlearn/backend/config"
	"gitlearn/backend/middleware"
	"gitlearn/backend/routes"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatalw("Error initializing database", "driver", cfg.DBDriver, "error", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "git-training",
		ErrorHandler: utils.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, logger, &utils.LogMailer{Logger: logger})

	logger.Infow("server starting", "port", cfg.ServerPort, "db_driver", cfg.DBDriver)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
}
