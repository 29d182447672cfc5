package routes

import (
	"gitlearn/backend/config"
	"gitlearn/backend/controllers"
	"gitlearn/backend/middleware"
	"gitlearn/backend/models"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger, mailer utils.Mailer) {
	app.Get("/api/test", controllers.Health)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	authorsOnly := middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, log, mailer)
	auth := app.Group("/api/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/forgot-password", authController.ForgotPassword)
	auth.Post("/reset-password/:token", authController.ResetPassword)

	// User routes
	userController := controllers.NewUserController(db, cfg, log)
	auth.Get("/profile", authMiddleware, userController.GetProfile)
	auth.Patch("/profile", authMiddleware, userController.UpdateProfile)
	auth.Get("/users", authMiddleware, adminOnly, userController.ListUsers)
	auth.Patch("/users/:id/role", authMiddleware, adminOnly, userController.UpdateUserRole)

	// Tutorials routes
	tutorialsController := controllers.NewTutorialsController(db, cfg, log)
	tutorials := app.Group("/api/tutorials")
	tutorials.Get("/published", tutorialsController.GetPublished)
	tutorials.Get("/published/:id", tutorialsController.GetPublishedByID)
	tutorials.Post("/", authMiddleware, authorsOnly, tutorialsController.CreateTutorial)
	tutorials.Patch("/:id", authMiddleware, tutorialsController.UpdateTutorial)
	tutorials.Delete("/:id", authMiddleware, tutorialsController.DeleteTutorial)
	tutorials.Get("/author/:authorId", authMiddleware, authorsOnly, tutorialsController.GetByAuthor)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg, log)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/", progressController.GetProgress)
	progress.Get("/module/:moduleId", progressController.GetModuleProgress)
	progress.Post("/module/:moduleId", progressController.UpdateModuleProgress)
	progress.Put("/module/:moduleId", progressController.UpdateModuleProgress)
	progress.Post("/module/:moduleId/exercise/:exerciseId", progressController.UpdateExerciseProgress)
}
