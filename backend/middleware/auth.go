package middleware

import (
	"gitlearn/backend/config"
	"gitlearn/backend/models"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const userKey = "user"

// AuthMiddleware resolves the bearer token to a stored user and rejects the
// request otherwise.
func AuthMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ParseJWTToken(utils.BearerToken(c), cfg)
		if err != nil {
			return utils.Unauthorized(c, "Please authenticate")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			return utils.Unauthorized(c, "Please authenticate")
		}

		c.Locals(userKey, &user)
		return c.Next()
	}
}

// RequireRoles lets through only users holding one of roles. It must run
// after AuthMiddleware.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return utils.Unauthorized(c, "Please authenticate")
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "Access denied")
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
