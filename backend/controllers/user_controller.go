package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"gitlearn/backend/config"
	"gitlearn/backend/middleware"
	"gitlearn/backend/models"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *zap.SugaredLogger
}

func NewUserController(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Log: log.With("controller", "users")}
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

var allowedProfileUpdates = map[string]bool{"username": true, "email": true, "password": true}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates username, email or password of the authenticated user
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateProfileRequest true "Profile update data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/profile [patch]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	for key := range raw {
		if !allowedProfileUpdates[key] {
			return utils.BadRequest(c, "Invalid updates")
		}
	}

	var input UpdateProfileRequest
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	// Обновление имени пользователя
	if input.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*input.Username))
		if username != user.Username {
			if taken, err := uc.exists("username = ? AND id <> ?", username, user.ID); err != nil {
				return utils.InternalServerError(c, "Could not update user")
			} else if taken {
				return utils.BadRequest(c, "Username already taken")
			}
			user.Username = username
		}
	}

	// Обновление email
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			if taken, err := uc.exists("email = ? AND id <> ?", email, user.ID); err != nil {
				return utils.InternalServerError(c, "Could not update user")
			} else if taken {
				return utils.BadRequest(c, "Email already registered")
			}
			user.Email = email
		}
	}

	// Обновление пароля
	if input.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := uc.DB.Save(user).Error; err != nil {
		uc.Log.Errorw("update profile", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not update user")
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user.Public(),
	})
}

// ListUsers godoc
// @Summary List users
// @Description Returns every user ordered by username (admin only)
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/users [get]
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	users := []models.User{}
	if err := uc.DB.Order("username").Find(&users).Error; err != nil {
		uc.Log.Errorw("list users", "error", err)
		return utils.InternalServerError(c, "Error fetching users")
	}
	return c.JSON(users)
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/users/{id}/role [patch]
func (uc *UserController) UpdateUserRole(c *fiber.Ctx) error {
	var input struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if !models.ValidRole(input.Role) {
		return utils.BadRequest(c, "Invalid role")
	}

	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil || userID <= 0 {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Error updating user role")
	}

	user.Role = input.Role
	if err := uc.DB.Save(&user).Error; err != nil {
		uc.Log.Errorw("update role", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Error updating user role")
	}

	uc.Log.Infow("role changed", "user_id", user.ID, "role", user.Role, "by", middleware.CurrentUser(c).ID)
	return c.JSON(fiber.Map{
		"message": "User role updated successfully",
		"user":    user.Public(),
	})
}

func (uc *UserController) exists(query string, args ...interface{}) (bool, error) {
	var count int64
	if err := uc.DB.Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
