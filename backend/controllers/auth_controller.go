package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlearn/backend/config"
	"gitlearn/backend/models"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenTTL = time.Hour

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Log    *zap.SugaredLogger
	Mailer utils.Mailer
}

func NewAuthController(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger, mailer utils.Mailer) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Log: log.With("controller", "auth"), Mailer: mailer}
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a student account (admin when the email matches ADMIN_EMAIL)
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterInput true "User registration data"
// @Success 201 {object} authResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var existing models.User
	err := ac.DB.Where("email = ? OR username = ?", input.Email, input.Username).First(&existing).Error
	if err == nil {
		if existing.Email == input.Email {
			return utils.BadRequest(c, "Email already registered")
		}
		return utils.BadRequest(c, "Username already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		ac.Log.Errorw("lookup user", "error", err)
		return utils.InternalServerError(c, "Error creating user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleStudent,
	}
	if ac.Cfg.AdminEmail != "" && user.Email == ac.Cfg.AdminEmail {
		user.Role = models.RoleAdmin
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		ac.Log.Errorw("create user", "error", err)
		return utils.InternalServerError(c, "Error creating user")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	ac.Log.Infow("user registered", "user_id", user.ID, "role", user.Role)
	return utils.Created(c, authResponse{
		Message: "User created successfully",
		Token:   token,
		User:    user.Public(),
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user by email and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} authResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid email or password")
		}
		ac.Log.Errorw("lookup user", "error", err)
		return utils.InternalServerError(c, "Error during login")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid email or password")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.JSON(authResponse{Token: token, User: user.Public()})
}

// ForgotPassword godoc
// @Summary Request a password reset
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/forgot-password [post]
func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if strings.TrimSpace(input.Email) == "" {
		return utils.BadRequest(c, "Email is required")
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "No account with that email exists")
		}
		return utils.InternalServerError(c, "Error processing password reset request")
	}

	rawToken := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	expires := time.Now().Add(resetTokenTTL)
	user.ResetPasswordToken = hashResetToken(rawToken)
	user.ResetPasswordExpires = &expires
	if err := ac.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Error processing password reset request")
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(ac.Cfg.ClientURL, "/"), rawToken)
	msg := utils.Message{
		To:      user.Email,
		Subject: "Password Reset Request",
		HTML: fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>You requested to reset your password. Click the link below to reset it:</p>
<a href="%s">Reset Password</a>
<p>If you didn't request this, please ignore this email.</p>
<p>This link will expire in 1 hour.</p>`, resetURL),
	}
	if err := ac.Mailer.Send(msg); err != nil {
		ac.Log.Errorw("send reset email", "user_id", user.ID, "error", err)
		if err := ac.DB.Model(&user).Updates(map[string]interface{}{
			"reset_password_token":   "",
			"reset_password_expires": nil,
		}).Error; err != nil {
			ac.Log.Errorw("clear reset token", "user_id", user.ID, "error", err)
		}
		return utils.InternalServerError(c, "Failed to send password reset email. Please try again later.")
	}

	return c.JSON(fiber.Map{"message": "Password reset email sent successfully"})
}

// ResetPassword godoc
// @Summary Reset password with a token from the reset email
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Success 200 {object} authResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/reset-password/{token} [post]
func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input struct {
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var user models.User
	err := ac.DB.
		Where("reset_password_token = ? AND reset_password_expires > ?", hashResetToken(c.Params("token")), time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.BadRequest(c, "Password reset token is invalid or has expired")
		}
		return utils.InternalServerError(c, "Error resetting password")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}
	user.PasswordHash = string(hashedPassword)
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	if err := ac.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Error resetting password")
	}

	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}
	return c.JSON(authResponse{Message: "Password reset successful", Token: token, User: user.Public()})
}

// Health godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /test [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Server is running successfully!"})
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

