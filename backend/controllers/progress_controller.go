package controllers

import (
	"errors"
	"time"

	"gitlearn/backend/config"
	"gitlearn/backend/middleware"
	"gitlearn/backend/models"
	"gitlearn/backend/repository"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressController struct {
	Repo *repository.ProgressRepository
	Cfg  *config.Config
	Log  *zap.SugaredLogger
}

func NewProgressController(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *ProgressController {
	return &ProgressController{
		Repo: repository.NewProgressRepository(db, log, cfg.ProgressMaxRetries),
		Cfg:  cfg,
		Log:  log.With("controller", "progress"),
	}
}

// GetProgress godoc
// @Summary Get all progress
// @Description Returns every module progress record of the current user
// @Tags progress
// @Produce json
// @Success 200 {array} models.ModuleProgress
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	records, err := pc.Repo.ListByUser(c.UserContext(), user.ID)
	if err != nil {
		pc.Log.Errorw("list progress", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Error fetching progress")
	}
	return c.JSON(records)
}

// GetModuleProgress godoc
// @Summary Get module progress
// @Description Returns the progress record for a module, or an empty unsaved one
// @Tags progress
// @Produce json
// @Param moduleId path string true "Module ID"
// @Success 200 {object} models.ModuleProgress
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/module/{moduleId} [get]
func (pc *ProgressController) GetModuleProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	moduleID := c.Params("moduleId")

	record, err := pc.Repo.Find(c.UserContext(), user.ID, moduleID)
	if err != nil {
		pc.Log.Errorw("find progress", "user_id", user.ID, "module_id", moduleID, "error", err)
		return utils.InternalServerError(c, "Error fetching module progress")
	}
	if record == nil {
		record = models.Placeholder(user.ID, moduleID, time.Now())
	}
	return c.JSON(record)
}

// UpdateModuleProgress godoc
// @Summary Create or update module progress
// @Tags progress
// @Accept json
// @Produce json
// @Param moduleId path string true "Module ID"
// @Param input body models.ModuleProgressUpdate true "Module progress"
// @Success 200 {object} models.ModuleProgress
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/module/{moduleId} [post]
func (pc *ProgressController) UpdateModuleProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	moduleID := c.Params("moduleId")

	var input models.ModuleProgressUpdate
	if err := parseOptionalBody(c, &input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	record, err := pc.Repo.UpdateModule(c.UserContext(), user.ID, moduleID, input)
	if err != nil {
		return pc.writeError(c, err, "Error updating module progress", "module_id", moduleID)
	}
	return c.JSON(record)
}

// UpdateExerciseProgress godoc
// @Summary Update exercise progress
// @Description Records exercise completion and completed steps, then recomputes the module percentage
// @Tags progress
// @Accept json
// @Produce json
// @Param moduleId path string true "Module ID"
// @Param exerciseId path string true "Exercise ID"
// @Param input body models.ExerciseProgressUpdate true "Exercise progress"
// @Success 200 {object} models.ModuleProgress
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/module/{moduleId}/exercise/{exerciseId} [post]
func (pc *ProgressController) UpdateExerciseProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	moduleID := c.Params("moduleId")
	exerciseID := c.Params("exerciseId")

	var input models.ExerciseProgressUpdate
	if err := parseOptionalBody(c, &input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	record, err := pc.Repo.UpdateExercise(c.UserContext(), user.ID, moduleID, exerciseID, input)
	if err != nil {
		return pc.writeError(c, err, "Error updating exercise progress",
			"module_id", moduleID, "exercise_id", exerciseID)
	}
	return c.JSON(record)
}

func (pc *ProgressController) writeError(c *fiber.Ctx, err error, message string, kv ...interface{}) error {
	user := middleware.CurrentUser(c)
	pc.Log.Errorw(message, append([]interface{}{"user_id", user.ID, "error", err}, kv...)...)
	if errors.Is(err, repository.ErrVersionConflict) {
		return utils.Conflict(c, "Progress was modified concurrently, retry the request")
	}
	return utils.InternalServerError(c, message)
}

// parseOptionalBody treats an empty body as an empty update.
func parseOptionalBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}
