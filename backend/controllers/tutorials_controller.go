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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TutorialsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *zap.SugaredLogger
}

func NewTutorialsController(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *TutorialsController {
	return &TutorialsController{DB: db, Cfg: cfg, Log: log.With("controller", "tutorials")}
}

type TutorialInput struct {
	Title         *string                    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Content       *string                    `json:"content,omitempty" validate:"omitempty,min=1"`
	Description   *string                    `json:"description,omitempty" validate:"omitempty,min=1"`
	Difficulty    *string                    `json:"difficulty,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Tags          *[]string                  `json:"tags,omitempty"`
	Exercises     *[]models.TutorialExercise `json:"exercises,omitempty" validate:"omitempty,dive"`
	Prerequisites *[]uint                    `json:"prerequisites,omitempty"`
	Published     *bool                      `json:"published,omitempty"`
}

// authorColumns keeps password hashes out of preloaded authors.
func authorColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username")
}

// GetPublished godoc
// @Summary List published tutorials
// @Description Newest first, without content
// @Tags tutorials
// @Produce json
// @Success 200 {array} models.Tutorial
// @Failure 500 {object} utils.ErrorResponse
// @Router /tutorials/published [get]
func (tc *TutorialsController) GetPublished(c *fiber.Ctx) error {
	tutorials := []models.Tutorial{}
	if err := tc.DB.
		Omit("content").
		Preload("Author", authorColumns).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&tutorials).Error; err != nil {
		tc.Log.Errorw("list published", "error", err)
		return utils.InternalServerError(c, "Error fetching tutorials")
	}
	return c.JSON(tutorials)
}

// GetPublishedByID godoc
// @Summary Get a published tutorial
// @Tags tutorials
// @Produce json
// @Param id path int true "Tutorial ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Router /tutorials/published/{id} [get]
func (tc *TutorialsController) GetPublishedByID(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.NotFound(c, "Tutorial not found")
	}

	var tutorial models.Tutorial
	if err := tc.DB.Preload("Author", authorColumns).
		Where("id = ? AND published = ?", id, true).
		First(&tutorial).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Tutorial not found")
		}
		return utils.InternalServerError(c, "Error fetching tutorial")
	}

	// prerequisites are returned with their titles
	prerequisites := []fiber.Map{}
	if len(tutorial.Prerequisites) > 0 {
		var prereqs []models.Tutorial
		tc.DB.Select("id", "title").Where("id IN ?", []uint(tutorial.Prerequisites)).Find(&prereqs)
		for _, p := range prereqs {
			prerequisites = append(prerequisites, fiber.Map{"id": p.ID, "title": p.Title})
		}
	}

	return c.JSON(fiber.Map{
		"tutorial":      tutorial,
		"prerequisites": prerequisites,
	})
}

// CreateTutorial godoc
// @Summary Create a tutorial
// @Description Lecturers and admins only
// @Tags tutorials
// @Accept json
// @Produce json
// @Param input body TutorialInput true "Tutorial"
// @Success 201 {object} models.Tutorial
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tutorials [post]
func (tc *TutorialsController) CreateTutorial(c *fiber.Ctx) error {
	var input TutorialInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	if input.Title == nil || input.Content == nil || input.Description == nil {
		return utils.ValidationError(c, map[string]string{
			"title":       "required",
			"content":     "required",
			"description": "required",
		})
	}

	tutorial := models.Tutorial{AuthorID: middleware.CurrentUser(c).ID}
	applyTutorialInput(&tutorial, input)
	tutorial.Defaults()

	if err := tc.DB.Create(&tutorial).Error; err != nil {
		if isUniqueViolation(err) {
			return utils.BadRequest(c, "Tutorial title already exists")
		}
		tc.Log.Errorw("create tutorial", "error", err)
		return utils.BadRequest(c, "Error creating tutorial")
	}
	return utils.Created(c, tutorial)
}

// UpdateTutorial godoc
// @Summary Update a tutorial
// @Description Author or admin; changing content bumps the version
// @Tags tutorials
// @Accept json
// @Produce json
// @Param id path int true "Tutorial ID"
// @Param input body TutorialInput true "Changed fields"
// @Success 200 {object} models.Tutorial
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tutorials/{id} [patch]
func (tc *TutorialsController) UpdateTutorial(c *fiber.Ctx) error {
	tutorial, err := tc.loadOwned(c)
	if err != nil {
		return err
	}
	if tutorial == nil {
		return nil
	}

	var input TutorialInput
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	if input.Content != nil {
		tutorial.Version++
	}
	applyTutorialInput(tutorial, input)
	tutorial.Defaults()

	if err := tc.DB.Omit("Author").Save(tutorial).Error; err != nil {
		tc.Log.Errorw("update tutorial", "tutorial_id", tutorial.ID, "error", err)
		return utils.BadRequest(c, "Error updating tutorial")
	}
	return c.JSON(tutorial)
}

// DeleteTutorial godoc
// @Summary Delete a tutorial
// @Tags tutorials
// @Produce json
// @Param id path int true "Tutorial ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tutorials/{id} [delete]
func (tc *TutorialsController) DeleteTutorial(c *fiber.Ctx) error {
	tutorial, err := tc.loadOwned(c)
	if err != nil {
		return err
	}
	if tutorial == nil {
		return nil
	}

	if err := tc.DB.Delete(&models.Tutorial{}, tutorial.ID).Error; err != nil {
		tc.Log.Errorw("delete tutorial", "tutorial_id", tutorial.ID, "error", err)
		return utils.InternalServerError(c, "Error deleting tutorial")
	}
	return c.JSON(fiber.Map{"message": "Tutorial deleted successfully"})
}

// GetByAuthor godoc
// @Summary List tutorials of an author
// @Description Lecturers and admins only, includes unpublished ones
// @Tags tutorials
// @Produce json
// @Param authorId path int true "Author ID"
// @Success 200 {array} models.Tutorial
// @Security ApiKeyAuth
// @Router /tutorials/author/{authorId} [get]
func (tc *TutorialsController) GetByAuthor(c *fiber.Ctx) error {
	authorID, err := strconv.Atoi(c.Params("authorId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid author ID")
	}

	tutorials := []models.Tutorial{}
	if err := tc.DB.Preload("Author", authorColumns).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&tutorials).Error; err != nil {
		return utils.InternalServerError(c, "Error fetching tutorials")
	}
	return c.JSON(tutorials)
}

// loadOwned writes the error response itself and returns a nil tutorial when
// the caller may not touch it.
func (tc *TutorialsController) loadOwned(c *fiber.Ctx) (*models.Tutorial, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.NotFound(c, "Tutorial not found")
	}

	var tutorial models.Tutorial
	if err := tc.DB.First(&tutorial, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(c, "Tutorial not found")
		}
		return nil, utils.InternalServerError(c, "Error fetching tutorial")
	}

	user := middleware.CurrentUser(c)
	if tutorial.AuthorID != user.ID && user.Role != models.RoleAdmin {
		return nil, utils.Forbidden(c, "Not authorized to modify this tutorial")
	}
	return &tutorial, nil
}

func applyTutorialInput(t *models.Tutorial, in TutorialInput) {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		t.Content = *in.Content
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Difficulty != nil {
		t.Difficulty = *in.Difficulty
	}
	if in.Tags != nil {
		t.Tags = datatypes.NewJSONSlice(*in.Tags)
	}
	if in.Exercises != nil {
		t.Exercises = datatypes.NewJSONSlice(*in.Exercises)
	}
	if in.Prerequisites != nil {
		t.Prerequisites = datatypes.NewJSONSlice(*in.Prerequisites)
	}
	if in.Published != nil {
		t.Published = *in.Published
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
