package client

import (
	"context"
	"net/url"
	"time"

	"gitlearn/backend/models"

	"github.com/gofiber/fiber/v2"
)

// ProgressClient issues exactly one authenticated call per method. It does not
// cache, retry or batch.
type ProgressClient struct {
	api
}

func NewProgressClient(baseURL string, session *Session, timeout time.Duration) *ProgressClient {
	return &ProgressClient{api: newAPI(baseURL, session, timeout)}
}

func (c *ProgressClient) GetAllProgress(ctx context.Context) ([]models.ModuleProgress, error) {
	records := []models.ModuleProgress{}
	if err := c.do(ctx, fiber.Get(c.url("/api/progress")), true, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *ProgressClient) GetModuleProgress(ctx context.Context, moduleID string) (*models.ModuleProgress, error) {
	var record models.ModuleProgress
	if err := c.do(ctx, fiber.Get(c.url(modulePath(moduleID))), true, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *ProgressClient) UpdateModuleProgress(ctx context.Context, moduleID string, update models.ModuleProgressUpdate) (*models.ModuleProgress, error) {
	var record models.ModuleProgress
	if err := c.do(ctx, fiber.Post(c.url(modulePath(moduleID))), true, update, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *ProgressClient) UpdateExerciseProgress(ctx context.Context, moduleID, exerciseID string, update models.ExerciseProgressUpdate) (*models.ModuleProgress, error) {
	path := modulePath(moduleID) + "/exercise/" + url.PathEscape(exerciseID)
	var record models.ModuleProgress
	if err := c.do(ctx, fiber.Post(c.url(path)), true, update, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func modulePath(moduleID string) string {
	return "/api/progress/module/" + url.PathEscape(moduleID)
}
