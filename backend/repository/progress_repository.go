package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitlearn/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionConflict is returned when a record kept changing underneath a
// write for every allowed attempt.
var ErrVersionConflict = errors.New("progress record modified concurrently")

var errStaleVersion = errors.New("stale version")

// ProgressRepository stores one ModuleProgress per (user, module). Writes are
// read-modify-write guarded by the record version, so concurrent writers for
// the same module never lose each other's exercises.
type ProgressRepository struct {
	db         *gorm.DB
	log        *zap.SugaredLogger
	maxRetries int
	now        func() time.Time
}

func NewProgressRepository(db *gorm.DB, log *zap.SugaredLogger, maxRetries int) *ProgressRepository {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &ProgressRepository{
		db:         db,
		log:        log.With("repo", "ProgressRepository"),
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uint) ([]*models.ModuleProgress, error) {
	results := []*models.ModuleProgress{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("module_id").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return results, nil
}

// Find returns nil without error when the user has no record for moduleID.
func (r *ProgressRepository) Find(ctx context.Context, userID uint, moduleID string) (*models.ModuleProgress, error) {
	var row models.ModuleProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return &row, nil
}

func (r *ProgressRepository) UpdateModule(ctx context.Context, userID uint, moduleID string, u models.ModuleProgressUpdate) (*models.ModuleProgress, error) {
	return r.mutate(ctx, userID, moduleID, func(p *models.ModuleProgress, now time.Time) {
		p.ApplyModuleUpdate(u, now)
	})
}

func (r *ProgressRepository) UpdateExercise(ctx context.Context, userID uint, moduleID, exerciseID string, u models.ExerciseProgressUpdate) (*models.ModuleProgress, error) {
	return r.mutate(ctx, userID, moduleID, func(p *models.ModuleProgress, now time.Time) {
		p.ApplyExerciseUpdate(exerciseID, u, now)
	})
}

func (r *ProgressRepository) mutate(ctx context.Context, userID uint, moduleID string, apply func(*models.ModuleProgress, time.Time)) (*models.ModuleProgress, error) {
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		row, err := r.findOrCreate(ctx, userID, moduleID)
		if err != nil {
			return nil, err
		}

		apply(row, r.now())

		err = r.saveVersioned(ctx, row)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, errStaleVersion) {
			return nil, err
		}
		r.log.Debugw("progress version conflict, retrying",
			"user_id", userID, "module_id", moduleID, "attempt", attempt)
	}
	r.log.Warnw("progress write gave up", "user_id", userID, "module_id", moduleID, "attempts", r.maxRetries)
	return nil, ErrVersionConflict
}

// findOrCreate inserts an empty record unless one exists, then loads it.
func (r *ProgressRepository) findOrCreate(ctx context.Context, userID uint, moduleID string) (*models.ModuleProgress, error) {
	fresh := models.NewModuleProgress(userID, moduleID, r.now())
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error; err != nil {
		return nil, fmt.Errorf("create progress: %w", err)
	}

	row, err := r.Find(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("progress for module %q vanished after insert", moduleID)
	}
	return row, nil
}

func (r *ProgressRepository) saveVersioned(ctx context.Context, row *models.ModuleProgress) error {
	res := r.db.WithContext(ctx).
		Model(&models.ModuleProgress{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]interface{}{
			"completed":     row.Completed,
			"progress":      row.Progress,
			"exercises":     row.Exercises,
			"last_accessed": row.LastAccessed,
			"completed_at":  row.CompletedAt,
			"version":       row.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("save progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errStaleVersion
	}
	row.Version++
	return nil
}
