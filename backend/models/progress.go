package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExerciseProgress is embedded in ModuleProgress and stored in its JSON column.
type ExerciseProgress struct {
	ExerciseID     string     `json:"exerciseId"`
	Completed      bool       `json:"completed"`
	CompletedSteps []int      `json:"completedSteps"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
}

// ModuleProgress is the per-user, per-module progress record.
type ModuleProgress struct {
	ID           uint                                  `gorm:"primaryKey" json:"id"`
	UserID       uint                                  `gorm:"not null;uniqueIndex:idx_progress_user_module" json:"userId"`
	ModuleID     string                                `gorm:"size:128;not null;uniqueIndex:idx_progress_user_module" json:"moduleId"`
	Completed    bool                                  `gorm:"not null;default:false" json:"completed"`
	Progress     int                                   `gorm:"not null;default:0;check:progress>=0 AND progress<=100" json:"progress"`
	Exercises    datatypes.JSONSlice[ExerciseProgress] `json:"exercises"`
	StartedAt    time.Time                             `json:"startedAt"`
	LastAccessed time.Time                             `json:"lastAccessed"`
	CompletedAt  *time.Time                            `json:"completedAt"`
	Version      int                                   `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time                             `json:"createdAt"`
	UpdatedAt    time.Time                             `json:"updatedAt"`
}

func (ModuleProgress) TableName() string { return "module_progress" }

// AfterFind keeps null JSON columns from leaking out as null arrays.
func (p *ModuleProgress) AfterFind(tx *gorm.DB) error {
	p.normalize()
	return nil
}

// ModuleProgressUpdate is the body of a module-level progress write.
type ModuleProgressUpdate struct {
	Completed *bool `json:"completed,omitempty"`
	Progress  *int  `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ExerciseProgressUpdate is the body of an exercise-level progress write.
type ExerciseProgressUpdate struct {
	Completed      *bool  `json:"completed,omitempty"`
	CompletedSteps *[]int `json:"completedSteps,omitempty" validate:"omitempty,dive,gte=0"`
}

// NewModuleProgress returns an unsaved record with no exercises.
func NewModuleProgress(userID uint, moduleID string, now time.Time) *ModuleProgress {
	return &ModuleProgress{
		UserID:       userID,
		ModuleID:     moduleID,
		Exercises:    datatypes.JSONSlice[ExerciseProgress]{},
		StartedAt:    now,
		LastAccessed: now,
	}
}

// PercentComplete rounds half up, like the progress bar in the client does.
func PercentComplete(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// Exercise returns the entry for exerciseID or nil.
func (p *ModuleProgress) Exercise(exerciseID string) *ExerciseProgress {
	for i := range p.Exercises {
		if p.Exercises[i].ExerciseID == exerciseID {
			return &p.Exercises[i]
		}
	}
	return nil
}

// EnsureExercise appends an empty entry for exerciseID when it is not tracked yet.
func (p *ModuleProgress) EnsureExercise(exerciseID string, now time.Time) *ExerciseProgress {
	if ex := p.Exercise(exerciseID); ex != nil {
		return ex
	}
	p.Exercises = append(p.Exercises, ExerciseProgress{
		ExerciseID:     exerciseID,
		CompletedSteps: []int{},
		StartedAt:      now,
	})
	return &p.Exercises[len(p.Exercises)-1]
}

// CompletedExercises counts tracked exercises marked completed.
func (p *ModuleProgress) CompletedExercises() int {
	n := 0
	for _, ex := range p.Exercises {
		if ex.Completed {
			n++
		}
	}
	return n
}

// ApplyExerciseUpdate merges u into the entry for exerciseID and recomputes the
// module aggregate. Completion is sticky: completed=false never clears it.
func (p *ModuleProgress) ApplyExerciseUpdate(exerciseID string, u ExerciseProgressUpdate, now time.Time) {
	ex := p.EnsureExercise(exerciseID, now)

	if u.Completed != nil && *u.Completed {
		ex.Completed = true
		if ex.CompletedAt == nil {
			at := now
			ex.CompletedAt = &at
		}
	}
	if u.CompletedSteps != nil {
		steps := make([]int, len(*u.CompletedSteps))
		copy(steps, *u.CompletedSteps)
		ex.CompletedSteps = steps
	}

	p.Recalculate(now)
	p.LastAccessed = now
}

// ApplyModuleUpdate writes module-level fields. Absent fields count as false/0.
// Once exercises are tracked the aggregate is derived from them and the body
// cannot override it.
func (p *ModuleProgress) ApplyModuleUpdate(u ModuleProgressUpdate, now time.Time) {
	completed := u.Completed != nil && *u.Completed
	progress := 0
	if u.Progress != nil {
		progress = *u.Progress
	}

	if len(p.Exercises) > 0 {
		p.Recalculate(now)
	} else {
		if completed && (!p.Completed || p.CompletedAt == nil) {
			at := now
			p.CompletedAt = &at
		}
		p.Completed = completed
		p.Progress = progress
	}
	p.LastAccessed = now
}

// Recalculate derives progress and completed from the tracked exercises.
func (p *ModuleProgress) Recalculate(now time.Time) {
	total := len(p.Exercises)
	if total == 0 {
		return
	}
	done := p.CompletedExercises()
	p.Progress = PercentComplete(done, total)

	switch {
	case done == total:
		p.Completed = true
		if p.CompletedAt == nil {
			at := now
			p.CompletedAt = &at
		}
	case done > 0:
		p.Completed = false
		p.CompletedAt = nil
	default:
		p.Completed = false
	}
}

func (p *ModuleProgress) normalize() {
	if p.Exercises == nil {
		p.Exercises = datatypes.JSONSlice[ExerciseProgress]{}
	}
	for i := range p.Exercises {
		if p.Exercises[i].CompletedSteps == nil {
			p.Exercises[i].CompletedSteps = []int{}
		}
	}
}

// Placeholder is the unsaved zero record served before any progress exists.
// Its timestamps are now rather than the zero time.
func Placeholder(userID uint, moduleID string, now time.Time) *ModuleProgress {
	return &ModuleProgress{
		UserID:       userID,
		ModuleID:     moduleID,
		Exercises:    datatypes.JSONSlice[ExerciseProgress]{},
		StartedAt:    now,
		LastAccessed: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
