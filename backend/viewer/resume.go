package viewer

import (
	"sort"
	"time"

	"gitlearn/backend/catalog"
	"gitlearn/backend/models"
)

// Position is where the viewer stands. Step 0 is the module content, step i
// is exercise i (1-based). ExerciseStep indexes the steps of a step-by-step
// exercise.
type Position struct {
	Step         int
	ExerciseStep int
}

func (p Position) InContent() bool { return p.Step == 0 }

// Reconcile returns a copy of record that tracks every exercise of module.
// missing lists the exercise ids that had to be added, in catalog order.
func Reconcile(module *catalog.Module, record *models.ModuleProgress, now time.Time) (*models.ModuleProgress, []string) {
	out := cloneRecord(record, module.ID)

	var missing []string
	for _, ex := range module.Exercises {
		if out.Exercise(ex.ID) == nil {
			out.EnsureExercise(ex.ID, now)
			missing = append(missing, ex.ID)
		}
	}
	if len(missing) > 0 {
		out.Recalculate(now)
	}
	return out, missing
}

// Resume picks the starting position for module given its stored progress.
func Resume(module *catalog.Module, record *models.ModuleProgress) Position {
	if len(module.Exercises) == 0 || record == nil || record.Progress == 0 || record.Progress >= 100 {
		return Position{}
	}

	for i, ex := range module.Exercises {
		entry := record.Exercise(ex.ID)
		if entry != nil && entry.Completed {
			continue
		}
		pos := Position{Step: i + 1}
		if entry != nil {
			pos.ExerciseStep = resumeStep(ex, entry.CompletedSteps)
		}
		return pos
	}
	return Position{}
}

// resumeStep is the step after the highest completed one, clamped to the last step.
func resumeStep(ex catalog.Exercise, completedSteps []int) int {
	if !ex.IsStepByStep() || len(completedSteps) == 0 {
		return 0
	}
	highest := completedSteps[0]
	for _, s := range completedSteps[1:] {
		if s > highest {
			highest = s
		}
	}
	next := highest + 1
	if next >= len(ex.Steps) {
		next = len(ex.Steps) - 1
	}
	if next < 0 {
		next = 0
	}
	return next
}

func cloneRecord(record *models.ModuleProgress, moduleID string) *models.ModuleProgress {
	if record == nil {
		return models.Placeholder(0, moduleID, time.Now())
	}
	out := *record
	out.Exercises = make([]models.ExerciseProgress, len(record.Exercises))
	for i, ex := range record.Exercises {
		ex.CompletedSteps = append([]int{}, ex.CompletedSteps...)
		out.Exercises[i] = ex
	}
	return &out
}

// addStep inserts step into a sorted set of step indices.
func addStep(steps []int, step int) []int {
	for _, s := range steps {
		if s == step {
			return steps
		}
	}
	steps = append(steps, step)
	sort.Ints(steps)
	return steps
}

func hasStep(steps []int, step int) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}
