// Package viewer drives a learner through one training module: the content
// page, then each exercise in order, checking answers and recording progress.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlearn/backend/catalog"
	"gitlearn/backend/models"

	"go.uber.org/zap"
)

var ErrModuleNotFound = errors.New("module not found")

const (
	msgCorrect   = "Correct! Well done!"
	msgIncorrect = "Not quite right. Try again or check the hints for help."
)

// ProgressService is the remote progress store. *client.ProgressClient
// satisfies it.
type ProgressService interface {
	GetModuleProgress(ctx context.Context, moduleID string) (*models.ModuleProgress, error)
	UpdateModuleProgress(ctx context.Context, moduleID string, update models.ModuleProgressUpdate) (*models.ModuleProgress, error)
	UpdateExerciseProgress(ctx context.Context, moduleID, exerciseID string, update models.ExerciseProgressUpdate) (*models.ModuleProgress, error)
}

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

type Feedback struct {
	Kind    FeedbackKind
	Message string
	// Hint holds the expected command after a wrong step answer.
	Hint string
}

// Viewer is the per-module state machine. It is not safe for concurrent use.
//
// Progress writes are fire and forget: failures are logged and the local
// state moves on as if they had succeeded.
type Viewer struct {
	svc     ProgressService
	catalog *catalog.Catalog
	log     *zap.SugaredLogger
	now     func() time.Time

	module *catalog.Module
	record *models.ModuleProgress
	pos    Position

	answer      string
	stepAnswers []string
	steps       []int
	hints       []bool
	feedback    *Feedback
	solved      bool

	finished    bool
	destination string
}

func New(svc ProgressService, cat *catalog.Catalog, log *zap.SugaredLogger) *Viewer {
	return &Viewer{
		svc:     svc,
		catalog: cat,
		log:     log.With("component", "viewer"),
		now:     time.Now,
	}
}

// Load resets the viewer to moduleID, reconciles the stored progress with the
// catalog and moves to the resume position.
func (v *Viewer) Load(ctx context.Context, moduleID string) error {
	module, ok := v.catalog.Find(moduleID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
	}

	*v = Viewer{svc: v.svc, catalog: v.catalog, log: v.log, now: v.now, module: module}

	record, err := v.svc.GetModuleProgress(ctx, moduleID)
	if err != nil {
		v.log.Warnw("fetch progress failed", "module_id", moduleID, "error", err)
		record = nil
	}

	reconciled, missing := Reconcile(module, record, v.now())
	v.record = reconciled
	// Without a fetched record every exercise looks missing; writing them
	// would overwrite whatever the server holds.
	if err == nil {
		for _, exerciseID := range missing {
			done := false
			v.persistExercise(ctx, exerciseID, models.ExerciseProgressUpdate{Completed: &done})
		}
	}

	v.enter(Resume(module, v.record))
	return nil
}

func (v *Viewer) Module() *catalog.Module { return v.module }

func (v *Viewer) Position() Position { return v.pos }

// Record is the local view of the module's progress.
func (v *Viewer) Record() *models.ModuleProgress {
	if v.record == nil {
		return nil
	}
	return cloneRecord(v.record, v.record.ModuleID)
}

// Exercise returns the active exercise, or false on the content page.
func (v *Viewer) Exercise() (*catalog.Exercise, bool) {
	if v.module == nil || v.pos.InContent() || v.pos.Step > len(v.module.Exercises) {
		return nil, false
	}
	return &v.module.Exercises[v.pos.Step-1], true
}

// Answer is the current input of the active exercise or step.
func (v *Viewer) Answer() string {
	if ex, ok := v.Exercise(); ok && ex.IsStepByStep() {
		return v.stepAnswers[v.pos.ExerciseStep]
	}
	return v.answer
}

func (v *Viewer) SetAnswer(answer string) {
	ex, ok := v.Exercise()
	if !ok {
		return
	}
	if ex.IsStepByStep() {
		v.stepAnswers[v.pos.ExerciseStep] = answer
		return
	}
	v.answer = answer
}

// StepAnswers returns the inputs of every step of the active exercise.
// Steps done in an earlier session show their solution.
func (v *Viewer) StepAnswers() []string {
	return append([]string(nil), v.stepAnswers...)
}

// CompletedSteps is the local step accumulator of the active exercise.
func (v *Viewer) CompletedSteps() []int {
	return append([]int(nil), v.steps...)
}

func (v *Viewer) Feedback() *Feedback {
	if v.feedback == nil {
		return nil
	}
	f := *v.feedback
	return &f
}

func (v *Viewer) ToggleHint(i int) {
	if i < 0 || i >= len(v.hints) {
		return
	}
	v.hints[i] = !v.hints[i]
}

// VisibleHints returns the hints toggled on, keyed by index.
func (v *Viewer) VisibleHints() map[int]string {
	out := map[int]string{}
	ex, ok := v.Exercise()
	if !ok {
		return out
	}
	for i, shown := range v.hints {
		if shown && i < len(ex.Hints) {
			out[i] = ex.Hints[i]
		}
	}
	return out
}

// CanAdvance reports whether Next would move forward.
func (v *Viewer) CanAdvance() bool {
	if v.module == nil || v.finished {
		return false
	}
	ex, ok := v.Exercise()
	if !ok {
		return true
	}
	if v.solved {
		return true
	}
	if ex.IsStepByStep() {
		return hasStep(v.steps, v.pos.ExerciseStep)
	}
	entry := v.record.Exercise(ex.ID)
	return entry != nil && entry.Completed
}

// Finished reports whether the module was completed in this session and
// where to go next. An empty destination means the module list.
func (v *Viewer) Finished() (destination string, finished bool) {
	return v.destination, v.finished
}

// Submit checks the current answer. It returns true when the answer matched.
func (v *Viewer) Submit(ctx context.Context) bool {
	ex, ok := v.Exercise()
	if !ok {
		return false
	}
	if ex.IsStepByStep() {
		return v.submitStep(ctx, ex)
	}
	return v.submitAnswer(ctx, ex)
}

func (v *Viewer) submitAnswer(ctx context.Context, ex *catalog.Exercise) bool {
	if strings.TrimSpace(v.answer) != strings.TrimSpace(ex.Solution) {
		v.feedback = &Feedback{Kind: FeedbackError, Message: msgIncorrect}
		return false
	}

	v.feedback = &Feedback{Kind: FeedbackSuccess, Message: msgCorrect}
	v.solved = true

	done := true
	v.persistExercise(ctx, ex.ID, models.ExerciseProgressUpdate{Completed: &done})
	return true
}

func (v *Viewer) submitStep(ctx context.Context, ex *catalog.Exercise) bool {
	index := v.pos.ExerciseStep
	step := ex.Steps[index]

	if strings.TrimSpace(v.stepAnswers[index]) != strings.TrimSpace(step.Solution) {
		v.feedback = &Feedback{
			Kind:    FeedbackError,
			Message: fmt.Sprintf("Not quite right. The expected command is: %s", step.Solution),
			Hint:    step.Solution,
		}
		return false
	}

	v.steps = addStep(v.steps, index)
	v.solved = true

	lastStep := index == len(ex.Steps)-1
	if lastStep {
		v.feedback = &Feedback{Kind: FeedbackSuccess, Message: msgCorrect}
	} else {
		v.feedback = &Feedback{Kind: FeedbackSuccess, Message: fmt.Sprintf("Correct! Step %d of %d done.", index+1, len(ex.Steps))}
	}

	steps := append([]int{}, v.steps...)
	v.persistExercise(ctx, ex.ID, models.ExerciseProgressUpdate{
		Completed:      &lastStep,
		CompletedSteps: &steps,
	})

	if lastStep && v.pos.Step == len(v.module.Exercises) {
		completed := true
		v.persistModule(ctx, models.ModuleProgressUpdate{Completed: &completed})
	}
	return true
}

// Next moves to the next step, the next exercise, or completes the module
// when leaving the last exercise. It returns false when the current exercise
// is not solved yet.
func (v *Viewer) Next(ctx context.Context) bool {
	if !v.CanAdvance() {
		return false
	}

	if ex, ok := v.Exercise(); ok && ex.IsStepByStep() && v.pos.ExerciseStep < len(ex.Steps)-1 {
		v.pos.ExerciseStep++
		v.feedback = nil
		v.solved = hasStep(v.steps, v.pos.ExerciseStep)
		return true
	}

	if v.pos.Step < len(v.module.Exercises) {
		v.enter(v.entryPosition(v.pos.Step + 1))
		return true
	}

	v.complete(ctx)
	return true
}

// Back goes to the previous exercise. On the content page it returns false
// and the caller should leave the module.
func (v *Viewer) Back() bool {
	if v.module == nil || v.pos.InContent() {
		return false
	}
	v.enter(v.entryPosition(v.pos.Step - 1))
	return true
}

func (v *Viewer) complete(ctx context.Context) {
	completed, progress := true, 100
	v.persistModule(ctx, models.ModuleProgressUpdate{Completed: &completed, Progress: &progress})

	v.record.Completed = true
	v.record.Progress = 100
	if v.record.CompletedAt == nil {
		at := v.now()
		v.record.CompletedAt = &at
	}

	v.finished = true
	v.destination, _ = v.catalog.NextAfter(v.module.ID)
	v.log.Infow("module completed", "module_id", v.module.ID, "next", v.destination)
}

// entryPosition is where exercise step i opens when navigated to.
func (v *Viewer) entryPosition(step int) Position {
	pos := Position{Step: step}
	if step == 0 {
		return pos
	}
	ex := v.module.Exercises[step-1]
	if entry := v.record.Exercise(ex.ID); entry != nil && !entry.Completed {
		pos.ExerciseStep = resumeStep(ex, entry.CompletedSteps)
	}
	return pos
}

// enter resets the per-exercise state and replays steps finished earlier.
func (v *Viewer) enter(pos Position) {
	v.pos = pos
	v.answer = ""
	v.feedback = nil
	v.solved = false
	v.stepAnswers = nil
	v.steps = nil
	v.hints = nil

	ex, ok := v.Exercise()
	if !ok {
		return
	}
	v.hints = make([]bool, len(ex.Hints))
	if !ex.IsStepByStep() {
		return
	}

	v.stepAnswers = make([]string, len(ex.Steps))
	if entry := v.record.Exercise(ex.ID); entry != nil {
		for _, s := range entry.CompletedSteps {
			if s >= 0 && s < len(ex.Steps) {
				v.steps = addStep(v.steps, s)
				// the learner's own text is not stored, so show the solution
				v.stepAnswers[s] = ex.Steps[s].Solution
			}
		}
	}
	v.solved = hasStep(v.steps, v.pos.ExerciseStep)
}

func (v *Viewer) persistExercise(ctx context.Context, exerciseID string, update models.ExerciseProgressUpdate) {
	v.record.ApplyExerciseUpdate(exerciseID, update, v.now())

	record, err := v.svc.UpdateExerciseProgress(ctx, v.module.ID, exerciseID, update)
	if err != nil {
		v.log.Warnw("save exercise progress failed",
			"module_id", v.module.ID, "exercise_id", exerciseID, "error", err)
		return
	}
	v.adopt(record)
}

func (v *Viewer) persistModule(ctx context.Context, update models.ModuleProgressUpdate) {
	record, err := v.svc.UpdateModuleProgress(ctx, v.module.ID, update)
	if err != nil {
		v.log.Warnw("save module progress failed", "module_id", v.module.ID, "error", err)
		return
	}
	v.adopt(record)
}

// adopt takes the server's copy of the record, keeping local exercises the
// server has not seen yet.
func (v *Viewer) adopt(record *models.ModuleProgress) {
	if record == nil {
		return
	}
	reconciled, _ := Reconcile(v.module, record, v.now())
	v.record = reconciled
}
