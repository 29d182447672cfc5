package viewer

import (
	"testing"
	"time"

	"gitlearn/backend/catalog"
	"gitlearn/backend/models"

	"pgregory.net/rapid"
)

func TestResumeStaysInBounds(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	modules := cat.All()

	rapid.Check(t, func(t *rapid.T) {
		module := rapid.SampledFrom(modules).Draw(t, "module")
		now := time.Now()

		record := models.NewModuleProgress(1, module.ID, now)
		for _, ex := range module.Exercises {
			if !rapid.Bool().Draw(t, "tracked") {
				continue
			}
			update := models.ExerciseProgressUpdate{}
			if rapid.Bool().Draw(t, "completed") {
				done := true
				update.Completed = &done
			}
			if ex.IsStepByStep() {
				steps := rapid.SliceOfNDistinct(rapid.IntRange(0, len(ex.Steps)-1), 0, len(ex.Steps), rapid.ID[int]).Draw(t, "steps")
				update.CompletedSteps = &steps
			}
			record.ApplyExerciseUpdate(ex.ID, update, now)
		}

		reconciled, _ := Reconcile(&module, record, now)
		pos := Resume(&module, reconciled)

		if pos.InContent() {
			if reconciled.Progress != 0 && reconciled.Progress != 100 {
				t.Fatalf("content position with progress %d", reconciled.Progress)
			}
			return
		}
		if pos.Step > len(module.Exercises) {
			t.Fatalf("step %d out of %d", pos.Step, len(module.Exercises))
		}
		ex := module.Exercises[pos.Step-1]
		if reconciled.Exercise(ex.ID).Completed {
			t.Fatalf("resumed at completed exercise %s", ex.ID)
		}
		for _, earlier := range module.Exercises[:pos.Step-1] {
			if !reconciled.Exercise(earlier.ID).Completed {
				t.Fatalf("skipped unfinished exercise %s", earlier.ID)
			}
		}
		if ex.IsStepByStep() {
			if pos.ExerciseStep < 0 || pos.ExerciseStep >= len(ex.Steps) {
				t.Fatalf("exercise step %d out of %d", pos.ExerciseStep, len(ex.Steps))
			}
		} else if pos.ExerciseStep != 0 {
			t.Fatalf("single answer exercise at step %d", pos.ExerciseStep)
		}
	})
}
