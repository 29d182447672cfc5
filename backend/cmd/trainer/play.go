package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitlearn/backend/viewer"
)

const help = "Commands: :next  :back  :hint N  :quit  (anything else is your answer)"

// play runs the viewer against a line based terminal until the module is
// finished, the learner backs out of it or input ends.
func play(ctx context.Context, v *viewer.Viewer, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	render(v, out)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == ":quit":
			return nil
		case line == ":help":
			fmt.Fprintln(out, help)
		case line == ":back":
			if !v.Back() {
				fmt.Fprintln(out, "Back to the module list.")
				return nil
			}
			render(v, out)
		case line == ":next":
			if !v.Next(ctx) {
				fmt.Fprintln(out, "Solve this one first, or ask for a :hint.")
				continue
			}
			if destination, finished := v.Finished(); finished {
				fmt.Fprintf(out, "Module %q completed!\n", v.Module().Title)
				if destination != "" {
					fmt.Fprintf(out, "Next up: trainer start %s\n", destination)
				} else {
					fmt.Fprintln(out, "That was the last module. Back to the module list.")
				}
				return nil
			}
			render(v, out)
		case strings.HasPrefix(line, ":hint"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":hint")))
			if err != nil || n < 1 {
				fmt.Fprintln(out, "usage: :hint N")
				continue
			}
			v.ToggleHint(n - 1)
			renderHints(v, out)
		case strings.HasPrefix(line, ":"):
			fmt.Fprintln(out, help)
		default:
			if _, ok := v.Exercise(); !ok {
				fmt.Fprintln(out, "Type :next to start the exercises.")
				continue
			}
			v.SetAnswer(line)
			v.Submit(ctx)
			if fb := v.Feedback(); fb != nil {
				fmt.Fprintf(out, "[%s] %s\n", fb.Kind, fb.Message)
			}
		}
	}
}

func render(v *viewer.Viewer, out io.Writer) {
	m := v.Module()
	ex, ok := v.Exercise()
	if !ok {
		fmt.Fprintf(out, "\n== %s ==\n%s\n", m.Title, strings.TrimSpace(m.Content))
		if len(m.Exercises) > 0 {
			fmt.Fprintf(out, "\n%d exercise(s). Type :next to start.\n", len(m.Exercises))
		} else {
			fmt.Fprintln(out, "\nType :next to finish the module.")
		}
		return
	}

	pos := v.Position()
	fmt.Fprintf(out, "\n== Exercise %d/%d: %s ==\n%s\n", pos.Step, len(m.Exercises), ex.Question, ex.Description)
	if ex.IsStepByStep() {
		answers := v.StepAnswers()
		for i := 0; i < pos.ExerciseStep; i++ {
			fmt.Fprintf(out, "  step %d: %s\n    $ %s\n", i+1, ex.Steps[i].Instruction, answers[i])
		}
		fmt.Fprintf(out, "Step %d/%d: %s\n", pos.ExerciseStep+1, len(ex.Steps), ex.Steps[pos.ExerciseStep].Instruction)
	}
	if len(ex.Hints) > 0 {
		fmt.Fprintf(out, "%d hint(s) available.\n", len(ex.Hints))
	}
	if v.CanAdvance() {
		fmt.Fprintln(out, "Already done here, type :next to continue.")
	}
}

func renderHints(v *viewer.Viewer, out io.Writer) {
	ex, ok := v.Exercise()
	if !ok {
		return
	}
	visible := v.VisibleHints()
	for i := range ex.Hints {
		if hint, shown := visible[i]; shown {
			fmt.Fprintf(out, "  hint %d: %s\n", i+1, hint)
		}
	}
}
