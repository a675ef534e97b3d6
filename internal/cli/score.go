package cli

import (
	"fmt"

	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/storage"
	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	scoreConfidence float64
	scoreValue      int
	scoreLearning   int
)

var scoreCmd = &cobra.Command{
	Use:   "score [id]",
	Short: "Show or change a task's score components",
	Long:  "Without flags, prints the score breakdown. With -c/-v/-l, updates those components and recomputes the score.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	addScoreFlags(scoreCmd, &scoreConfidence, &scoreValue, &scoreLearning)
}

// scoreUpdate collects the score flags that were given.
func scoreUpdate(cmd *cobra.Command, confidence float64, value, learning int) score.Update {
	var u score.Update
	if cmd.Flags().Changed("confidence") {
		u.Confidence = &confidence
	}
	if cmd.Flags().Changed("value") {
		u.Value = &value
	}
	if cmd.Flags().Changed("learning") {
		u.Learning = &learning
	}
	return u
}

func runScore(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		t, err := resolveTask(ws.Store.State(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		u := scoreUpdate(cmd, scoreConfidence, scoreValue, scoreLearning)
		if u.IsEmpty() {
			printBreakdown(cmd, t)
			return nil
		}

		if err := ws.Store.UpdateTaskScore(t.ID, u); err != nil {
			return err
		}
		updated, _ := ws.Store.GetTask(t.ID)
		ws.Record(t.ID, storage.EventScoreUpdated,
			fmt.Sprintf("Score updated: %.1f → %.1f (C %.2f, V %d, L %d)",
				t.TotalScore, updated.TotalScore, updated.Confidence, updated.Value, updated.Learning))

		fmt.Fprintf(out, "Score of %s%s%s: %.1f → %.1f\n", colorCyan, shortID(t.ID), colorReset, t.TotalScore, updated.TotalScore)
		printBreakdown(cmd, updated)
		return nil
	})
}

func printBreakdown(cmd *cobra.Command, t task.Task) {
	b := score.BreakdownOf(t)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %-12s %d\n", "Resolution", b.Resolution)
	fmt.Fprintf(out, "  %-12s %.1f (%.2f × %d)\n", "C×V", b.ConfidenceValue, t.Confidence, t.Value)
	fmt.Fprintf(out, "  %-12s %d\n", "Learning", b.Learning)
	fmt.Fprintf(out, "  %-12s %d\n", "Focus", b.Focus)
	fmt.Fprintf(out, "  %s%-12s %.1f%s\n", colorBold, "Total", b.Total, colorReset)
}
