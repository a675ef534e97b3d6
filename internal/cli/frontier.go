package cli

import (
	"fmt"

	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	frontierLimit int
	frontierReady bool
)

var frontierCmd = &cobra.Command{
	Use:   "frontier",
	Short: "Rank pending tasks by score",
	Long:  "Lists pending tasks from highest to lowest score. Tasks whose confidence meets ready_confidence are marked ready.",
	Args:  cobra.NoArgs,
	RunE:  runFrontier,
}

func init() {
	frontierCmd.Flags().IntVarP(&frontierLimit, "limit", "n", 0, "Show at most N tasks (0 = all)")
	frontierCmd.Flags().BoolVar(&frontierReady, "ready", false, "Only show ready tasks")
}

func runFrontier(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		out := cmd.OutOrStdout()
		minConf := ws.Config.MinConfidence()

		tasks := ws.Store.FrontierTasks()
		if len(tasks) == 0 {
			fmt.Fprintf(out, "%sFrontier is empty.%s Nothing pending.\n", colorDim, colorReset)
			return nil
		}

		fmt.Fprintf(out, "%s  %-8s  %-36s %5s  %2s %5s %2s %2s%s\n",
			colorBold, "ID", "TASK", "SCORE", "R", "C×V", "L", "F", colorReset)

		shown := 0
		for _, t := range tasks {
			ready := score.IsReady(t, minConf)
			if frontierReady && !ready {
				continue
			}
			if frontierLimit > 0 && shown >= frontierLimit {
				break
			}
			b := score.BreakdownOf(t)
			marker := " "
			if ready {
				marker = colorGreen + "★" + colorReset
			}
			fmt.Fprintf(out, "%s %-8s  %-36s %5.1f  %2d %5.1f %2d %2d\n",
				marker, shortID(t.ID), truncate(t.Name, 36), b.Total, b.Resolution, b.ConfidenceValue, b.Learning, b.Focus)
			shown++
		}

		fmt.Fprintf(out, "\n%s★ ready: confidence ≥ %.2f%s\n", colorDim, minConf, colorReset)
		return nil
	})
}
