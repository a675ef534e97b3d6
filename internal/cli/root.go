package cli

import (
	"fmt"
	"os"

	"github.com/imkarma/rcvlf/internal/task"
	"github.com/spf13/cobra"
)

var workDir string

var rootCmd = &cobra.Command{
	Use:   "rcvlf",
	Short: "Plan work as a tree of scored tasks",
	Long: "rcvlf: break a goal into a tree of tasks and always know what to pick next.\n" +
		"Pending tasks are ranked by R + C×V + L + F: resolution (depth), confidence × value,\n" +
		"learning and focus (closeness to the task you are working on).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and prints typed planner errors.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		title, msg := task.Describe(err)
		fmt.Fprintf(os.Stderr, "%s%s:%s %s\n", colorRed+colorBold, title, colorReset, msg)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", ".", "Directory containing .rcvlf/")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(frontierCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
}
