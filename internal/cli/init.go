package cli

import (
	"fmt"

	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize rcvlf in the current directory",
	Long:  "Creates a .rcvlf/ directory with default config and database.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := workspace.Init(workDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized rcvlf in %s/\n", dir)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Run: rcvlf task create \"your goal\"")
	fmt.Fprintln(out, "  2. Run: rcvlf task activate <id>")
	fmt.Fprintln(out, "  3. Run: rcvlf plan <id> \"subtask\" \"subtask\"")
	fmt.Fprintln(out, "  4. Run: rcvlf frontier")

	return nil
}
