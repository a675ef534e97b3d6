package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/rcvlf/internal/tui"
	"github.com/imkarma/rcvlf/internal/workspace"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open interactive TUI",
	Long:  "Opens an interactive tree and frontier view. Changes made by other rcvlf commands show up live.",
	Args:  cobra.NoArgs,
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	return withWorkspace(func(ws *workspace.Workspace) error {
		watcher, err := tui.WatchWorkspace(ws.Dir)
		if err != nil {
			// Live reload is optional.
			ws.Log.Warn("workspace watch unavailable", "error", err)
		} else {
			defer watcher.Close()
		}

		model := tui.New(ws, watcher)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
