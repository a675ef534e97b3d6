package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/tree"
	"github.com/imkarma/rcvlf/internal/workspace"
)

// screen is which list the TUI shows.
type screen int

const (
	screenTree     screen = iota // whole tree in pre-order
	screenFrontier               // pending tasks by score
)

// popup is an input dialog drawn over the current screen.
type popup int

const (
	popupNone   popup = iota
	popupRoot         // name the project root
	popupPlan         // enter subtask names for the active task
)

// row is one line of the current list.
type row struct {
	task  task.Task
	depth int
}

// Model is the top-level bubbletea model.
type Model struct {
	ws      *workspace.Workspace
	watcher *Watcher
	width   int
	height  int

	screen screen
	rows   []row
	cursor int

	state   task.ProjectState
	minConf float64

	popup       popup
	textInput   textinput.Model
	popupTaskID string
	planNames   []string

	// Status message at the bottom.
	statusMsg  string
	statusErr  bool
	statusTime time.Time

	quitting bool
}

// New creates a TUI over an open workspace. watcher may be nil, in which
// case changes from other processes are not picked up.
func New(ws *workspace.Workspace, watcher *Watcher) Model {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 50

	m := Model{
		ws:        ws,
		watcher:   watcher,
		screen:    screenTree,
		textInput: ti,
		minConf:   ws.Config.MinConfidence(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// workspaceChangedMsg is sent when another process wrote the database.
type workspaceChangedMsg struct{}

func (m Model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	changes := m.watcher.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return workspaceChangedMsg{}
	}
}

// refresh rebuilds the rows from the store, keeping the cursor on the same
// task when it is still listed.
func (m *Model) refresh() {
	selected := ""
	if t, ok := m.selected(); ok {
		selected = t.ID
	}

	m.state = m.ws.Store.State()
	switch m.screen {
	case screenFrontier:
		m.rows = frontierRows(m.state)
	default:
		m.rows = treeRows(m.state)
	}

	m.cursor = indexOf(m.rows, selected, m.cursor)
	m.clampCursor()
}

func treeRows(state task.ProjectState) []row {
	ordered := tree.Ordered(state.Tasks, state.RootTaskID)
	rows := make([]row, 0, len(ordered))
	for _, t := range ordered {
		rows = append(rows, row{task: t, depth: tree.Depth(state.Tasks, t.ID)})
	}
	return rows
}

func frontierRows(state task.ProjectState) []row {
	frontier := score.Frontier(state)
	rows := make([]row, 0, len(frontier))
	for _, t := range frontier {
		rows = append(rows, row{task: t})
	}
	return rows
}

func indexOf(rows []row, id string, fallback int) int {
	if id == "" {
		return fallback
	}
	for i, r := range rows {
		if r.task.ID == id {
			return i
		}
	}
	return fallback
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return task.Task{}, false
	}
	return m.rows[m.cursor].task, true
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusErr = false
	m.statusTime = time.Now()
}

func (m *Model) setError(err error) {
	title, msg := task.Describe(err)
	m.statusMsg = title + ": " + msg
	m.statusErr = true
	m.statusTime = time.Now()
}
