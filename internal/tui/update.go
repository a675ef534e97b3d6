package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/storage"
	"github.com/imkarma/rcvlf/internal/task"
)

const statusTTL = 5 * time.Second

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.statusMsg != "" && time.Since(m.statusTime) > statusTTL {
			m.statusMsg = ""
		}
		// If popup is active, handle popup keys first.
		if m.popup != popupNone {
			return m.handlePopupKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case workspaceChangedMsg:
		if err := m.ws.Reload(); err != nil {
			m.setError(err)
		} else {
			m.refresh()
		}
		return m, m.waitForChange()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	// Navigation.
	case "j", "down":
		m.cursor++
		m.clampCursor()
	case "k", "up":
		m.cursor--
		m.clampCursor()
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.rows) - 1
		m.clampCursor()

	case "tab", "f":
		if m.screen == screenTree {
			m.screen = screenFrontier
		} else {
			m.screen = screenTree
		}
		m.refresh()

	// Lifecycle.
	case "a":
		m.transition(task.StatusActive)
	case "d":
		m.transition(task.StatusDone)
	case "x":
		m.transition(task.StatusIrrelevant)

	// Split the active task.
	case "p":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if t.Status != task.StatusActive {
			m.setError(task.Errorf(task.KindInvalidTransition, "Only the active task can be split into subtasks"))
			return m, nil
		}
		m.popupTaskID = t.ID
		m.planNames = nil
		return m, m.openPopup(popupPlan, "Subtask name (empty line to finish)...")

	// Create the root goal.
	case "n", "ctrl+n":
		if m.state.RootTaskID != "" {
			m.setStatus("Project already has a root; activate a task and press p to add subtasks")
			return m, nil
		}
		return m, m.openPopup(popupRoot, "What is the goal?")

	// Score components.
	case "+", "=":
		m.adjustConfidence(0.1)
	case "-":
		m.adjustConfidence(-0.1)
	case "v":
		m.cycleComponent(func(t task.Task) score.Update {
			v := nextTier(t.Value)
			return score.Update{Value: &v}
		})
	case "l":
		m.cycleComponent(func(t task.Task) score.Update {
			l := nextTier(t.Learning)
			return score.Update{Learning: &l}
		})

	case "r", "R":
		if err := m.ws.Reload(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.refresh()
		m.setStatus("Reloaded")
	}

	return m, nil
}

func (m *Model) openPopup(p popup, placeholder string) tea.Cmd {
	m.popup = p
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.Focus()
	return textinput.Blink
}

func (m *Model) closePopup() {
	m.popup = popupNone
	m.popupTaskID = ""
	m.planNames = nil
	m.textInput.Blur()
}

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.closePopup()
		return m, nil

	case "enter":
		name := strings.TrimSpace(m.textInput.Value())
		switch m.popup {
		case popupRoot:
			if name != "" {
				m.createRoot(name)
			}
			m.closePopup()
		case popupPlan:
			if name != "" {
				m.planNames = append(m.planNames, name)
				m.textInput.Reset()
				return m, nil
			}
			if len(m.planNames) > 0 {
				m.plan(m.popupTaskID, m.planNames)
			}
			m.closePopup()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// transition moves the selected task, recording the previously active task
// when activation planned it.
func (m *Model) transition(to task.Status) {
	t, ok := m.selected()
	if !ok {
		return
	}
	prevActive := m.state.ActiveTaskID

	if err := m.ws.Store.UpdateTaskStatus(t.ID, to); err != nil {
		m.setError(err)
		return
	}

	after := m.ws.Store.State()
	if prevActive != "" && prevActive != t.ID {
		if p, ok := after.Get(prevActive); ok && p.Status == task.StatusPlanned {
			m.ws.Record(p.ID, storage.EventStatusChanged,
				fmt.Sprintf("Status changed: %s → %s", task.StatusActive, task.StatusPlanned))
		}
	}
	m.ws.Record(t.ID, storage.EventStatusChanged, fmt.Sprintf("Status changed: %s → %s", t.Status, to))

	m.refresh()
	m.setStatus(fmt.Sprintf("%s → %s", truncate(t.Name, 40), to))
}

func (m *Model) createRoot(name string) {
	created, err := m.ws.Store.CreateTask(m.ws.Config.Defaults.Params(name, ""))
	if err != nil {
		m.setError(err)
		return
	}
	m.ws.Record(created.ID, storage.EventCreated, "Task created: "+created.Name)
	m.refresh()
	m.cursor = indexOf(m.rows, created.ID, m.cursor)
	m.setStatus("Created " + truncate(created.Name, 40))
}

func (m *Model) plan(parentID string, names []string) {
	params := make([]task.NewTaskParams, 0, len(names))
	for _, name := range names {
		params = append(params, m.ws.Config.Defaults.Params(name, parentID))
	}

	created, err := m.ws.Store.AddSubtasks(parentID, params)
	if err != nil {
		m.setError(err)
		return
	}
	for _, t := range created {
		m.ws.Record(t.ID, storage.EventCreated, "Task created: "+t.Name)
	}
	m.ws.Record(parentID, storage.EventPlanned,
		fmt.Sprintf("Planned into %d subtasks: %s", len(created), strings.Join(names, ", ")))

	m.refresh()
	m.setStatus(fmt.Sprintf("Added %d subtasks", len(created)))
}

func (m *Model) adjustConfidence(delta float64) {
	m.cycleComponent(func(t task.Task) score.Update {
		c := math.Round((t.Confidence+delta)*10) / 10
		c = math.Max(0, math.Min(1, c))
		return score.Update{Confidence: &c}
	})
}

// cycleComponent applies the update built by fn to the selected task.
func (m *Model) cycleComponent(fn func(t task.Task) score.Update) {
	t, ok := m.selected()
	if !ok {
		return
	}
	if err := m.ws.Store.UpdateTaskScore(t.ID, fn(t)); err != nil {
		m.setError(err)
		return
	}
	updated, _ := m.ws.Store.GetTask(t.ID)
	m.ws.Record(t.ID, storage.EventScoreUpdated,
		fmt.Sprintf("Score updated: %.1f → %.1f (C %.2f, V %d, L %d)",
			t.TotalScore, updated.TotalScore, updated.Confidence, updated.Value, updated.Learning))

	m.refresh()
	m.setStatus(fmt.Sprintf("Score %.1f → %.1f", t.TotalScore, updated.TotalScore))
}

// nextTier cycles 1 → 2 → 3 → 1.
func nextTier(n int) int {
	if n >= task.MaxTier {
		return task.MinTier
	}
	return n + 1
}
