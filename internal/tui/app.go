// Package tui provides the interactive terminal monitor for burrow.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// RefreshInterval is how often the monitor polls the daemon.
const RefreshInterval = 2 * time.Second

var views = []string{"tasks", "minions", "enemies", "workplaces"}

var filters = []string{"", "pending", "active"}
var filterNames = []string{"ALL", "PENDING", "ACTIVE"}

// App is the main TUI application model.
type App struct {
	client       *Client
	snapshot     *Snapshot
	selectedIdx  int
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	viewIdx      int
	detail       bool
	message      string
	filterIdx    int
	daemonOnline bool
	suggestions  *Suggestions
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type / for commands, @ for ids, ! for filters"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	return &App{
		client:      NewClient(apiAddr),
		input:       ti,
		viewport:    viewport.New(80, 20),
		suggestions: NewSuggestions(),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.refresh(),
		a.tickCmd(),
	)
}

func (a *App) view() string { return views[a.viewIdx] }

// rows is the number of selectable rows in the current view.
func (a *App) rows() int {
	if a.snapshot == nil {
		return 0
	}
	switch a.view() {
	case "tasks":
		return len(a.snapshot.Tasks)
	case "minions":
		return len(a.snapshot.Minions)
	case "enemies":
		return len(a.snapshot.Enemies)
	default:
		return len(a.snapshot.Workplaces)
	}
}

func (a *App) selectedTask() *TaskItem {
	if a.snapshot == nil || a.view() != "tasks" || a.selectedIdx >= len(a.snapshot.Tasks) {
		return nil
	}
	return &a.snapshot.Tasks[a.selectedIdx]
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.detail {
				a.detail = false
				return a, nil
			}

		case "up":
			if a.suggestions.IsVisible() {
				a.suggestions.Prev()
			} else if a.detail {
				a.viewport.LineUp(1)
			} else if a.selectedIdx > 0 {
				a.selectedIdx--
			}
			return a, nil

		case "down":
			if a.suggestions.IsVisible() {
				a.suggestions.Next()
			} else if a.detail {
				a.viewport.LineDown(1)
			} else if a.selectedIdx < a.rows()-1 {
				a.selectedIdx++
			}
			return a, nil

		case "tab":
			if a.suggestions.IsVisible() {
				a.acceptSuggestion()
				return a, nil
			}
			a.detail = false
			a.viewIdx = (a.viewIdx + 1) % len(views)
			a.selectedIdx = 0
			return a, nil

		case "enter":
			if a.suggestions.IsVisible() {
				a.acceptSuggestion()
				return a, nil
			}
			line := strings.TrimSpace(a.input.Value())
			if line != "" {
				a.input.SetValue("")
				a.suggestions.Update("")
				return a, a.executeCommand(line)
			}
			if t := a.selectedTask(); t != nil {
				a.detail = true
				a.viewport.SetContent(renderTaskDetail(*t))
				a.viewport.GotoTop()
			}
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10

	case snapshotMsg:
		a.daemonOnline = true
		a.snapshot = msg.snapshot
		if n := a.rows(); a.selectedIdx >= n {
			a.selectedIdx = max(0, n-1)
		}
		if a.detail {
			if t := a.selectedTask(); t != nil {
				a.viewport.SetContent(renderTaskDetail(*t))
			}
		}

	case tickMsg:
		return a, tea.Batch(a.refresh(), a.tickCmd())

	case commandResultMsg:
		a.message = msg.message
		return a, a.refresh()

	case errMsg:
		a.daemonOnline = false
		a.message = "Error: " + msg.err.Error()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	if a.snapshot != nil {
		a.suggestions.SetReferences(a.snapshot.Minions, a.snapshot.Tasks)
	}
	a.suggestions.Update(a.input.Value())

	return a, tea.Batch(cmds...)
}

func (a *App) acceptSuggestion() {
	if selected := a.suggestions.Selected(); selected != nil {
		a.input.SetValue(selected.Text + " ")
		a.input.CursorEnd()
		a.suggestions.Update("")
	}
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ DAEMON")
	}
	header := titleStyle.Render("BURROW Colony Monitor") + "  " + daemonStatus
	if a.snapshot != nil {
		s := a.snapshot.Stats
		header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf(
			"[%s | pending %d | active %d | preempted %d]", s.State, s.Pending, s.Active, s.Preempted))
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch {
	case a.detail:
		b.WriteString(a.viewport.View())
	case a.snapshot == nil:
		b.WriteString("\n  Connecting to daemon...\n")
	default:
		if a.view() == "tasks" {
			label := fmt.Sprintf(" Filter: [%s]", filterNames[a.filterIdx])
			b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(label) + "\n")
			contentHeight--
		}
		b.WriteString(a.renderList(contentHeight))
	}

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))
	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	status := fmt.Sprintf(" %s: %d | ↑↓:nav | Tab:next view | Enter:detail | Ctrl+C:quit", strings.ToUpper(a.view()), a.rows())
	if a.detail {
		status = " ↑↓:scroll | Esc:back | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))
	return b.String()
}

func (a *App) renderList(height int) string {
	var head string
	var lines []string
	switch a.view() {
	case "tasks":
		head = fmt.Sprintf("%-10s %-12s %-9s %-10s %s", "TASK", "KIND", "PRIORITY", "STATE", "SLOTS")
		for _, t := range a.snapshot.Tasks {
			lines = append(lines, fmt.Sprintf("%-10s %-12s %-9s %-10s %d/%d",
				short(t.ID), t.Kind, t.Priority, t.State, t.Filled(), t.MaxExecutors))
		}
	case "minions":
		head = fmt.Sprintf("%-10s %-12s %-7s %-8s %-8s %s", "MINION", "NAME", "HEALTH", "STAMINA", "STATE", "TASK")
		for _, m := range a.snapshot.Minions {
			lines = append(lines, fmt.Sprintf("%-10s %-12s %-7.0f %-8.0f %-8s %s",
				short(m.ID), m.Name, m.Status.Health, m.Status.Stamina, minionState(m), short(m.TaskID)))
		}
	case "enemies":
		head = fmt.Sprintf("%-12s %-20s %-10s %s", "ENEMY", "POSITION", "TASK", "ENGAGED")
		for _, e := range a.snapshot.Enemies {
			lines = append(lines, fmt.Sprintf("%-12s %-20s %-10s %d",
				e.ID, formatVec(e.Position), short(e.TaskID), len(e.Engaged)))
		}
	default:
		head = fmt.Sprintf("%-12s %-10s %-10s %s", "WORKPLACE", "WORKER", "TASK", "IDLE")
		for _, w := range a.snapshot.Workplaces {
			lines = append(lines, fmt.Sprintf("%-12s %-10s %-10s %s",
				w.ID, short(w.WorkerID), short(w.TaskID), w.StopWorkingTimer.Truncate(time.Second)))
		}
	}

	if len(lines) == 0 {
		return "\n  " + lipgloss.NewStyle().Foreground(mutedColor).Render("Nothing to show") + "\n"
	}

	for i := range lines {
		if i == a.selectedIdx {
			lines[i] = selectedStyle.Render("▶ " + lines[i])
		} else {
			lines[i] = itemStyle.Render("  " + lines[i])
		}
	}

	height--
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return "  " + headerStyle.Render(head) + "\n" + strings.Join(lines, "\n")
}

func renderTaskDetail(t TaskItem) string {
	label := lipgloss.NewStyle().Foreground(mutedColor)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n  %s\n", lipgloss.NewStyle().Bold(true).Render("Task "+t.ID)))
	b.WriteString(fmt.Sprintf("  %s %s\n", label.Render("Kind:"), t.Kind))
	b.WriteString(fmt.Sprintf("  %s %s\n", label.Render("Priority:"), t.Priority))
	b.WriteString(fmt.Sprintf("  %s %s\n", label.Render("State:"), formatState(t.State)))
	b.WriteString(fmt.Sprintf("  %s %.1f\n", label.Render("Fatigue:"), t.FatiguePoints))
	b.WriteString(fmt.Sprintf("  %s %s\n", label.Render("Target:"), formatVec(t.Target)))
	b.WriteString(fmt.Sprintf("  %s %s\n", label.Render("Created:"), t.CreatedAt.Format(time.RFC3339)))

	b.WriteString(fmt.Sprintf("\n  Executors (%d/%d):\n", t.Filled(), t.MaxExecutors))
	if len(t.Executors) == 0 {
		b.WriteString("    " + label.Render("not yet assigned") + "\n")
	}
	for i, id := range t.Executors {
		if id == "" {
			id = lipgloss.NewStyle().Foreground(warningColor).Render("vacant")
		}
		b.WriteString(fmt.Sprintf("    %d. %s\n", i, id))
	}
	if len(t.Engaged) > 0 {
		b.WriteString("\n  Engaged:\n")
		for _, id := range t.Engaged {
			b.WriteString("    • " + id + "\n")
		}
	}
	return b.String()
}

func formatState(state string) string {
	switch state {
	case "pending":
		return lipgloss.NewStyle().Foreground(warningColor).Render("○ PENDING")
	case "active":
		return lipgloss.NewStyle().Foreground(secondaryColor).Render("◑ ACTIVE")
	case "completed":
		return lipgloss.NewStyle().Foreground(successColor).Render("● DONE")
	case "cancelled":
		return lipgloss.NewStyle().Foreground(errorColor).Render("✗ CANCELLED")
	default:
		return state
	}
}

func minionState(m MinionItem) string {
	switch {
	case !m.Status.CanCompleteTask:
		return "unfit"
	case m.Status.Fleeing:
		return "fleeing"
	case m.Status.Recreating:
		return "resting"
	case m.Status.Idle:
		return "idle"
	default:
		return "busy"
	}
}

func formatVec(v Vec3) string {
	return fmt.Sprintf("(%.0f,%.0f,%.0f)", v.X, v.Y, v.Z)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *App) refresh() tea.Cmd {
	state := filters[a.filterIdx]
	return func() tea.Msg {
		snap, err := a.client.Snapshot(state)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{snap}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// executeCommand runs a command bar line. Filter names switch the task filter
// in place; everything else calls the daemon.
func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(strings.TrimPrefix(strings.TrimPrefix(input, "/"), "!"))
	if len(parts) == 0 {
		return nil
	}
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "all", "pending", "active":
		for i, f := range filters {
			if f == cmd || (cmd == "all" && f == "") {
				a.filterIdx = i
			}
		}
		a.viewIdx = 0
		a.selectedIdx = 0
		return a.refresh()
	case "q", "quit", "exit":
		return tea.Quit
	}

	selected := a.selectedTask()
	return func() tea.Msg {
		switch cmd {
		case "task":
			priority, executors := "low", 1
			if len(args) > 0 {
				priority = args[0]
			}
			if len(args) > 1 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return commandResultMsg{"Usage: task <priority> <executors>"}
				}
				executors = n
			}
			id, err := a.client.CreateTask(priority, executors)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Created task: " + short(id)}

		case "complete", "cancel":
			if selected == nil {
				return commandResultMsg{"No task selected"}
			}
			call, done := a.client.CompleteTask, "completed"
			if cmd == "cancel" {
				call, done = a.client.CancelTask, "cancelled"
			}
			if err := call(selected.ID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Task %s %s", short(selected.ID), done)}

		case "minion":
			if len(args) < 1 {
				return commandResultMsg{"Usage: minion <name>"}
			}
			id, err := a.client.AddMinion(args[0])
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Registered minion: " + short(id)}

		case "kill":
			if len(args) < 1 {
				return commandResultMsg{"Usage: kill <minion-id>"}
			}
			if err := a.client.KillMinion(args[0]); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Minion killed"}

		case "enemy":
			if len(args) < 1 {
				return commandResultMsg{"Usage: enemy <id> [x y z]"}
			}
			var pos Vec3
			coords := []*float64{&pos.X, &pos.Y, &pos.Z}
			for i, raw := range args[1:] {
				if i >= len(coords) {
					break
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return commandResultMsg{"Usage: enemy <id> [x y z]"}
				}
				*coords[i] = v
			}
			if err := a.client.ReportEnemy(args[0], pos); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Enemy reported: " + args[0]}

		case "slay":
			if len(args) < 1 {
				return commandResultMsg{"Usage: slay <enemy-id>"}
			}
			if err := a.client.KillEnemy(args[0]); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Enemy slain: " + args[0]}

		default:
			return commandResultMsg{fmt.Sprintf("Unknown: %s (type / for commands)", cmd)}
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type snapshotMsg struct {
	snapshot *Snapshot
}

type tickMsg time.Time
