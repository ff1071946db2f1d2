package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// maxShown bounds the completion popup.
const maxShown = 5

// SuggestionItem is one completion offered in the command bar.
type SuggestionItem struct {
	Text        string
	Description string
	Kind        string // "command", "filter", "minion" or "task"
}

var commandSuggestions = []SuggestionItem{
	{Text: "task", Description: "Create a task: task <priority> <executors>", Kind: "command"},
	{Text: "complete", Description: "Complete the selected task", Kind: "command"},
	{Text: "cancel", Description: "Cancel the selected task", Kind: "command"},
	{Text: "minion", Description: "Register a minion: minion <name>", Kind: "command"},
	{Text: "kill", Description: "Kill a minion: kill <minion-id>", Kind: "command"},
	{Text: "enemy", Description: "Report a hostile: enemy <id> <x> <y> <z>", Kind: "command"},
	{Text: "slay", Description: "Report a hostile killed: slay <id>", Kind: "command"},
	{Text: "quit", Description: "Leave the monitor", Kind: "command"},
}

var filterSuggestions = []SuggestionItem{
	{Text: "pending", Description: "Show pending tasks", Kind: "filter"},
	{Text: "active", Description: "Show active tasks", Kind: "filter"},
	{Text: "all", Description: "Show every tracked task", Kind: "filter"},
}

// triggers maps the first character of the input to the popup title.
var triggers = map[byte]string{
	'/': "Commands",
	'!': "Filters",
	'@': "References",
}

// Suggestions completes commands ("/"), filters ("!") and minion or task
// ids ("@") while the operator types.
type Suggestions struct {
	trigger byte
	query   string
	refs    []SuggestionItem
	matches []SuggestionItem
	cursor  int
}

// NewSuggestions creates an empty completer.
func NewSuggestions() *Suggestions {
	return &Suggestions{}
}

// SetReferences replaces the ids offered after "@".
func (s *Suggestions) SetReferences(minions []MinionItem, tasks []TaskItem) {
	s.refs = s.refs[:0]
	for _, m := range minions {
		s.refs = append(s.refs, SuggestionItem{Text: m.ID, Description: m.Name, Kind: "minion"})
	}
	for _, t := range tasks {
		s.refs = append(s.refs, SuggestionItem{Text: t.ID, Description: t.Kind + " " + t.Priority, Kind: "task"})
	}
	if s.trigger == '@' {
		s.match()
	}
}

// Update recomputes the matches for the current input.
func (s *Suggestions) Update(input string) {
	s.trigger, s.query = 0, ""
	if input != "" {
		if _, ok := triggers[input[0]]; ok {
			s.trigger = input[0]
			s.query = strings.ToLower(input[1:])
		}
	}
	s.match()
}

func (s *Suggestions) source() []SuggestionItem {
	switch s.trigger {
	case '/':
		return commandSuggestions
	case '!':
		return filterSuggestions
	case '@':
		return s.refs
	}
	return nil
}

func (s *Suggestions) match() {
	s.matches = s.matches[:0]
	s.cursor = 0
	for _, item := range s.source() {
		if strings.Contains(strings.ToLower(item.Text), s.query) {
			s.matches = append(s.matches, item)
		}
	}
}

// Next moves the cursor down, wrapping at the end.
func (s *Suggestions) Next() { s.move(1) }

// Prev moves the cursor up, wrapping at the top.
func (s *Suggestions) Prev() { s.move(-1) }

func (s *Suggestions) move(step int) {
	if n := len(s.matches); n > 0 {
		s.cursor = (s.cursor + step + n) % n
	}
}

// Selected returns the highlighted completion, or nil when none is shown.
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.IsVisible() {
		return nil
	}
	return &s.matches[s.cursor]
}

// IsVisible reports whether the popup has anything to show.
func (s *Suggestions) IsVisible() bool {
	return s.trigger != 0 && len(s.matches) > 0
}

// Render draws the popup.
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(width - 4)
	hint := lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	lines := []string{headerStyle.Render(triggers[s.trigger])}
	for i, item := range s.matches {
		if i == maxShown {
			lines = append(lines, hint.Render(fmt.Sprintf("  ... and %d more", len(s.matches)-maxShown)))
			break
		}
		if i == s.cursor {
			lines = append(lines, selectedStyle.Render("▶ "+item.Text+" "+item.Description))
			continue
		}
		lines = append(lines, itemStyle.Render("  "+item.Text)+" "+hint.Render(item.Description))
	}
	return box.Render(strings.Join(lines, "\n"))
}
