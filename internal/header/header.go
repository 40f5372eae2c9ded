// Package header renders the one line of styled text the core is
// responsible for feeding outward: the error/notification strip spec.md
// §7 describes ("an error sets a single string on the UI... a separate
// header notifications queue carries time-limited transient
// messages"). Concrete screen layout, borders, and session-grid
// rendering stay out of scope (spec.md §1); this package owns only
// that one line's styling, grounded in the teacher pack's styles.go
// convention (Harris-A-Khan-drift's internal/cockpit/styles.go,
// zjrosen-perles, fyrsmithlabs-contextd all define a small named-style
// table on top of lipgloss) and statemachine.State.DisplayColor for the
// state-tag color mapping the lipgloss style keys off of.
package header

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ivanbrko/panoptes/internal/statemachine"
	"github.com/ivanbrko/panoptes/internal/ui"
)

var (
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	stateStyles = map[string]lipgloss.Style{
		"blue":    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"cyan":    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"yellow":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"magenta": lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		"gray":    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		"red":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"white":   lipgloss.NewStyle(),
	}
)

// Line renders the single status line for the current UI state: the
// error message if one is set (it wins, per spec.md §7), otherwise every
// pending notification, oldest first, separated by two spaces, otherwise
// empty.
func Line(st *ui.State) string {
	if st.ErrorMessage != "" {
		return errorStyle.Render(st.ErrorMessage)
	}
	if len(st.Notifications) == 0 {
		return ""
	}
	var parts []string
	for _, n := range st.Notifications {
		parts = append(parts, noticeStyle.Render(n.Message))
	}
	return strings.Join(parts, "  ")
}

// StateLabel renders a session state tag with its display color, for
// the per-session label the session list / grid shows next to a name.
func StateLabel(s statemachine.State) string {
	style, ok := stateStyles[s.DisplayColor()]
	if !ok {
		style = stateStyles["white"]
	}
	label := s.Tag.String()
	if s.Tag == statemachine.Executing && s.ToolName != "" {
		label = label + ":" + s.ToolName
	}
	return style.Render(label)
}
