package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ivanbrko/panoptes/internal/header"
	"github.com/ivanbrko/panoptes/internal/ui"
	"github.com/ivanbrko/panoptes/internal/vterm"
)

var selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)

// renderFrame is the loop.Renderer closure installed on terminalIO. It
// draws the header line (package header) plus whichever view is
// active; this is the minimal rendering a running binary needs, not the
// layout/border/color system spec.md §1 scopes out of the core.
func (a *App) renderFrame(w, h int) string {
	var b strings.Builder
	b.WriteString(header.Line(a.ui))
	b.WriteString("\r\n")

	switch a.ui.View {
	case ui.ViewProjects:
		a.renderProjects(&b, h-1)
	case ui.ViewBranches:
		a.renderBranches(&b, h-1)
	case ui.ViewSession:
		a.renderSession(&b, w, h-1)
	case ui.ViewHelp:
		a.renderHelp(&b)
	}

	return strings.ReplaceAll(b.String(), "\n", "\r\n")
}

func (a *App) renderProjects(b *strings.Builder, rows int) {
	projects := a.deps.Store.Projects()
	if len(projects) == 0 {
		b.WriteString("No projects yet. (project creation is driven by CLI/config plumbing, out of this core's scope)\n")
		return
	}
	for i, p := range projects {
		if i >= rows {
			break
		}
		line := fmt.Sprintf("%s  (%s)", p.Name, p.RepoPath)
		if i == a.ui.ProjectIndex {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func (a *App) renderBranches(b *strings.Builder, rows int) {
	proj, ok := a.deps.Store.FindProject(a.ui.SelectedProject)
	if !ok {
		b.WriteString("no such project\n")
		return
	}
	b.WriteString(proj.Name)
	b.WriteString("\n")
	branches := a.deps.Store.BranchesForProject(proj.ID)
	for i, br := range branches {
		if i+1 >= rows {
			break
		}
		label := br.Name
		for _, sess := range a.deps.Sessions.SessionsForBranch(br.ID) {
			label += "  " + header.StateLabel(sess.State)
		}
		if i == a.ui.BranchIndex {
			label = selectedStyle.Render(label)
		}
		b.WriteString(label)
		b.WriteString("\n")
	}
}

func (a *App) renderSession(b *strings.Builder, w, rows int) {
	sess, ok := a.deps.Sessions.Get(a.ui.AttachedSession)
	if !ok {
		b.WriteString("session gone\n")
		return
	}
	lines := sess.VTerm().VisibleStyledLines(rows)
	for _, line := range lines {
		for _, span := range line {
			b.WriteString(renderSpan(span))
		}
		b.WriteString("\n")
	}
}

func (a *App) renderHelp(b *strings.Builder) {
	b.WriteString("q quit   i attach/enter   t new session   T new worktree   k kill branch\n")
	b.WriteString("space    jump to next session needing attention\n")
	b.WriteString("Esc      leave session mode / back out a view\n")
}

func renderSpan(span vterm.StyledSpan) string {
	style := lipgloss.NewStyle()
	if fg, ok := lipglossColor(span.Style.FG); ok {
		style = style.Foreground(fg)
	}
	if bg, ok := lipglossColor(span.Style.BG); ok {
		style = style.Background(bg)
	}
	style = style.Bold(span.Style.Bold).
		Italic(span.Style.Italic).
		Underline(span.Style.Underline).
		Reverse(span.Style.Reverse).
		Faint(span.Style.Dim)
	return style.Render(span.Text)
}

func lipglossColor(c vterm.Color) (lipgloss.Color, bool) {
	switch c.Kind {
	case vterm.ColorIndexed:
		return lipgloss.Color(fmt.Sprintf("%d", c.Index)), true
	case vterm.ColorRGB:
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)), true
	default:
		return "", false
	}
}
