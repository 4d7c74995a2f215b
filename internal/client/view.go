package client

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

func (c *Controller) handleKey(k tea.KeyMsg) tea.Cmd {
	switch k.String() {
	case "ctrl+c", "q":
		c.Teardown()
		return tea.Quit
	case "r":
		return c.Start()
	case " ", "tab":
		c.ToggleDropdown()
	case "up", "k":
		if c.state.DropdownOpen && c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.state.DropdownOpen && c.cursor < len(c.state.Items)-1 {
			c.cursor++
		}
	case "enter":
		if !c.state.DropdownOpen {
			c.ToggleDropdown()
			return nil
		}
		if c.cursor < len(c.state.Items) {
			c.Select(c.state.Items[c.cursor])
		}
	}
	return nil
}

// View implements tea.Model.
func (c *Controller) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Processes"))
	b.WriteString("\n")

	switch {
	case c.state.Loading:
		b.WriteString(mutedStyle.Render("Loading…"))
	case c.state.LastError != "":
		b.WriteString(errorStyle.Render(c.state.LastError))
	case c.loaded && len(c.state.Items) == 0:
		b.WriteString(mutedStyle.Render("You don't own any processes yet."))
	default:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d process(es)", len(c.state.Items))))
	}
	b.WriteString("\n\n")

	if sel := c.state.Selected; sel != nil {
		b.WriteString("Selected: " + selectedStyle.Render(sel.DisplayName))
		b.WriteString(" " + mutedStyle.Render("("+c.previewLabel(sel.ID)+")"))
	} else {
		b.WriteString(mutedStyle.Render("Nothing selected"))
	}
	b.WriteString("\n")

	if c.state.DropdownOpen {
		var rows []string
		for i, it := range c.state.Items {
			marker := "  "
			if i == c.cursor {
				marker = cursorStyle.Render("> ")
			}
			rows = append(rows, fmt.Sprintf("%s%s %s", marker, it.DisplayName, mutedStyle.Render("["+c.previewLabel(it.ID)+"]")))
		}
		if len(rows) == 0 {
			rows = append(rows, mutedStyle.Render("(empty)"))
		}
		b.WriteString(boxStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("space: list  ↑/↓: move  enter: select  r: reload  q: quit"))
	return b.String()
}

func (c *Controller) previewLabel(id string) string {
	e, ok := c.state.PreviewCache[id]
	if !ok {
		return "no preview"
	}
	switch e.Status {
	case PreviewPending:
		return "preview loading"
	case PreviewReady:
		return fmt.Sprintf("%s, %d bytes", e.Image.ContentType, len(e.Image.Data))
	default:
		return "no preview"
	}
}
