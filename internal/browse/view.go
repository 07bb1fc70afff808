package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	searchStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	priceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	labelStyle    = lipgloss.NewStyle().Width(13)
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Product catalog"))
	b.WriteString("\n")

	switch m.mode {
	case modeEdit:
		b.WriteString(m.viewForm())
	case modeConfirmDelete:
		b.WriteString(m.viewList())
		if m.pendingDel != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %q? (y/n)", m.pendingDel.Name)))
			b.WriteString("\n")
		}
	default:
		b.WriteString(m.viewList())
	}

	if m.notice.Text != "" {
		style := okStyle
		if m.notice.Error {
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.notice.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(searchStyle.Render("Search: " + m.query + "▌"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("Loading..."))
		b.WriteString("\n")
		return b.String()
	case m.refreshing:
		b.WriteString(dimStyle.Render("Refreshing..."))
		b.WriteString("\n")
	}

	n := len(m.products)
	suffix := "s"
	if n == 1 {
		suffix = ""
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d product%s", n, suffix)))
	b.WriteString("\n\n")

	if n == 0 {
		b.WriteString(dimStyle.Render("No products. Press ctrl+r to refresh."))
		b.WriteString("\n")
	}
	for i, p := range m.products {
		marker := "  "
		name := p.Name
		if i == m.cursor {
			marker = "> "
			name = selectedStyle.Render(name)
		}
		line := fmt.Sprintf("%s%s  %s", marker, name, priceStyle.Render(fmt.Sprintf("%.2f", p.Price.Float64())))
		if p.Description != "" {
			line += "  " + dimStyle.Render(p.Description)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("type to search • ↑/↓ move • ctrl+e edit • ctrl+d delete • ctrl+r refresh • esc quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewForm() string {
	fields := []struct {
		label string
		value string
	}{
		{"Name *", m.form.Name},
		{"Price *", m.form.Price},
		{"Description", m.form.Description},
	}

	var b strings.Builder
	b.WriteString("Edit product\n\n")
	for i, f := range fields {
		value := f.value
		label := labelStyle.Render(f.label)
		if i == m.focus {
			value += "▌"
			label = selectedStyle.Render(labelStyle.Render(f.label))
		}
		b.WriteString(label + value + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("tab next field • enter save • esc cancel"))
	b.WriteString("\n")
	return b.String()
}
