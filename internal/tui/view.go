package tui

import (
	"fmt"
	"strings"

	"todolist/internal/client"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.header.Render("TodoList"))
	if m.state.Loading() {
		b.WriteString(m.styles.dim.Render("  loading…"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")
	b.WriteString(m.renderList())

	switch m.mode {
	case modeAdd:
		b.WriteString("\n")
		b.WriteString(m.renderAddForm())
	case modeEdit:
		b.WriteString("\n")
		b.WriteString(m.styles.box.Render("Edit todo\n\n" + m.edit.View()))
	case modeConfirmDelete:
		if m.target != nil {
			b.WriteString("\n")
			b.WriteString(m.styles.box.Render(fmt.Sprintf("Delete %q?\n\n[y] yes   [n] no", m.target.Title)))
		}
	case modeSettings:
		b.WriteString("\n")
		b.WriteString(m.renderSettingsForm())
	}

	b.WriteString("\n\n")
	if m.state.ErrorVisible(m.now()) {
		b.WriteString(m.styles.errorLine.Render(m.state.ErrorMessage()))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.dim.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.dim.Render(renderHelp()))
	b.WriteString("\n")
	b.WriteString(m.styles.dim.Render(fmt.Sprintf("theme: %s • color: %s • font: %s %dpx",
		m.settings.Theme, m.settings.Color, m.settings.Font, m.settings.Size)))
	return b.String()
}

func (m Model) renderFilters() string {
	tabs := make([]string, 0, len(client.Filters))
	for i, f := range client.Filters {
		label := fmt.Sprintf("%d %s", i+1, f)
		if f == m.state.Filter() {
			tabs = append(tabs, m.styles.activeTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderList() string {
	visible := m.state.Visible()
	if len(visible) == 0 {
		return m.styles.dim.Render("No todos found. Press 'a' to add one.") + "\n"
	}

	var b strings.Builder
	for i, t := range visible {
		cursor := "  "
		if i == m.cursor && m.mode == modeList {
			cursor = m.styles.cursor.Render("> ")
		}
		checkbox := "[ ]"
		title := m.styles.text.Render(t.Title)
		if t.Completed {
			checkbox = "[x]"
			title = m.styles.done.Render(t.Title)
		}

		line := fmt.Sprintf("%s%s %s %s", cursor, checkbox, title, m.styles.priority(t.Priority).Render(t.Priority))
		if t.DueDate != nil {
			line += m.styles.dim.Render("  due " + t.DueDate.Format("2006-01-02"))
		}
		b.WriteString(line)
		b.WriteString("\n")
		if t.Description != "" {
			b.WriteString("      ")
			b.WriteString(m.styles.dim.Render(t.Description))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderAddForm() string {
	labels := []string{"Title", "Description", "Priority", "Due"}
	var b strings.Builder
	b.WriteString("New todo\n")
	for i, in := range m.form {
		marker := "  "
		if i == m.focus {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("\n%s%-12s %s", marker, labels[i], in.View()))
	}
	return m.styles.box.Render(b.String())
}

func (m Model) renderSettingsForm() string {
	labels := []string{"Theme", "Color", "Font", "Size"}
	var b strings.Builder
	b.WriteString("Settings\n")
	for i, in := range m.prefsForm {
		marker := "  "
		if i == m.prefsFocus {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("\n%s%-8s %s", marker, labels[i], in.View()))
	}
	return m.styles.box.Render(b.String())
}

func renderHelp() string {
	return "j/k move • a add • space toggle • e edit • d delete • f/1-3 filter • r reload • t theme • s settings • q quit"
}
