package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableStyle is the shared look of tables printed by rpint commands.
type TableStyle struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Label  lipgloss.Style
}

// DefaultTableStyle returns the default table styling.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorInfo),
		Cell: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Label: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+2), // header row and its border
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Background(ColorMuted).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table for command output.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := NewTable(columns, tableRows)
	return t.View()
}

// FieldRow is one label/value pair in a field table.
type FieldRow struct {
	Label string
	Value string
}

// Placeholder values rendered muted in field tables.
var placeholders = map[string]bool{"": true, "--": true, "N/A": true}

// RenderFieldTable renders label/value pairs as two aligned columns. Values
// that carry no information are muted.
func RenderFieldTable(title string, rows []FieldRow) string {
	if len(rows) == 0 {
		return "Nothing to display"
	}

	style := DefaultTableStyle()
	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row.Label))
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(style.Header.Render(title) + "\n")
	}
	for _, row := range rows {
		value := row.Value
		if placeholders[value] {
			if value == "" {
				value = "--"
			}
			value = MutedStyle().Render(value)
		} else {
			value = style.Cell.Render(value)
		}
		sb.WriteString("  " + padRight(style.Label.Render(row.Label), width+2) + value + "\n")
	}
	return sb.String()
}

// padRight pads s to width visible cells, ignoring ANSI codes.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
