package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles contains reusable lipgloss styles for listings.
var Styles = struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Muted  lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	Muted:  lipgloss.NewStyle().Faint(true),
}

// Title renders s with the title style when colors are enabled.
func Title(s string) string {
	return render(Styles.Title, s)
}

// Muted renders secondary text faint when colors are enabled.
func Muted(s string) string {
	return render(Styles.Muted, s)
}

func render(style lipgloss.Style, s string) string {
	if !IsColorEnabled() {
		return s
	}
	return style.Render(s)
}

// Table renders rows in aligned columns separated by two spaces. Cells may
// already carry ANSI styling; widths are measured on visible characters.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable returns a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// Row appends a row. Missing cells render empty.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders the table with a trailing newline per row.
func (t *Table) String() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	var b strings.Builder
	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = render(Styles.Header, h)
	}
	writeRow(&b, header, widths)
	for _, row := range t.rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	line := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i < len(widths)-1 {
			cell += strings.Repeat(" ", w-lipgloss.Width(cell))
		}
		line[i] = cell
	}
	b.WriteString(strings.TrimRight(strings.Join(line, "  "), " "))
	b.WriteString("\n")
}
