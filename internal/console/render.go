package console

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"tourdesk/internal/admin"
	"tourdesk/internal/dispatch"
	"tourdesk/internal/store"
	sorting "tourdesk/internal/table"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	selectStyle  = cellStyle.Foreground(lipgloss.Color("212"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func levelStyle(l dispatch.Level) (lipgloss.Style, string) {
	switch l {
	case dispatch.LevelSuccess:
		return successStyle, "✔"
	case dispatch.LevelWarning:
		return warnStyle, "!"
	case dispatch.LevelError:
		return errorStyle, "✘"
	default:
		return infoStyle, "•"
	}
}

// Notify implements dispatch.Notifier as a one-line toast
func (c *Console) Notify(n dispatch.Notification) {
	style, mark := levelStyle(n.Level)
	line := style.Render(mark + " " + n.Title)
	if n.Message != "" {
		line += " " + hintStyle.Render(n.Message)
	}
	if n.Level == dispatch.LevelError {
		c.mu.Lock()
		c.reported = true
		c.mu.Unlock()
	}
	c.printf("%s\n", line)
}

func sortMark(d sorting.Direction) string {
	switch d {
	case sorting.Asc:
		return " ▲"
	case sorting.Desc:
		return " ▼"
	}
	return ""
}

// renderFrame draws one screen frame: title, table, expanded details, footer
func renderFrame(f admin.Rendered, columns []string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.Title))
	b.WriteString("\n")

	switch {
	case f.Status == store.StatusAbsent:
		b.WriteString(hintStyle.Render("Not loaded yet. Type refresh."))
		return b.String()
	case f.Status == store.StatusLoading && len(f.Rows) == 0:
		b.WriteString(hintStyle.Render("Loading…"))
		return b.String()
	case f.Status == store.StatusError && len(f.Rows) == 0:
		b.WriteString(errorStyle.Render("Could not load: " + dispatch.Describe(f.Err)))
		return b.String()
	}

	headers := make([]string, 0, len(f.Headers)+1)
	headers = append(headers, selectBox(f.AllSelected))
	for i, h := range f.Headers {
		if i < len(columns) && columns[i] == f.Sort.Column {
			h += sortMark(f.Sort.Direction)
		}
		headers = append(headers, h)
	}

	rows := make([][]string, 0, len(f.Rows))
	for _, r := range f.Rows {
		rows = append(rows, append([]string{selectBox(r.Selected)}, r.Cells...))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(f.Rows) && f.Rows[row].Selected {
				return selectStyle
			}
			return cellStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(f.Rows) == 0 {
		b.WriteString(hintStyle.Render("No records."))
		b.WriteString("\n")
	}
	for _, r := range f.Rows {
		if !r.Expanded {
			continue
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("▸ #%d", r.ID)))
		b.WriteString("\n")
		if len(r.Detail) == 0 {
			b.WriteString(hintStyle.Render("    nothing more to show"))
			b.WriteString("\n")
		}
		for _, line := range r.Detail {
			b.WriteString("    " + line + "\n")
		}
	}

	b.WriteString(hintStyle.Render(footer(f)))
	if f.Status == store.StatusError {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Showing the last good list: " + dispatch.Describe(f.Err)))
	}
	return b.String()
}

func selectBox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func footer(f admin.Rendered) string {
	parts := []string{}
	if f.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("page %d/%d", f.PageIndex+1, f.PageCount))
	}
	parts = append(parts, fmt.Sprintf("%d total", f.Total))
	if f.Sort.Column != "" && f.Sort.Direction != sorting.None {
		parts = append(parts, fmt.Sprintf("sorted by %s %s", f.Sort.Column, f.Sort.Direction))
	}
	if f.ServerPaged {
		parts = append(parts, "server paged")
	}
	if f.FetchedAt != "" {
		parts = append(parts, "fetched "+f.FetchedAt)
	}
	if f.Status == store.StatusLoading {
		parts = append(parts, "refreshing…")
	}
	return strings.Join(parts, " · ")
}
