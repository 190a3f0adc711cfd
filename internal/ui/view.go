package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"indigo/internal/nav"
)

var (
	styleTitle     = lipgloss.NewStyle().Bold(true)
	styleAccent    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleSubcat    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleDim       = lipgloss.NewStyle().Faint(true)
	styleDimItalic = lipgloss.NewStyle().Faint(true).Italic(true)
	styleSelected  = lipgloss.NewStyle().Reverse(true)
	styleDivider   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true)
	styleOverlay   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1)
)

// Fixed chrome: title, divider, status, footer.
const fixedLines = 4

// Column widths; the title column absorbs the rest.
const (
	colDay  = 3
	colDate = 6
	colTime = 5
	colCat  = 20
)

// detailHeight scales the timetable panel between 1 and 10 lines, keeping
// at least 3 lines for the table.
func detailHeight(total int) int {
	available := total - fixedLines
	maxForBottom := available - 3
	if maxForBottom < 1 {
		maxForBottom = 1
	}
	ideal := available / 4
	switch {
	case ideal < 1:
		return 1
	case ideal > 10:
		ideal = 10
	}
	if ideal > maxForBottom {
		return maxForBottom
	}
	return ideal
}

func (m *Model) tableHeight() int {
	h := m.height - fixedLines - detailHeight(m.height)
	if h < 1 {
		h = 1
	}
	return h
}

// ensureVisible scrolls the table window so the cursor stays on screen.
func (m *Model) ensureVisible() {
	h := m.tableHeight()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+h {
		m.scroll = m.cursor - h + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.overlay != overlayNone {
		return m.viewOverlay()
	}

	var b strings.Builder
	b.WriteString(m.viewTitle())
	b.WriteByte('\n')
	b.WriteString(m.viewTable())
	b.WriteString(styleDivider.Render(strings.Repeat("─", m.width)))
	b.WriteByte('\n')
	b.WriteString(m.viewDetail())
	b.WriteString(styleDim.Render(truncate(m.status, m.width)))
	b.WriteByte('\n')
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m *Model) viewTitle() string {
	crumb := "Favorites"
	if m.stack.Current().Mode == nav.ModeCategory {
		crumb += m.breadcrumbTail()
	}
	title := styleTitle.Render("indigo")
	return title + "  " + styleDim.Render(truncate(crumb, m.width-8))
}

func (m *Model) breadcrumbTail() string {
	var b strings.Builder
	for i, f := range m.stackFrames() {
		if i == 0 {
			continue
		}
		b.WriteString(" › ")
		b.WriteString(f.CategoryName)
	}
	return b.String()
}

// stackFrames exposes the frames bottom-up for breadcrumb rendering.
func (m *Model) stackFrames() []nav.Frame {
	frames := make([]nav.Frame, 0, m.stack.Depth())
	for i := 0; i < m.stack.Depth(); i++ {
		frames = append(frames, *m.stack.FrameAt(i))
	}
	return frames
}

func (m *Model) viewTable() string {
	h := m.tableHeight()
	var b strings.Builder

	if m.tableLoading {
		pad := h / 2
		for i := 0; i < pad; i++ {
			b.WriteByte('\n')
		}
		b.WriteString("  " + m.spin.View() + " " + m.loadingLabel + "\n")
		for i := pad + 1; i < h; i++ {
			b.WriteByte('\n')
		}
		return b.String()
	}

	rows := m.rows.rows
	for i := m.scroll; i < m.scroll+h; i++ {
		if i >= 0 && i < len(rows) {
			b.WriteString(m.renderRow(rows[i], i == m.cursor && m.focus == focusTable))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) renderRow(r row, selected bool) string {
	titleW := m.width - (colDay + colDate + colTime + colCat + 8)
	if titleW < 10 {
		titleW = 10
	}

	switch r.kind {
	case rowSeparator:
		return styleDim.Render(strings.Repeat("─", m.width))

	case rowSubcat:
		if selected {
			plain := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %-*s",
				colDay, "", colDate, "",
				colTime, "→",
				titleW, truncate(r.sub.Title, titleW),
				colCat, "subcategory")
			return styleSelected.Render(truncate(plain, m.width))
		}
		return fmt.Sprintf("%-*s  %-*s  %-*s  %s  %s",
			colDay, "", colDate, "",
			colTime, "→",
			styleSubcat.Render(padRight(truncate(r.sub.Title, titleW), titleW)),
			styleDimItalic.Render(padRight("subcategory", colCat)))

	case rowEvent:
		ev := r.event
		day, date := "", ""
		if r.firstOfDay {
			day = ev.Start.Format("Mon")
			date = ev.Start.Format("Jan 02")
		}
		if selected {
			plain := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %-*s",
				colDay, day, colDate, date,
				colTime, ev.Start.Format("15:04"),
				titleW, truncate(ev.Title, titleW),
				colCat, truncate(ev.Category, colCat))
			return styleSelected.Render(truncate(plain, m.width))
		}
		return fmt.Sprintf("%s  %s  %-*s  %s  %s",
			styleDim.Render(padRight(day, colDay)),
			padRight(date, colDate),
			colTime, ev.Start.Format("15:04"),
			styleAccent.Render(padRight(truncate(ev.Title, titleW), titleW)),
			styleDimItalic.Render(padRight(truncate(ev.Category, colCat), colCat)))
	}
	return ""
}

func (m *Model) viewDetail() string {
	h := detailHeight(m.height)
	var b strings.Builder

	switch {
	case m.detailLoading:
		b.WriteString("  " + m.spin.View() + " Loading timetable...\n")
		for i := 1; i < h; i++ {
			b.WriteByte('\n')
		}
	case m.detailEventID == 0:
		b.WriteString(styleDim.Render("  No event selected") + "\n")
		for i := 1; i < h; i++ {
			b.WriteByte('\n')
		}
	case len(m.detailLines) == 0:
		b.WriteString(styleDim.Render("  No contributions") + "\n")
		for i := 1; i < h; i++ {
			b.WriteByte('\n')
		}
	default:
		start := 0
		if len(m.detailLines) > h && m.detailCursor >= h {
			start = m.detailCursor - h + 1
		}
		for i := start; i < start+h; i++ {
			if i < len(m.detailLines) {
				b.WriteString(m.renderDetailLine(m.detailLines[i], i == m.detailCursor && m.focus == focusDetail))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m *Model) renderDetailLine(line detailLine, selected bool) string {
	if line.isDay {
		label := fmt.Sprintf("── %s ──", line.day.Format("Monday Jan 2"))
		return styleDim.Render(truncate("  "+label, m.width))
	}

	c := line.contrib
	var parts []string
	parts = append(parts, c.Start.Format("15:04"))
	parts = append(parts, c.Title)
	if len(c.Speakers) > 0 {
		parts = append(parts, "["+strings.Join(c.Speakers, ", ")+"]")
	}
	if len(c.Attachments) > 0 {
		parts = append(parts, "●")
	}
	plain := "  " + strings.Join(parts, "  ")
	if selected {
		return styleSelected.Render(truncate(plain, m.width))
	}

	out := "  " + lipgloss.NewStyle().Bold(true).Render(c.Start.Format("15:04")) + "  " + styleAccent.Render(c.Title)
	if len(c.Speakers) > 0 {
		out += "  " + styleDimItalic.Render("["+strings.Join(c.Speakers, ", ")+"]")
	}
	if len(c.Attachments) > 0 {
		out += " ●"
	}
	return out
}

func (m *Model) viewFooter() string {
	hints := "← parent  → open  tab panel  / filter  c calendar  u url  bksp back  esc favorites  q quit"
	return styleDim.Render(truncate(hints, m.width))
}

func (m *Model) viewOverlay() string {
	var content string
	switch m.overlay {
	case overlayFilter:
		content = "Filter\n\n" + m.filterInput.View()
	case overlayAttachments, overlayCalendarPick:
		title := "Attachments"
		if m.overlay == overlayCalendarPick {
			title = "Calendar events"
		}
		var b strings.Builder
		b.WriteString(title + "\n\n")
		for i, item := range m.pickerItems {
			switch {
			case item.divider:
				b.WriteString(styleDim.Render("───── "+item.label+" ─────") + "\n")
			case i == m.pickerCursor:
				b.WriteString(styleSelected.Render(truncate(item.label, m.width-8)) + "\n")
			default:
				b.WriteString(truncate(item.label, m.width-8) + "\n")
			}
		}
		content = strings.TrimRight(b.String(), "\n")
	}
	box := styleOverlay.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// -- text helpers -----------------------------------------------------------

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func padRight(s string, w int) string {
	r := []rune(s)
	if len(r) >= w {
		return truncate(s, w)
	}
	return s + strings.Repeat(" ", w-len(r))
}
