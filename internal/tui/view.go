package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

// pendingMarker flags a card whose move is waiting for the server
const pendingMarker = "⟳"

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var main string
	switch m.mode {
	case ModeHelp:
		main = m.renderHelp()
	case ModeEdit, ModeAddTask, ModeConfirmDelete:
		main = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			m.renderModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	default:
		main = m.renderBoard()
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderBoard() string {
	cols := m.board.Columns()
	header := HeaderStyle.Render("TaskFlow") + HelpStyle.Render("  "+m.board.Filter().String())
	if m.loading {
		header += HelpStyle.Render("  loading...")
	}

	colWidth := (m.width - 2) / len(model.Statuses)
	if colWidth < 20 {
		colWidth = 20
	}
	height := m.height - 5

	rendered := make([]string, 0, len(model.Statuses))
	for i, st := range model.Statuses {
		rendered = append(rendered, m.renderColumn(i, st, cols.Bucket(st), colWidth, height))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	out := header + "\n" + body
	if len(cols.Unrecognized) > 0 {
		names := make([]string, 0, len(cols.Unrecognized))
		for _, t := range cols.Unrecognized {
			names = append(names, fmt.Sprintf("%s [%s]", truncate(t.Title, 30), t.Status))
		}
		out += "\n" + HelpStyle.Render("  Unrecognized status: "+strings.Join(names, ", "))
	}
	return out
}

func (m Model) renderColumn(idx int, st model.Status, tasks []model.Task, width, height int) string {
	focused := idx == m.column
	var s strings.Builder
	s.WriteString(ColumnTitleStyle.Render(fmt.Sprintf("%s (%d)", st.Label(), len(tasks))))
	s.WriteString("\n\n")

	if len(tasks) == 0 {
		s.WriteString(HelpStyle.Render("No tasks"))
	}

	inner := width - 6
	now := time.Now()
	for i, t := range tasks {
		selected := focused && i == clamp(m.rows[idx], len(tasks))
		s.WriteString(m.renderCard(t, selected, inner, now))
		s.WriteString("\n")
	}

	style := ColumnStyle
	if focused {
		style = ColumnFocusedStyle
	}
	return style.Width(width - 2).Height(height).Render(s.String())
}

func (m Model) renderCard(t model.Task, selected bool, width int, now time.Time) string {
	style := CardStyle
	cursor := "  "
	if selected {
		style = CardSelectedStyle
		cursor = "❯ "
	}
	if t.Status == model.StatusDone {
		style = CardDoneStyle
	}

	marker := ""
	if _, ok := m.board.Cache().State(t.ID).(board.Pending); ok {
		marker = PendingStyle.Render(pendingMarker + " ")
	}

	line := cursor + marker + style.Render(truncate(t.Title, width-8))
	if p := FormatPriority(model.NormalizePriority(t.Priority)); p != "" {
		line += " " + p
	}

	var meta []string
	if email := t.AssigneeEmail(); email != "" {
		meta = append(meta, "@"+truncate(email, width-6))
	}
	if t.DueDate != nil {
		due := t.DueDate.String()
		if t.IsOverdue(now) {
			due = OverdueStyle.Render(due + " overdue")
		}
		meta = append(meta, due)
	}
	if len(meta) > 0 {
		line += "\n    " + HelpStyle.Render(strings.Join(meta, "  "))
	}
	return line
}

func (m Model) renderStatusBar() string {
	help := "h/l:column  j/k:card  H/L:move  enter:edit  n:new  d:del  p/s/a/r:filter  0:reset  R:refresh  ?:help  q:quit"
	if m.message != "" {
		help = NoticeStyle(m.level).Render(m.message)
	}
	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderModal() string {
	switch m.mode {
	case ModeConfirmDelete:
		title := ""
		if m.deleting != nil {
			title = m.deleting.Title
		}
		content := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Delete task %q?", title)) + "\n\n"
		content += HelpStyle.Render("y:delete  n:cancel")
		return ModalStyle.Render(content)

	case ModeAddTask:
		project := "(none)"
		if m.create != nil && m.create.ProjectID != "" {
			project = m.projectName(m.create.ProjectID)
		}
		content := lipgloss.NewStyle().Bold(true).Render("New Task") + "\n\n"
		content += m.input.View() + "\n\n"
		content += LabelStyle.Render("Project") + project + "\n\n"
		content += HelpStyle.Render("Enter:save  Tab:project  Esc:cancel")
		return ModalStyle.Render(content)
	}

	if m.session == nil {
		return ""
	}
	d := m.session.Draft()
	assignee := d.AssigneeEmail
	if assignee == "" {
		assignee = "(unassigned)"
	}
	project := "(none)"
	if d.ProjectID != "" {
		project = m.projectName(d.ProjectID)
	}
	priority := d.Priority.String()

	rows := []struct {
		field editField
		label string
		value string
	}{
		{fieldTitle, "Title", m.input.View()},
		{fieldStatus, "Status", d.Status.Label()},
		{fieldPriority, "Priority", priority},
		{fieldAssignee, "Assignee", assignee},
		{fieldProject, "Project", project},
	}

	title := "Edit Task"
	if m.session.Dirty() {
		title += " *"
	}
	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	for _, r := range rows {
		label := LabelStyle
		value := r.value
		if r.field == m.field {
			label = LabelFocusedStyle
			if r.field != fieldTitle {
				value = "◀ " + value + " ▶"
			}
		}
		content += label.Render(r.label) + value + "\n"
	}
	content += "\n" + HelpStyle.Render("Tab:next field  ←/→:change  Enter:save  Esc:cancel")
	return ModalStyle.Width(64).Render(content)
}

func (m Model) projectName(id string) string {
	if p, ok := m.dir.Project(id); ok {
		return p.Name
	}
	return id
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ────────╮
│                               │
│  Navigation                   │
│  ──────────                   │
│  h/l      Focus column        │
│  j/k      Select card         │
│                               │
│  Actions                      │
│  ───────                      │
│  H/L <>   Move card           │
│  enter    Edit task           │
│  n        New task            │
│  d        Delete task         │
│  R        Refresh             │
│                               │
│  Filters                      │
│  ───────                      │
│  p        Cycle project       │
│  s        Cycle status        │
│  a        Cycle assignee      │
│  r        Cycle priority      │
│  0        Reset filters       │
│                               │
│  ?        Toggle help         │
│  q        Quit                │
│                               │
╰───────────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
