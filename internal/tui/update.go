package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/edit"
	"github.com/existflow/taskflow/internal/model"
)

// tickMsg is sent every second so background refreshes show up
type tickMsg time.Time

// noticeMsg carries a board notice to the status bar
type noticeMsg board.Notice

type loadedMsg struct{ err error }

type directoryMsg struct {
	dir edit.Directory
	err error
}

type moveSettledMsg struct {
	move *board.Move
	err  error
}

type savedMsg struct {
	session *edit.Session
	task    model.Task
	err     error
}

type createdMsg struct {
	form *edit.CreateForm
	task model.Task
	err  error
}

type deletedMsg struct {
	task    model.Task
	deleted bool
	err     error
}

// Init loads the board and starts the background jobs
func (m Model) Init() tea.Cmd {
	if m.poller != nil {
		m.poller.Start()
	}
	return tea.Batch(tickCmd(), m.loadCmd(), m.loadDirectoryCmd(), m.waitForNotice())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForNotice listens for notices raised by the board and the poller
// until the model is closed
func (m Model) waitForNotice() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-m.notices:
			return noticeMsg(n)
		case <-m.done:
			return nil
		}
	}
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		return loadedMsg{err: m.board.Load(ctx)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		return loadedMsg{err: m.board.Refresh(ctx)}
	}
}

func (m Model) loadDirectoryCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		dir, err := edit.LoadDirectory(ctx, m.backend)
		return directoryMsg{dir: dir, err: err}
	}
}

func (m Model) settleCmd(mv *board.Move) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		return moveSettledMsg{move: mv, err: mv.Settle(ctx)}
	}
}

func (m Model) saveCmd(s *edit.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		t, err := s.Submit(ctx)
		return savedMsg{session: s, task: t, err: err}
	}
}

func (m Model) createCmd(f *edit.CreateForm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		t, err := f.Submit(ctx, m.backend, m.board, m.logger)
		return createdMsg{form: f, task: t, err: err}
	}
}

func (m Model) deleteCmd(t model.Task) tea.Cmd {
	s := edit.NewSession(m.board, m.dir, m.logger)
	s.Reset(t)
	return func() tea.Msg {
		defer s.Close()
		ctx, cancel := m.requestContext()
		defer cancel()
		// the user already answered the prompt in the UI
		ok, err := s.Delete(ctx, edit.ConfirmFunc(func(string) bool { return true }))
		return deletedMsg{task: t, deleted: ok, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.clampRows()
		return m, tickCmd()

	case noticeMsg:
		m.setMessage(msg.Level, msg.Message)
		return m, m.waitForNotice()

	case loadedMsg:
		m.loading = false
		m.clampRows()
		if msg.err == nil {
			m.logger.Debug("Board loaded", zap.Int("tasks", m.board.Cache().Len()))
		}
		return m, nil

	case directoryMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load directory", zap.Error(msg.err))
			m.setMessage(board.LevelWarn, fmt.Sprintf("Could not load projects: %s", api.Describe(msg.err)))
			return m, nil
		}
		m.dir = msg.dir
		if m.session != nil {
			m.session.SetDirectory(m.dir)
		}
		return m, nil

	case moveSettledMsg:
		m.clampRows()
		if msg.err == nil {
			m.setMessage(board.LevelInfo, fmt.Sprintf("Moved to %s", msg.move.To.Label()))
		}
		return m, nil

	case savedMsg:
		m.clampRows()
		if msg.err != nil {
			// the failure notice is already on its way; keep the modal open
			return m, nil
		}
		if m.session == msg.session {
			m.closeModal()
		}
		m.setMessage(board.LevelInfo, fmt.Sprintf("Saved: %s", msg.task.Title))
		return m, nil

	case createdMsg:
		if msg.err != nil {
			if errors.Is(msg.err, edit.ErrTitleRequired) || errors.Is(msg.err, edit.ErrProjectRequired) {
				m.setMessage(board.LevelWarn, msg.err.Error())
			}
			return m, nil
		}
		if m.create == msg.form {
			m.closeModal()
		}
		m.clampRows()
		m.setMessage(board.LevelInfo, fmt.Sprintf("Added: %s", msg.task.Title))
		return m, nil

	case deletedMsg:
		m.clampRows()
		if msg.deleted {
			m.setMessage(board.LevelInfo, fmt.Sprintf("Deleted: %s", msg.task.Title))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeEdit:
			return m.updateEdit(msg)
		case ModeAddTask:
			return m.updateAdd(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		if m.column > 0 {
			m.column--
		}

	case key.Matches(msg, keys.Right):
		if m.column < len(model.Statuses)-1 {
			m.column++
		}

	case key.Matches(msg, keys.Up):
		if m.rows[m.column] > 0 {
			m.rows[m.column]--
		}

	case key.Matches(msg, keys.Down):
		n := len(m.board.Columns().Bucket(model.Statuses[m.column]))
		if m.rows[m.column] < n-1 {
			m.rows[m.column]++
		}

	case key.Matches(msg, keys.MoveLeft):
		return m.moveSelected(-1)

	case key.Matches(msg, keys.MoveRight):
		return m.moveSelected(1)

	case key.Matches(msg, keys.Enter):
		return m.startEdit()

	case key.Matches(msg, keys.Add):
		return m.startAdd()

	case key.Matches(msg, keys.Delete):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !m.opts.ConfirmDelete {
			return m, m.deleteCmd(t)
		}
		m.deleting = &t
		m.mode = ModeConfirmDelete

	case key.Matches(msg, keys.FilterProject):
		f := m.board.Filter()
		ids := []string{""}
		for _, p := range board.FilterOptions(m.board.Cache().Snapshot(), m.dir.Projects).Projects {
			ids = append(ids, p.ID)
		}
		f.ProjectID = cycle(ids, f.ProjectID, 1)
		m.applyFilter(f)

	case key.Matches(msg, keys.FilterStatus):
		f := m.board.Filter()
		f.Status = cycle(statusChoices, f.Status, 1)
		m.applyFilter(f)

	case key.Matches(msg, keys.FilterAssignee):
		f := m.board.Filter()
		emails := append([]string{""}, board.FilterOptions(m.board.Cache().Snapshot(), nil).Assignees...)
		f.AssigneeEmail = cycle(emails, f.AssigneeEmail, 1)
		m.applyFilter(f)

	case key.Matches(msg, keys.FilterPriority):
		f := m.board.Filter()
		f.Priority = cycle(priorityChoices, f.Priority, 1)
		m.applyFilter(f)

	case key.Matches(msg, keys.ResetFilters):
		m.applyFilter(model.Filter{})

	case key.Matches(msg, keys.Refresh):
		m.setMessage(board.LevelInfo, "Refreshing...")
		return m, m.refreshCmd()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) applyFilter(f model.Filter) {
	m.board.SetFilter(f)
	m.clampRows()
	m.setMessage(board.LevelInfo, fmt.Sprintf("Showing %s", m.board.Filter()))
}

// moveSelected drops the selected card on the adjacent column
func (m Model) moveSelected(step int) (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	target := m.column + step
	if target < 0 || target >= len(model.Statuses) {
		return m, nil
	}

	mv, err := m.board.Start(board.DragEnd{TaskID: t.ID, OverID: string(model.Statuses[target])})
	switch {
	case errors.Is(err, board.ErrMoveInFlight):
		m.setMessage(board.LevelWarn, "Move already in progress")
		return m, nil
	case errors.Is(err, board.ErrRemoveInFlight):
		m.setMessage(board.LevelWarn, "Task is being deleted")
		return m, nil
	case err != nil:
		m.setMessage(board.LevelError, err.Error())
		return m, nil
	case mv == nil:
		return m, nil
	}

	// follow the card
	m.column = target
	for i, c := range m.board.Columns().Bucket(mv.To) {
		if c.ID == t.ID {
			m.rows[target] = i
		}
	}
	m.clampRows()
	return m, m.settleCmd(mv)
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.session = edit.NewSession(m.board, m.dir, m.logger)
	m.session.Reset(t)
	m.mode = ModeEdit
	m.field = fieldTitle
	m.input.SetValue(t.Title)
	m.input.Placeholder = "Task title..."
	m.input.Focus()
	m.input.CursorEnd()
	return m, textinput.Blink
}

func (m Model) startAdd() (tea.Model, tea.Cmd) {
	m.create = edit.NewCreateForm(m.dir)
	projectID := m.board.Filter().ProjectID
	if projectID == "" && len(m.dir.Projects) > 0 {
		projectID = m.dir.Projects[0].ID
	}
	if err := m.create.SetProject(projectID); err != nil {
		m.logger.Debug("Filter project not in directory", zap.String("project_id", projectID))
	}
	m.mode = ModeAddTask
	m.input.SetValue("")
	m.input.Placeholder = "New task title..."
	m.input.Focus()
	return m, textinput.Blink
}

func (m *Model) closeModal() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	m.create = nil
	m.deleting = nil
	m.input.Blur()
	m.mode = ModeNormal
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.closeModal()
		return m, nil

	case key.Matches(msg, keys.Enter):
		m.session.SetTitle(m.input.Value())
		return m, m.saveCmd(m.session)

	case key.Matches(msg, keys.Tab):
		m.focusField((m.field + 1) % fieldCount)
		return m, nil

	case key.Matches(msg, keys.ShiftTab):
		m.focusField((m.field + fieldCount - 1) % fieldCount)
		return m, nil
	}

	if m.field == fieldTitle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.session.SetTitle(m.input.Value())
		return m, cmd
	}

	switch msg.String() {
	case "left", "h":
		m.cycleField(-1)
	case "right", "l", " ":
		m.cycleField(1)
	}
	return m, nil
}

func (m *Model) focusField(f editField) {
	m.field = f
	if f == fieldTitle {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// cycleField steps the focused choice field of the edit modal
func (m *Model) cycleField(step int) {
	d := m.session.Draft()
	switch m.field {
	case fieldStatus:
		_ = m.session.SetStatus(cycle(model.Statuses, d.Status, step))
	case fieldPriority:
		m.session.SetPriority(cycle(priorityChoices, d.Priority, step))
	case fieldAssignee:
		next := cycle(append([]string{""}, m.session.AllowedAssignees()...), d.AssigneeEmail, step)
		if next == "" {
			m.session.ClearAssignee()
		} else if err := m.session.SetAssignee(next); err != nil {
			m.setMessage(board.LevelWarn, err.Error())
		}
	case fieldProject:
		ids := []string{""}
		for _, p := range m.dir.Projects {
			ids = append(ids, p.ID)
		}
		next := cycle(ids, d.ProjectID, step)
		if next == "" {
			m.session.ClearProject()
		} else if err := m.session.SetProject(next); err != nil {
			m.setMessage(board.LevelWarn, err.Error())
		}
	}
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.closeModal()
		return m, nil

	case key.Matches(msg, keys.Enter):
		m.create.Title = m.input.Value()
		return m, m.createCmd(m.create)

	case msg.String() == "tab":
		ids := make([]string, 0, len(m.dir.Projects))
		for _, p := range m.dir.Projects {
			ids = append(ids, p.ID)
		}
		_ = m.create.SetProject(cycle(ids, m.create.ProjectID, 1))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Yes):
		t := *m.deleting
		m.closeModal()
		return m, m.deleteCmd(t)
	case key.Matches(msg, keys.No), key.Matches(msg, keys.Quit):
		m.closeModal()
	}
	return m, nil
}
