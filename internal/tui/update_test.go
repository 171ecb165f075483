package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/apitest"
	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

func newTestModel(t *testing.T, srv *apitest.Server, opts Options) Model {
	t.Helper()
	user := srv.AddUser("amy@example.com", "secret123")
	client := api.New(api.Options{BaseURL: srv.Start(t), Tokens: api.NewMemoryTokenStore(srv.Token(user.Email))})

	opts.RefreshInterval = -1
	opts.BadgeInterval = -1
	m := NewModel(client, opts)
	t.Cleanup(m.Close)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = update(t, m, m.loadCmd()())
	m, _ = update(t, m, m.loadDirectoryCmd()())
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return update(t, m, msg)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = press(t, m, string(r))
	}
	return m
}

// run executes cmd and feeds its message back into the model
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func seed(srv *apitest.Server) {
	srv.AddTask(model.Task{ID: "a", Title: "Write docs", Status: model.StatusToDo, Priority: model.PriorityHigh})
	srv.AddTask(model.Task{ID: "b", Title: "Ship", Status: model.StatusInProgress})
	srv.AddTask(model.Task{ID: "c", Title: "Plan", Status: model.StatusDone, Priority: model.PriorityLow})
}

func TestLoadFillsColumns(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	srv.AddTask(model.Task{ID: "x", Title: "Archived thing", Status: "ARCHIVED"})
	m := newTestModel(t, srv, Options{})

	cols := m.Board().Columns()
	assert.Equal(t, []string{"Write docs"}, titles(cols.ToDo))
	assert.Equal(t, []string{"Ship"}, titles(cols.InProgress))
	assert.Equal(t, []string{"Plan"}, titles(cols.Done))

	view := m.View()
	assert.Contains(t, view, "To Do (1)")
	assert.Contains(t, view, "In Progress (1)")
	assert.Contains(t, view, "Unrecognized status: Archived thing [ARCHIVED]")
}

func TestMoveCardRight(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})

	m, cmd := press(t, m, "L")
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.column)
	assert.IsType(t, board.Pending{}, m.Board().Cache().State("a"))
	assert.Contains(t, m.View(), pendingMarker)

	m = run(t, m, cmd)
	stored, _ := srv.Task("a")
	assert.Equal(t, model.StatusInProgress, stored.Status)
	assert.IsType(t, board.Settled{}, m.Board().Cache().State("a"))
	assert.NotContains(t, m.View(), pendingMarker)
	assert.Equal(t, "Moved to In Progress", m.message)
}

func TestFailedMoveRollsBackWithNotice(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})
	srv.Fail("PUT", "/api/tasks/a", 500)

	m, cmd := press(t, m, ">")
	m = run(t, m, cmd)

	assert.Equal(t, []string{"Write docs"}, titles(m.Board().Columns().ToDo))
	m = run(t, m, m.waitForNotice())
	assert.Equal(t, board.LevelError, m.level)
	assert.Contains(t, m.message, "Could not move task to In Progress")
}

func TestMoveOffTheBoardEdgeIsIgnored(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})

	m, cmd := press(t, m, "H")
	assert.Nil(t, cmd)
	m, _ = press(t, m, "l")
	m, _ = press(t, m, "l")
	assert.Equal(t, 2, m.column)
	_, cmd = press(t, m, "L")
	assert.Nil(t, cmd)
	assert.Empty(t, srv.RequestsTo("PUT", "/api/tasks/c"))
}

func TestSecondMoveWhilePendingIsRejected(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})

	m, first := press(t, m, "L")
	require.NotNil(t, first)
	m, second := press(t, m, "L")
	assert.Nil(t, second)
	assert.Equal(t, "Move already in progress", m.message)

	m = run(t, m, first)
	stored, _ := srv.Task("a")
	assert.Equal(t, model.StatusInProgress, stored.Status)
}

func TestFilterKeys(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})

	m, _ = press(t, m, "s")
	assert.Equal(t, model.StatusToDo, m.Board().Filter().Status)
	assert.Equal(t, 1, m.Board().Columns().Len())

	m, _ = press(t, m, "0")
	assert.False(t, m.Board().Filter().Active())

	m, _ = press(t, m, "r")
	m, _ = press(t, m, "r")
	assert.Equal(t, model.PriorityMedium, m.Board().Filter().Priority)
	assert.Equal(t, 0, m.Board().Columns().Len())

	m, _ = press(t, m, "r")
	assert.Equal(t, []string{"Write docs"}, titles(m.Board().Columns().ToDo))
}

func TestProjectFilterCyclesDirectoryProjects(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	srv.AddProject(model.Project{ID: "p1", Name: "Website"})
	srv.AddProject(model.Project{ID: "p2", Name: "Ops"})
	srv.AddTask(model.Task{ID: "a", Title: "Landing page", Status: model.StatusToDo, Project: &model.ProjectRef{ID: "p1", Name: "Website"}})
	srv.AddTask(model.Task{ID: "b", Title: "Backups", Status: model.StatusToDo, Project: &model.ProjectRef{ID: "p2", Name: "Ops"}})
	m := newTestModel(t, srv, Options{})

	m, _ = press(t, m, "p")
	assert.Equal(t, "p1", m.Board().Filter().ProjectID)
	assert.Equal(t, []string{"Landing page"}, titles(m.Board().Columns().ToDo))

	m, _ = press(t, m, "p")
	assert.Equal(t, "p2", m.Board().Filter().ProjectID)

	m, _ = press(t, m, "p")
	assert.Empty(t, m.Board().Filter().ProjectID)
}

func TestEditModalSavesTouchedFields(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})

	m, _ = press(t, m, "enter")
	require.Equal(t, ModeEdit, m.mode)
	require.NotNil(t, m.session)
	assert.Equal(t, "Write docs", m.input.Value())

	m = typeText(t, m, "!")
	m, _ = press(t, m, "tab")
	assert.Equal(t, fieldStatus, m.field)
	m, _ = press(t, m, "l")
	assert.Equal(t, model.StatusInProgress, m.session.Draft().Status)
	assert.Contains(t, m.View(), "Edit Task *")

	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, ModeNormal, m.mode)
	assert.Nil(t, m.session)
	stored, _ := srv.Task("a")
	assert.Equal(t, "Write docs!", stored.Title)
	assert.Equal(t, model.StatusInProgress, stored.Status)
	assert.Equal(t, model.PriorityHigh, stored.Priority)
	assert.Equal(t, []string{"Write docs!", "Ship"}, titles(m.Board().Columns().InProgress))
}

func TestEditEscapeSendsNothing(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})

	m, _ = press(t, m, "enter")
	m = typeText(t, m, "zzz")
	m, _ = press(t, m, "esc")

	assert.Equal(t, ModeNormal, m.mode)
	assert.Nil(t, m.session)
	assert.Empty(t, srv.RequestsTo("PUT", "/api/tasks/a"))
	assert.Equal(t, []string{"Write docs"}, titles(m.Board().Columns().ToDo))
}

func TestFailedSaveKeepsModalOpen(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})
	srv.Fail("PUT", "/api/tasks/a", 500)

	m, _ = press(t, m, "enter")
	m = typeText(t, m, "?")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, ModeEdit, m.mode)
	assert.True(t, m.session.Dirty())
	m = run(t, m, m.waitForNotice())
	assert.Contains(t, m.message, "Could not save task")
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{ConfirmDelete: true})

	m, cmd := press(t, m, "d")
	assert.Nil(t, cmd)
	require.Equal(t, ModeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), `Delete task "Write docs"?`)

	m, cmd = press(t, m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, srv.RequestsTo("DELETE", "/api/tasks/a"))

	m, _ = press(t, m, "d")
	m, cmd = press(t, m, "y")
	m = run(t, m, cmd)

	_, ok := srv.Task("a")
	assert.False(t, ok)
	assert.Empty(t, m.Board().Columns().ToDo)
	assert.Equal(t, "Deleted: Write docs", m.message)
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{ConfirmDelete: false})

	m, cmd := press(t, m, "d")
	m = run(t, m, cmd)

	_, ok := srv.Task("a")
	assert.False(t, ok)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestAddTaskGoesToFilterProject(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	srv.AddProject(model.Project{ID: "p1", Name: "Website"})
	srv.AddProject(model.Project{ID: "p2", Name: "Ops"})
	m := newTestModel(t, srv, Options{Filter: model.Filter{ProjectID: "p2"}})

	m, _ = press(t, m, "n")
	require.Equal(t, ModeAddTask, m.mode)
	assert.Contains(t, m.View(), "Ops")

	m = typeText(t, m, "Rotate keys")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, ModeNormal, m.mode)
	todo := m.Board().Columns().ToDo
	require.Len(t, todo, 1)
	assert.Equal(t, "Rotate keys", todo[0].Title)
	assert.Equal(t, "p2", todo[0].ProjectID())
	assert.Equal(t, model.PriorityMedium, todo[0].Priority)
}

func TestAddTaskWithoutTitleWarns(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	srv.AddProject(model.Project{ID: "p1", Name: "Website"})
	m := newTestModel(t, srv, Options{})

	m, _ = press(t, m, "n")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, ModeAddTask, m.mode)
	assert.Equal(t, "title is required", m.message)
	assert.Empty(t, srv.RequestsTo("POST", "/api/tasks"))
}

func TestRefreshFailureKeepsBoard(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	seed(srv)
	m := newTestModel(t, srv, Options{})
	srv.Fail("GET", "/api/tasks", 503)

	m, cmd := press(t, m, "R")
	m = run(t, m, cmd)
	assert.Equal(t, 3, m.Board().Columns().Len())

	m = run(t, m, m.waitForNotice())
	assert.Equal(t, board.LevelError, m.level)
	assert.Contains(t, m.message, "Could not load tasks")
}

func TestHelpAndQuit(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	m := newTestModel(t, srv, Options{})

	m, _ = press(t, m, "?")
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m, _ = press(t, m, "x")
	assert.Equal(t, ModeNormal, m.mode)

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCloseReleasesNoticeListener(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	m := newTestModel(t, srv, Options{})

	got := make(chan tea.Msg, 1)
	wait := m.waitForNotice()
	go func() { got <- wait() }()

	m.Close()
	m.Close()

	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("notice listener still blocked after Close")
	}
}
