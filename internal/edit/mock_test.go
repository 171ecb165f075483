package edit

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

// MockRepository is a testify mock of the task repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockRepository) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) Create(ctx context.Context, req model.CreateTaskRequest) (model.Task, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Task), args.Error(1)
}

var testDir = Directory{
	Projects: []model.Project{
		{
			ID:      "p1",
			Name:    "Apollo",
			Manager: &model.UserRef{Email: "mia@example.com"},
			Members: []model.UserRef{{Email: "amy@example.com"}, {Email: "MIA@example.com"}},
		},
		{
			ID:      "p2",
			Name:    "Gemini",
			Manager: &model.UserRef{Email: "bob@example.com"},
			Members: []model.UserRef{{Email: "Amy@example.com"}},
		},
	},
	Users: []model.User{
		{Email: "mia@example.com"},
		{Email: "amy@example.com"},
		{Email: "bob@example.com"},
		{Email: "Zed@example.com"},
	},
}

type fixture struct {
	repo    *MockRepository
	board   *board.Board
	rec     *board.Recorder
	session *Session
}

func newFixture(tasks ...model.Task) *fixture {
	repo := &MockRepository{}
	rec := &board.Recorder{}
	b := board.New(repo, board.Options{Notifier: rec})
	b.Cache().Apply(b.Cache().BeginFetch(), tasks)
	return &fixture{
		repo:    repo,
		board:   b,
		rec:     rec,
		session: NewSession(b, testDir, zap.NewNop()),
	}
}

func docsTask() model.Task {
	due, _ := model.ParseDate("2026-03-01")
	return model.Task{
		ID:          "a",
		Title:       "Write docs",
		Description: "README",
		Status:      model.StatusToDo,
		Priority:    model.PriorityHigh,
		DueDate:     &due,
		Project:     &model.ProjectRef{ID: "p1", Name: "Apollo"},
		Assignee:    &model.UserRef{Email: "mia@example.com"},
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
