package board

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/existflow/taskflow/internal/model"
)

// MockRepository is a testify mock of Repository
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

func task(id string, status model.Status) model.Task {
	return model.Task{ID: id, Title: "Task " + id, Status: status}
}

func loadedCache(tasks ...model.Task) *Cache {
	c := NewCache()
	c.Apply(c.BeginFetch(), tasks)
	return c
}

func statuses(tasks []model.Task) map[string]model.Status {
	out := make(map[string]model.Status, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Status
	}
	return out
}
