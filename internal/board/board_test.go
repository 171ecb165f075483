package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/apitest"
	"github.com/existflow/taskflow/internal/model"
)

func TestBoardRefreshFailureKeepsPreviousList(t *testing.T) {
	repo := &MockRepository{}
	repo.On("List", mock.Anything).Return([]model.Task{task("a", model.StatusToDo)}, nil).Once()
	repo.On("List", mock.Anything).Return(nil, &api.Error{Kind: api.ErrNetwork, Message: "offline"}).Once()

	rec := &Recorder{}
	b := New(repo, Options{Notifier: rec})

	require.NoError(t, b.Load(context.Background()))
	err := b.Refresh(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"a"}, ids(b.Columns().ToDo))
	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelError, notices[0].Level)
	assert.Contains(t, notices[0].Message, "Could not load tasks")
}

func TestBoardFilter(t *testing.T) {
	repo := &MockRepository{}
	repo.On("List", mock.Anything).Return([]model.Task{
		{ID: "a", Status: model.StatusToDo, Assignee: &model.UserRef{Email: "amy@example.com"}},
		{ID: "b", Status: model.StatusToDo},
	}, nil)

	b := New(repo, Options{})
	require.NoError(t, b.Load(context.Background()))

	b.SetFilter(model.Filter{AssigneeEmail: " AMY@example.com"})
	assert.Equal(t, "amy@example.com", b.Filter().AssigneeEmail)
	assert.Equal(t, []string{"a"}, ids(b.Columns().ToDo))

	b.SetFilter(model.Filter{})
	assert.Equal(t, []string{"a", "b"}, ids(b.Columns().ToDo))
}

func TestBoardCloseStopsLateWrites(t *testing.T) {
	repo := &MockRepository{}
	repo.On("List", mock.Anything).Return([]model.Task{task("a", model.StatusToDo)}, nil)
	rec := &Recorder{}
	b := New(repo, Options{Notifier: rec})

	b.Close()
	require.NoError(t, b.Refresh(context.Background()))
	assert.Zero(t, b.Columns().Len())
}

func TestBoardAgainstFakeAPI(t *testing.T) {
	srv := apitest.New(zap.NewNop())
	user := srv.AddUser("amy@example.com", "secret123")
	srv.AddTask(model.Task{ID: "a", Title: "Write docs", Status: model.StatusToDo})
	srv.AddTask(model.Task{ID: "b", Title: "Ship", Status: model.StatusInProgress})
	client := api.New(api.Options{BaseURL: srv.Start(t), Tokens: api.NewMemoryTokenStore(srv.Token(user.Email))})

	rec := &Recorder{}
	b := New(client, Options{Notifier: rec})
	ctx := context.Background()
	require.NoError(t, b.Load(ctx))

	require.NoError(t, b.Move(ctx, DragEnd{TaskID: "a", OverID: "b"}))
	stored, _ := srv.Task("a")
	assert.Equal(t, model.StatusInProgress, stored.Status)
	assert.Equal(t, []string{"a", "b"}, ids(b.Columns().InProgress))

	srv.Fail("PUT", "/api/tasks/b", 500)
	err := b.Move(ctx, DragEnd{TaskID: "b", OverID: "DONE"})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrServer)
	assert.Equal(t, []string{"a", "b"}, ids(b.Columns().InProgress))
	assert.Empty(t, b.Columns().Done)
	assert.Equal(t, 1, rec.Count(LevelError))

	// self-drop sends nothing
	before := len(srv.Requests())
	require.NoError(t, b.Move(ctx, DragEnd{TaskID: "a", OverID: "IN_PROGRESS"}))
	assert.Len(t, srv.Requests(), before)
}
