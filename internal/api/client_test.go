package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/apitest"
	"github.com/existflow/taskflow/internal/model"
)

type fixture struct {
	server *apitest.Server
	client *Client
	tokens *MemoryTokenStore
	alice  model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(zap.NewNop())
	alice := srv.AddUser("alice@example.com", "secret123")
	baseURL := srv.Start(t)

	tokens := NewMemoryTokenStore(srv.Token(alice.Email))
	return &fixture{
		server: srv,
		client: New(Options{BaseURL: baseURL, Tokens: tokens, Logger: zap.NewNop()}),
		tokens: tokens,
		alice:  alice,
	}
}

func TestListSendsBearerToken(t *testing.T) {
	f := newFixture(t)
	f.server.AddTask(model.Task{ID: "t1", Title: "First", Status: model.StatusToDo})

	tasks, err := f.client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "First", tasks[0].Title)

	reqs := f.server.RequestsTo(http.MethodGet, "/api/tasks")
	require.Len(t, reqs, 1)
	token, _ := f.tokens.Token()
	assert.Equal(t, "Bearer "+token, reqs[0].Header.Get("Authorization"))
	assert.NotEmpty(t, reqs[0].Header.Get("X-Request-ID"))
}

func TestUnauthorizedClearsToken(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SetToken("not-a-real-token"))

	_, err := f.client.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, f.client.LoggedIn())
}

func TestUpdateStatusSendsOnlyStatus(t *testing.T) {
	f := newFixture(t)
	f.server.AddTask(model.Task{ID: "t1", Title: "First", Status: model.StatusToDo, Priority: model.PriorityHigh})

	task, err := f.client.UpdateStatus(context.Background(), "t1", model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, task.Status)
	assert.Equal(t, model.PriorityHigh, task.Priority)

	reqs := f.server.RequestsTo(http.MethodPut, "/api/tasks/t1")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"status":"IN_PROGRESS"}`, string(reqs[0].Body))
}

func TestUpdateSendsTouchedKeysOnly(t *testing.T) {
	f := newFixture(t)
	f.server.AddTask(model.Task{
		ID:       "t1",
		Title:    "First",
		Status:   model.StatusToDo,
		Assignee: &model.UserRef{ID: f.alice.ID, Email: f.alice.Email},
	})

	patch := model.TaskPatch{
		Title:         model.Value("Renamed"),
		AssigneeEmail: model.Null[string](),
	}
	task, err := f.client.Update(context.Background(), "t1", patch)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", task.Title)
	assert.Nil(t, task.Assignee)
	assert.Equal(t, model.StatusToDo, task.Status)

	reqs := f.server.RequestsTo(http.MethodPut, "/api/tasks/t1")
	require.Len(t, reqs, 1)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Len(t, body, 2)
	assert.Equal(t, `"Renamed"`, string(body["title"]))
	assert.Equal(t, `null`, string(body["assigneeEmail"]))
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantKind   error
		wantStatus int
	}{
		{"not found", http.StatusNotFound, ErrNotFound, 404},
		{"validation", http.StatusBadRequest, ErrValidation, 400},
		{"forbidden is validation", http.StatusForbidden, ErrValidation, 403},
		{"server", http.StatusInternalServerError, ErrServer, 500},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized, 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.server.AddTask(model.Task{ID: "t1", Status: model.StatusToDo})
			f.server.Fail(http.MethodPut, "/api/tasks/t1", tt.status)

			_, err := f.client.UpdateStatus(context.Background(), "t1", model.StatusDone)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind))

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestValidationMessageFromBody(t *testing.T) {
	f := newFixture(t)
	f.server.AddTask(model.Task{ID: "t1", Status: model.StatusToDo})

	_, err := f.client.UpdateStatus(context.Background(), "t1", model.Status("ARCHIVED"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "invalid status", Describe(err))
}

func TestRemoveMissingTaskIsNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.client.Remove(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNetworkError(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1/api", Tokens: NewMemoryTokenStore("x")})

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, "Cannot reach the TaskFlow server", Describe(err))
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.client.List(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGetFiltersList(t *testing.T) {
	f := newFixture(t)
	f.server.AddTask(model.Task{ID: "t1", Title: "One", Status: model.StatusToDo})
	f.server.AddTask(model.Task{ID: "t2", Title: "Two", Status: model.StatusDone})

	task, err := f.client.Get(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, "Two", task.Title)

	_, err = f.client.Get(context.Background(), "t3")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	p := f.server.AddProject(model.Project{Name: "Apollo", Manager: &model.UserRef{Email: f.alice.Email}})
	assignee := f.alice.Email

	task, err := f.client.Create(context.Background(), model.CreateTaskRequest{
		Title:         "Launch",
		ProjectID:     p.ID,
		AssigneeEmail: &assignee,
		Priority:      model.PriorityMedium,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.StatusToDo, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, "Apollo", task.Project.Name)
	assert.Equal(t, "alice@example.com", task.AssigneeEmail())
}

func TestCommentsAndAttachments(t *testing.T) {
	f := newFixture(t)
	f.server.AddTask(model.Task{ID: "t1", Status: model.StatusToDo})
	ctx := context.Background()

	c1, err := f.client.AddComment(ctx, "t1", "first")
	require.NoError(t, err)
	_, err = f.client.AddComment(ctx, "t1", "second")
	require.NoError(t, err)

	comments, err := f.client.ListComments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, f.alice.Email, comments[0].Author.Email)

	require.NoError(t, f.client.DeleteComment(ctx, "t1", c1.ID))
	comments, err = f.client.ListComments(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	a, err := f.client.UploadAttachment(ctx, "t1", "/tmp/notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", a.FileName)
	assert.Equal(t, "t1", a.TaskID)

	reqs := f.server.RequestsTo(http.MethodPost, "/api/tasks/t1/attachments")
	require.Len(t, reqs, 1)
	assert.True(t, strings.HasPrefix(reqs[0].Header.Get("Content-Type"), "multipart/form-data"))
	assert.Contains(t, string(reqs[0].Body), "hello")

	attachments, err := f.client.ListAttachments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, attachments, 1)

	require.NoError(t, f.client.DeleteAttachment(ctx, "t1", a.ID))
	attachments, err = f.client.ListAttachments(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, attachments)
}
