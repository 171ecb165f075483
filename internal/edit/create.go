package edit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrProjectRequired = errors.New("project is required")
)

// Creator creates tasks on the server
type Creator interface {
	Create(ctx context.Context, req model.CreateTaskRequest) (model.Task, error)
}

// CreateForm collects a new task. Priority starts at MEDIUM.
type CreateForm struct {
	dir Directory

	Title         string
	Description   string
	ProjectID     string
	AssigneeEmail string
	DueDate       *model.Date
	Priority      model.Priority
}

// NewCreateForm returns an empty form over dir
func NewCreateForm(dir Directory) *CreateForm {
	return &CreateForm{dir: dir, Priority: model.PriorityMedium}
}

// SetProject selects the project and drops an assignee outside it
func (f *CreateForm) SetProject(id string) error {
	if _, ok := f.dir.Project(id); id != "" && !ok && len(f.dir.Projects) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProject, id)
	}
	f.ProjectID = id
	if f.AssigneeEmail != "" && !f.dir.CanAssign(id, f.AssigneeEmail) {
		f.AssigneeEmail = ""
	}
	return nil
}

// SetAssignee sets an eligible assignee; an empty email clears it
func (f *CreateForm) SetAssignee(email string) error {
	e := model.NormalizeEmail(email)
	if e != "" && !f.dir.CanAssign(f.ProjectID, e) {
		return fmt.Errorf("%w: %s", ErrAssigneeNotEligible, e)
	}
	f.AssigneeEmail = e
	return nil
}

// AllowedAssignees returns the emails selectable for the chosen project
func (f *CreateForm) AllowedAssignees() []string {
	return f.dir.AllowedAssignees(f.ProjectID)
}

// Request validates the form and builds the create body
func (f *CreateForm) Request() (model.CreateTaskRequest, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return model.CreateTaskRequest{}, ErrTitleRequired
	}
	if f.ProjectID == "" {
		return model.CreateTaskRequest{}, ErrProjectRequired
	}
	req := model.CreateTaskRequest{
		Title:       title,
		Description: f.Description,
		ProjectID:   f.ProjectID,
		DueDate:     f.DueDate,
		Priority:    f.Priority,
	}
	if f.AssigneeEmail != "" {
		email := f.AssigneeEmail
		req.AssigneeEmail = &email
	}
	return req, nil
}

// Submit creates the task, adds it to the board cache and fetches the list
// again. b may be nil when no board is loaded.
func (f *CreateForm) Submit(ctx context.Context, c Creator, b *board.Board, logger *zap.Logger) (model.Task, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	req, err := f.Request()
	if err != nil {
		return model.Task{}, err
	}

	created, err := c.Create(ctx, req)
	if err != nil {
		logger.Warn("Failed to create task", zap.Error(err))
		if b != nil {
			b.Notifier().Notify(board.Notice{
				Level:   board.LevelError,
				Message: fmt.Sprintf("Could not create task: %s", api.Describe(err)),
			})
		}
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	logger.Info("Task created", zap.String("task_id", created.ID))

	if b != nil {
		b.Cache().Merge(created)
		if _, err := board.Refresh(ctx, b.Cache(), b.Repository()); err != nil {
			logger.Warn("Refresh after create failed", zap.Error(err))
		}
	}
	return created, nil
}
