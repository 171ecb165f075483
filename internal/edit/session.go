package edit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

var (
	ErrAssigneeNotEligible = errors.New("assignee is not a member of the selected project")
	ErrUnknownProject      = errors.New("unknown project")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrNoTask              = errors.New("no task is open")
	ErrClosed              = errors.New("edit session is closed")
)

// Confirmer asks the user to confirm a destructive action
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Draft is the editable copy of a task's fields
type Draft struct {
	Title         string
	Description   string
	Status        model.Status
	Priority      model.Priority
	DueDate       *model.Date
	AssigneeEmail string
	ProjectID     string
}

func draftOf(t model.Task) Draft {
	d := Draft{
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		AssigneeEmail: t.AssigneeEmail(),
		ProjectID:     t.ProjectID(),
	}
	if t.DueDate != nil {
		due := *t.DueDate
		d.DueDate = &due
	}
	return d
}

type field uint8

const (
	fieldTitle field = 1 << iota
	fieldDescription
	fieldStatus
	fieldPriority
	fieldDueDate
	fieldAssignee
	fieldProject
)

// Session edits one task. Writes reach the board cache only through Submit
// and Delete.
type Session struct {
	board  *board.Board
	logger *zap.Logger

	mu      sync.Mutex
	dir     Directory
	task    model.Task
	open    bool
	draft   Draft
	touched field
	closed  bool
}

// NewSession creates a session writing through b. Call Reset to open a task.
func NewSession(b *board.Board, dir Directory, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{board: b, dir: dir, logger: logger}
}

// Reset seeds the draft from t and forgets every pending change
func (s *Session) Reset(t model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(t)
}

func (s *Session) resetLocked(t model.Task) {
	s.task = t
	s.open = true
	s.draft = draftOf(t)
	s.touched = 0
}

// SetDirectory replaces the known projects and users
func (s *Session) SetDirectory(dir Directory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
}

// Task returns the task the draft was seeded from
func (s *Session) Task() model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

// Draft returns a copy of the current draft
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	if d.DueDate != nil {
		due := *d.DueDate
		d.DueDate = &due
	}
	return d
}

// Dirty reports whether any field was touched
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched != 0
}

func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Title = title
	s.touched |= fieldTitle
}

func (s *Session) SetDescription(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Description = desc
	s.touched |= fieldDescription
}

func (s *Session) SetStatus(status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Status = status
	s.touched |= fieldStatus
	return nil
}

// SetPriority sets the priority; PriorityNone clears it
func (s *Session) SetPriority(p model.Priority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Priority = p
	s.touched |= fieldPriority
}

func (s *Session) SetDueDate(d model.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.DueDate = &d
	s.touched |= fieldDueDate
}

func (s *Session) ClearDueDate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.DueDate = nil
	s.touched |= fieldDueDate
}

// SetAssignee assigns the task. The email must be eligible for the
// selected project.
func (s *Session) SetAssignee(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := model.NormalizeEmail(email)
	if e == "" {
		s.clearAssigneeLocked()
		return nil
	}
	if !s.dir.CanAssign(s.draft.ProjectID, e) {
		return fmt.Errorf("%w: %s", ErrAssigneeNotEligible, e)
	}
	s.draft.AssigneeEmail = e
	s.touched |= fieldAssignee
	return nil
}

func (s *Session) ClearAssignee() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearAssigneeLocked()
}

func (s *Session) clearAssigneeLocked() {
	s.draft.AssigneeEmail = ""
	s.touched |= fieldAssignee
}

// SetProject moves the task to project id. An assignee who is not part of
// the new project is cleared.
func (s *Session) SetProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.setProjectLocked("")
		return nil
	}
	if _, ok := s.dir.Project(id); !ok && len(s.dir.Projects) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProject, id)
	}
	s.setProjectLocked(id)
	return nil
}

func (s *Session) ClearProject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setProjectLocked("")
}

func (s *Session) setProjectLocked(id string) {
	s.draft.ProjectID = id
	s.touched |= fieldProject
	if s.draft.AssigneeEmail != "" && !s.dir.CanAssign(id, s.draft.AssigneeEmail) {
		s.logger.Debug("Clearing assignee outside project",
			zap.String("assignee", s.draft.AssigneeEmail),
			zap.String("project_id", id),
		)
		s.clearAssigneeLocked()
	}
}

// AllowedAssignees returns the emails selectable for the draft's project
func (s *Session) AllowedAssignees() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.AllowedAssignees(s.draft.ProjectID)
}

// Patch builds the update body. Untouched fields are omitted and cleared
// fields are sent as null.
func (s *Session) Patch() model.TaskPatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchLocked()
}

func (s *Session) patchLocked() model.TaskPatch {
	var p model.TaskPatch
	d := s.draft
	if s.touched&fieldTitle != 0 {
		p.Title = model.Value(d.Title)
	}
	if s.touched&fieldDescription != 0 {
		p.Description = model.Value(d.Description)
	}
	if s.touched&fieldStatus != 0 {
		p.Status = model.Value(d.Status)
	}
	if s.touched&fieldPriority != 0 {
		p.Priority = optional(d.Priority, d.Priority == model.PriorityNone)
	}
	if s.touched&fieldDueDate != 0 {
		if d.DueDate == nil {
			p.DueDate = model.Null[model.Date]()
		} else {
			p.DueDate = model.Value(*d.DueDate)
		}
	}
	if s.touched&fieldAssignee != 0 {
		p.AssigneeEmail = optional(d.AssigneeEmail, d.AssigneeEmail == "")
	}
	if s.touched&fieldProject != 0 {
		p.ProjectID = optional(d.ProjectID, d.ProjectID == "")
	}
	return p
}

func optional[T any](v T, empty bool) model.Field[T] {
	if empty {
		return model.Null[T]()
	}
	return model.Value(v)
}

// Submit sends the touched fields. Nothing is sent when no field was
// touched. On success the result is merged into the board cache and the
// list is fetched again.
func (s *Session) Submit(ctx context.Context) (model.Task, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.Task{}, ErrClosed
	}
	if !s.open {
		s.mu.Unlock()
		return model.Task{}, ErrNoTask
	}
	id := s.task.ID
	current := s.task
	patch := s.patchLocked()
	s.mu.Unlock()

	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := s.board.Repository().Update(ctx, id, patch)
	if err != nil {
		s.logger.Warn("Failed to update task", zap.String("task_id", id), zap.Error(err))
		s.board.Notifier().Notify(board.Notice{
			Level:   board.LevelError,
			Message: fmt.Sprintf("Could not save task: %s", api.Describe(err)),
		})
		return model.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}

	s.board.Cache().Merge(updated)
	s.logger.Info("Task updated", zap.String("task_id", id))
	if _, err := board.Refresh(ctx, s.board.Cache(), s.board.Repository()); err != nil {
		s.logger.Warn("Refresh after update failed", zap.Error(err))
	}

	s.mu.Lock()
	if !s.closed {
		s.resetLocked(updated)
	}
	s.mu.Unlock()
	return updated, nil
}

// Delete removes the task after confirm agrees. The task leaves the board
// at once and is put back if the request fails. It reports whether the
// task was deleted.
func (s *Session) Delete(ctx context.Context, confirm Confirmer) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if !s.open {
		s.mu.Unlock()
		return false, ErrNoTask
	}
	t := s.task
	s.mu.Unlock()

	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Delete task %q?", t.Title)) {
		return false, nil
	}

	cache := s.board.Cache()
	optimistic := true
	if err := cache.BeginRemove(t.ID); err != nil {
		if !errors.Is(err, board.ErrUnknownTask) {
			return false, err
		}
		optimistic = false
	}

	if err := s.board.Repository().Remove(ctx, t.ID); err != nil {
		if optimistic {
			cache.SettleRemove(t.ID, false)
		}
		s.logger.Warn("Failed to delete task", zap.String("task_id", t.ID), zap.Error(err))
		s.board.Notifier().Notify(board.Notice{
			Level:   board.LevelError,
			Message: fmt.Sprintf("Could not delete task: %s", api.Describe(err)),
		})
		return false, fmt.Errorf("delete task %s: %w", t.ID, err)
	}
	if optimistic {
		cache.SettleRemove(t.ID, true)
	}
	s.logger.Info("Task deleted", zap.String("task_id", t.ID))

	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return true, nil
}

// Close ends the session. Requests already sent still reconcile the board
// cache, but no longer change the draft.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
