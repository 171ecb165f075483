package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the Kanban bucket a task lives in
type Status string

const (
	StatusToDo       Status = "TO_DO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists the board buckets in column order
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the three board buckets
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns the column title for the status
func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseStatus accepts the wire form and the usual human spellings
// ("todo", "in-progress", "in progress", "done").
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if norm == "TODO" {
		norm = string(StatusToDo)
	}
	st := Status(norm)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Date is a calendar date without time of day
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its calendar date
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads YYYY-MM-DD. Longer ISO timestamps are cut to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON writes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads "YYYY-MM-DD" or a full ISO timestamp. null and ""
// decode to the zero Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is a single card on the board
type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	DueDate     *Date       `json:"dueDate"`
	CreatedAt   time.Time   `json:"createdAt"`
	Assignee    *UserRef    `json:"assignee,omitempty"`
	Project     *ProjectRef `json:"project,omitempty"`
}

// UnmarshalJSON decodes a task from the server. A dueDate or createdAt that
// does not parse is read as absent so one bad row cannot fail a whole list.
func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	var raw struct {
		plain
		DueDate   json.RawMessage `json:"dueDate"`
		CreatedAt json.RawMessage `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Task(raw.plain)

	t.DueDate = nil
	var due Date
	if len(raw.DueDate) > 0 && json.Unmarshal(raw.DueDate, &due) == nil && !due.IsZero() {
		t.DueDate = &due
	}
	t.CreatedAt = time.Time{}
	if len(raw.CreatedAt) > 0 {
		_ = json.Unmarshal(raw.CreatedAt, &t.CreatedAt)
	}
	return nil
}

// AssigneeEmail returns the normalized assignee email, or "" when unassigned
func (t Task) AssigneeEmail() string {
	if t.Assignee == nil {
		return ""
	}
	return NormalizeEmail(t.Assignee.Email)
}

// ProjectID returns the owning project id, or "" when the task has none
func (t Task) ProjectID() string {
	if t.Project == nil {
		return ""
	}
	return t.Project.ID
}

// IsOverdue returns true if the due date is before today
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	return t.DueDate.Before(NewDate(now).Time)
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ProjectID     string   `json:"projectId,omitempty"`
	AssigneeEmail *string  `json:"assigneeEmail"`
	DueDate       *Date    `json:"dueDate"`
	Priority      Priority `json:"priority"`
}
