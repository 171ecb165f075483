package model

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state patch value. The zero value is unset and is dropped
// from JSON by the omitzero option; Null serializes as null; Value as the value.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Value returns a field that sets v
func Value[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// Null returns a field that clears the value on the server
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsZero reports whether the field is unset
func (f Field[T]) IsZero() bool { return !f.set }

// IsSet reports whether the field carries a value or an explicit null
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field is an explicit clear
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the value and whether one is present
func (f Field[T]) Get() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Value(v)
	return nil
}

// TaskPatch is the body of PUT /tasks/{id}. Only touched fields are sent.
type TaskPatch struct {
	Title         Field[string]   `json:"title,omitzero"`
	Description   Field[string]   `json:"description,omitzero"`
	Status        Field[Status]   `json:"status,omitzero"`
	Priority      Field[Priority] `json:"priority,omitzero"`
	DueDate       Field[Date]     `json:"dueDate,omitzero"`
	AssigneeEmail Field[string]   `json:"assigneeEmail,omitzero"`
	ProjectID     Field[string]   `json:"projectId,omitzero"`
}

// IsEmpty reports whether the patch would change nothing
func (p TaskPatch) IsEmpty() bool {
	return !p.Title.IsSet() &&
		!p.Description.IsSet() &&
		!p.Status.IsSet() &&
		!p.Priority.IsSet() &&
		!p.DueDate.IsSet() &&
		!p.AssigneeEmail.IsSet() &&
		!p.ProjectID.IsSet()
}

// Apply returns t with the patch applied locally. Projects and assignees
// only carry what the patch knows (id or email).
func (p TaskPatch) Apply(t Task) Task {
	if v, ok := p.Title.Get(); ok {
		t.Title = v
	}
	if v, ok := p.Description.Get(); ok {
		t.Description = v
	}
	if v, ok := p.Status.Get(); ok {
		t.Status = v
	}
	if p.Priority.IsNull() {
		t.Priority = PriorityNone
	} else if v, ok := p.Priority.Get(); ok {
		t.Priority = v
	}
	if p.DueDate.IsNull() {
		t.DueDate = nil
	} else if v, ok := p.DueDate.Get(); ok {
		t.DueDate = &v
	}
	if p.AssigneeEmail.IsNull() {
		t.Assignee = nil
	} else if v, ok := p.AssigneeEmail.Get(); ok {
		t.Assignee = &UserRef{Email: v}
	}
	if p.ProjectID.IsNull() {
		t.Project = nil
	} else if v, ok := p.ProjectID.Get(); ok {
		if t.Project == nil || t.Project.ID != v {
			t.Project = &ProjectRef{ID: v}
		}
	}
	return t
}

// StatusUpdate is the body of a status-only PUT /tasks/{id}
type StatusUpdate struct {
	Status Status `json:"status"`
}
