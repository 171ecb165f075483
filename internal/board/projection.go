package board

import (
	"sort"

	"github.com/existflow/taskflow/internal/model"
)

// Columns is the board as shown: one slice per bucket in input order.
// Tasks whose status is none of the three buckets but that pass every
// filter are kept in Unrecognized instead of vanishing.
type Columns struct {
	ToDo         []model.Task
	InProgress   []model.Task
	Done         []model.Task
	Unrecognized []model.Task
}

// Bucket returns the column for status s
func (c Columns) Bucket(s model.Status) []model.Task {
	switch s {
	case model.StatusToDo:
		return c.ToDo
	case model.StatusInProgress:
		return c.InProgress
	case model.StatusDone:
		return c.Done
	default:
		return nil
	}
}

// Len counts the tasks in the three columns
func (c Columns) Len() int {
	return len(c.ToDo) + len(c.InProgress) + len(c.Done)
}

// Matches evaluates the filter predicates in order: project, status,
// assignee, priority
func Matches(t model.Task, f model.Filter) bool {
	if f.ProjectID != "" && t.ProjectID() != f.ProjectID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssigneeEmail != "" && t.AssigneeEmail() != model.NormalizeEmail(f.AssigneeEmail) {
		return false
	}
	if f.Priority != model.PriorityNone && model.NormalizePriority(t.Priority) != f.Priority {
		return false
	}
	return true
}

// Project partitions tasks into columns. It does not modify tasks.
func Project(tasks []model.Task, f model.Filter) Columns {
	f = f.Normalize()
	cols := Columns{
		ToDo:       []model.Task{},
		InProgress: []model.Task{},
		Done:       []model.Task{},
	}
	for _, t := range tasks {
		if !Matches(t, f) {
			continue
		}
		switch t.Status {
		case model.StatusToDo:
			cols.ToDo = append(cols.ToDo, t)
		case model.StatusInProgress:
			cols.InProgress = append(cols.InProgress, t)
		case model.StatusDone:
			cols.Done = append(cols.Done, t)
		default:
			cols.Unrecognized = append(cols.Unrecognized, t)
		}
	}
	return cols
}

// FilterChoices are the values offered by the filter controls
type FilterChoices struct {
	Projects  []model.ProjectRef
	Assignees []string
}

// FilterOptions derives filter choices from the directory and the tasks.
// Projects keep directory order, followed by projects only seen on tasks.
// Assignees are sorted.
func FilterOptions(tasks []model.Task, projects []model.Project) FilterChoices {
	var opts FilterChoices
	seenProjects := make(map[string]struct{})
	for _, p := range projects {
		if _, ok := seenProjects[p.ID]; ok {
			continue
		}
		seenProjects[p.ID] = struct{}{}
		opts.Projects = append(opts.Projects, p.Ref())
	}

	seenAssignees := make(map[string]struct{})
	for _, t := range tasks {
		if t.Project != nil {
			if _, ok := seenProjects[t.Project.ID]; !ok {
				seenProjects[t.Project.ID] = struct{}{}
				opts.Projects = append(opts.Projects, *t.Project)
			}
		}
		if email := t.AssigneeEmail(); email != "" {
			if _, ok := seenAssignees[email]; !ok {
				seenAssignees[email] = struct{}{}
				opts.Assignees = append(opts.Assignees, email)
			}
		}
	}
	sort.Strings(opts.Assignees)
	return opts
}
