package model

import (
	"strings"
)

// FilterAll is the sentinel users type to disable a filter
const FilterAll = "ALL"

// Filter is the board filter set. Zero fields are not applied.
type Filter struct {
	ProjectID     string
	Status        Status
	AssigneeEmail string
	Priority      Priority
}

// Normalize lower-cases the assignee and maps "ALL" to the empty value
func (f Filter) Normalize() Filter {
	if strings.EqualFold(strings.TrimSpace(f.ProjectID), FilterAll) {
		f.ProjectID = ""
	}
	if strings.EqualFold(string(f.Status), FilterAll) {
		f.Status = ""
	}
	f.AssigneeEmail = NormalizeEmail(f.AssigneeEmail)
	if strings.EqualFold(f.AssigneeEmail, FilterAll) {
		f.AssigneeEmail = ""
	}
	return f
}

// Active reports whether any filter is applied
func (f Filter) Active() bool {
	f = f.Normalize()
	return f.ProjectID != "" || f.Status != "" || f.AssigneeEmail != "" || f.Priority != PriorityNone
}

// ParseFilter builds a filter from user input; empty strings and "all" disable a field
func ParseFilter(projectID, status, assignee, priority string) (Filter, error) {
	f := Filter{ProjectID: projectID, AssigneeEmail: assignee}
	if s := strings.TrimSpace(status); s != "" && !strings.EqualFold(s, FilterAll) {
		st, err := ParseStatus(s)
		if err != nil {
			return Filter{}, err
		}
		f.Status = st
	}
	p, err := ParsePriority(priority)
	if err != nil {
		return Filter{}, err
	}
	f.Priority = p
	return f.Normalize(), nil
}

func (f Filter) String() string {
	f = f.Normalize()
	if !f.Active() {
		return "all tasks"
	}
	var parts []string
	if f.ProjectID != "" {
		parts = append(parts, "project="+f.ProjectID)
	}
	if f.Status != "" {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.AssigneeEmail != "" {
		parts = append(parts, "assignee="+f.AssigneeEmail)
	}
	if f.Priority != PriorityNone {
		parts = append(parts, "priority="+f.Priority.String())
	}
	return strings.Join(parts, " ")
}
