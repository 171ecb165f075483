package board

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/existflow/taskflow/internal/model"
)

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestProjectStatusFilterScenario(t *testing.T) {
	tasks := []model.Task{task("a", model.StatusToDo), task("b", model.StatusDone)}

	cols := Project(tasks, model.Filter{Status: model.StatusDone})

	assert.Empty(t, cols.ToDo)
	assert.Empty(t, cols.InProgress)
	assert.Equal(t, []string{"b"}, ids(cols.Done))
}

func TestProject(t *testing.T) {
	apollo := &model.ProjectRef{ID: "p1", Name: "Apollo"}
	gemini := &model.ProjectRef{ID: "p2", Name: "Gemini"}
	alice := &model.UserRef{Email: "Alice@Example.com"}
	bob := &model.UserRef{Email: "bob@example.com"}

	tasks := []model.Task{
		{ID: "1", Status: model.StatusToDo, Project: apollo, Assignee: alice, Priority: model.PriorityHigh},
		{ID: "2", Status: model.StatusInProgress, Project: apollo, Assignee: bob, Priority: model.PriorityLow},
		{ID: "3", Status: model.StatusDone, Project: gemini, Assignee: alice, Priority: model.PriorityMedium},
		{ID: "4", Status: model.StatusToDo, Project: gemini},
		{ID: "5", Status: "ARCHIVED", Project: apollo, Assignee: alice},
		{ID: "6", Status: model.StatusToDo, Project: apollo, Assignee: alice, Priority: model.PriorityLow},
	}

	tests := []struct {
		name           string
		filter         model.Filter
		wantToDo       []string
		wantInProgress []string
		wantDone       []string
		wantUnknown    []string
	}{
		{
			name:           "no filter keeps input order",
			filter:         model.Filter{},
			wantToDo:       []string{"1", "4", "6"},
			wantInProgress: []string{"2"},
			wantDone:       []string{"3"},
			wantUnknown:    []string{"5"},
		},
		{
			name:           "ALL sentinels",
			filter:         model.Filter{ProjectID: "ALL", Status: "ALL", AssigneeEmail: "ALL"},
			wantToDo:       []string{"1", "4", "6"},
			wantInProgress: []string{"2"},
			wantDone:       []string{"3"},
			wantUnknown:    []string{"5"},
		},
		{
			name:           "project",
			filter:         model.Filter{ProjectID: "p2"},
			wantToDo:       []string{"4"},
			wantInProgress: []string{},
			wantDone:       []string{"3"},
		},
		{
			name:           "assignee is case-insensitive",
			filter:         model.Filter{AssigneeEmail: "ALICE@example.COM"},
			wantToDo:       []string{"1", "6"},
			wantInProgress: []string{},
			wantDone:       []string{"3"},
			wantUnknown:    []string{"5"},
		},
		{
			name:           "status excludes other buckets and unknown statuses",
			filter:         model.Filter{Status: model.StatusToDo},
			wantToDo:       []string{"1", "4", "6"},
			wantInProgress: []string{},
			wantDone:       []string{},
		},
		{
			name:           "priority",
			filter:         model.Filter{Priority: model.PriorityLow},
			wantToDo:       []string{"6"},
			wantInProgress: []string{"2"},
			wantDone:       []string{},
		},
		{
			name:           "combined",
			filter:         model.Filter{ProjectID: "p1", AssigneeEmail: "alice@example.com", Priority: model.PriorityHigh},
			wantToDo:       []string{"1"},
			wantInProgress: []string{},
			wantDone:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := Project(tasks, tt.filter)
			assert.Equal(t, tt.wantToDo, ids(cols.ToDo))
			assert.Equal(t, tt.wantInProgress, ids(cols.InProgress))
			assert.Equal(t, tt.wantDone, ids(cols.Done))
			if tt.wantUnknown == nil {
				assert.Empty(t, cols.Unrecognized)
			} else {
				assert.Equal(t, tt.wantUnknown, ids(cols.Unrecognized))
			}
		})
	}
}

func TestColumnsBucket(t *testing.T) {
	cols := Project([]model.Task{task("a", model.StatusInProgress), task("b", "WEIRD")}, model.Filter{})
	assert.Equal(t, []string{"a"}, ids(cols.Bucket(model.StatusInProgress)))
	assert.Nil(t, cols.Bucket("WEIRD"))
	assert.Equal(t, 1, cols.Len())
}

func TestFilterOptions(t *testing.T) {
	projects := []model.Project{{ID: "p1", Name: "Apollo"}, {ID: "p2", Name: "Gemini"}}
	tasks := []model.Task{
		{ID: "1", Project: &model.ProjectRef{ID: "p3", Name: "Orphan"}, Assignee: &model.UserRef{Email: "Zed@example.com"}},
		{ID: "2", Project: &model.ProjectRef{ID: "p1", Name: "Apollo"}, Assignee: &model.UserRef{Email: "amy@example.com"}},
		{ID: "3", Assignee: &model.UserRef{Email: "zed@example.com"}},
	}

	opts := FilterOptions(tasks, projects)
	assert.Equal(t, []model.ProjectRef{{ID: "p1", Name: "Apollo"}, {ID: "p2", Name: "Gemini"}, {ID: "p3", Name: "Orphan"}}, opts.Projects)
	assert.Equal(t, []string{"amy@example.com", "zed@example.com"}, opts.Assignees)
}

var (
	propStatuses   = []model.Status{model.StatusToDo, model.StatusInProgress, model.StatusDone, "ARCHIVED"}
	propProjects   = []string{"", "p1", "p2"}
	propAssignees  = []string{"", "a@example.com", "B@example.com"}
	propPriorities = []model.Priority{model.PriorityNone, model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
)

// genTask decodes one generated integer into a task, so every field
// combination is reachable.
func genTask(i, code int) model.Task {
	t := model.Task{
		ID:       fmt.Sprintf("t%d", i),
		Status:   propStatuses[code%4],
		Priority: propPriorities[(code/4)%4],
	}
	if p := propProjects[(code/16)%3]; p != "" {
		t.Project = &model.ProjectRef{ID: p}
	}
	if a := propAssignees[(code/48)%3]; a != "" {
		t.Assignee = &model.UserRef{Email: a}
	}
	return t
}

func genFilter(code int) model.Filter {
	statusFilters := []model.Status{"", model.StatusToDo, model.StatusInProgress, model.StatusDone}
	assigneeFilters := []string{"", "a@example.com", "b@example.com"}
	return model.Filter{
		Status:        statusFilters[code%4],
		Priority:      propPriorities[(code/4)%4],
		ProjectID:     propProjects[(code/16)%3],
		AssigneeEmail: assigneeFilters[(code/48)%3],
	}
}

// For all task lists and filter sets, every task lands in at most one
// bucket, and in none exactly when it fails a predicate or has an
// unrecognized status.
func TestProperty_ProjectionPartitions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("projection is a partition of matching tasks", prop.ForAll(
		func(codes []int, filterCode int) bool {
			tasks := make([]model.Task, len(codes))
			for i, code := range codes {
				tasks[i] = genTask(i, code)
			}
			f := genFilter(filterCode)
			cols := Project(tasks, f)

			seen := make(map[string]int)
			for _, bucket := range [][]model.Task{cols.ToDo, cols.InProgress, cols.Done} {
				for _, bt := range bucket {
					seen[bt.ID]++
				}
			}

			for _, tk := range tasks {
				n := seen[tk.ID]
				if n > 1 {
					return false
				}
				shouldShow := Matches(tk, f.Normalize()) && tk.Status.Valid()
				if shouldShow != (n == 1) {
					return false
				}
			}

			for _, st := range model.Statuses {
				for _, bt := range cols.Bucket(st) {
					if bt.Status != st {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 143)),
		gen.IntRange(0, 143),
	))

	properties.Property("buckets keep input order", prop.ForAll(
		func(codes []int) bool {
			tasks := make([]model.Task, len(codes))
			for i, code := range codes {
				tasks[i] = genTask(i, code)
			}
			cols := Project(tasks, model.Filter{})
			for _, bucket := range [][]model.Task{cols.ToDo, cols.InProgress, cols.Done, cols.Unrecognized} {
				last := -1
				for _, bt := range bucket {
					var idx int
					if _, err := fmt.Sscanf(bt.ID, "t%d", &idx); err != nil || idx <= last {
						return false
					}
					last = idx
				}
			}
			return cols.Len()+len(cols.Unrecognized) == len(tasks)
		},
		gen.SliceOf(gen.IntRange(0, 143)),
	))

	properties.TestingRun(t)
}
