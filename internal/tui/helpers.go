package tui

import "github.com/existflow/taskflow/internal/model"

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// clamp keeps i within [0, n)
func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// cycle returns the element after current in values, wrapping around.
// An unknown current starts from the first element.
func cycle[T comparable](values []T, current T, step int) T {
	if len(values) == 0 {
		return current
	}
	idx := -1
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		if step < 0 {
			return values[len(values)-1]
		}
		return values[0]
	}
	return values[(idx+step+len(values))%len(values)]
}

// statusChoices are the values cycled by the status filter; "" means all
var statusChoices = []model.Status{"", model.StatusToDo, model.StatusInProgress, model.StatusDone}

// priorityChoices are the values cycled by the priority filter
var priorityChoices = []model.Priority{model.PriorityNone, model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
