package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Priority is the normalized task priority. The zero value means "no priority".
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

// Priorities lists the settable priorities from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	default:
		return "NONE"
	}
}

// NormalizePriority maps the server's heterogeneous priority values onto Priority.
//
//	LOW    <- "LOW",    number <= 1
//	MEDIUM <- "MEDIUM", number == 2
//	HIGH   <- "HIGH",   number >= 3
//	NONE   <- null, empty, anything unrecognized
//
// Names are matched case-insensitively; numeric strings are treated as numbers.
func NormalizePriority(v any) Priority {
	switch x := v.(type) {
	case nil:
		return PriorityNone
	case Priority:
		return x
	case int:
		return priorityFromNumber(float64(x))
	case int64:
		return priorityFromNumber(float64(x))
	case float64:
		return priorityFromNumber(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return PriorityNone
		}
		return priorityFromNumber(f)
	case string:
		switch strings.ToUpper(strings.TrimSpace(x)) {
		case "LOW":
			return PriorityLow
		case "MEDIUM":
			return PriorityMedium
		case "HIGH":
			return PriorityHigh
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return priorityFromNumber(f)
		}
	}
	return PriorityNone
}

func priorityFromNumber(n float64) Priority {
	switch {
	case math.IsNaN(n):
		return PriorityNone
	case n <= 1:
		return PriorityLow
	case n >= 3:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// ParsePriority reads user input. "", "none" and "all" yield PriorityNone.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE", FilterAll:
		return PriorityNone, nil
	}
	p := NormalizePriority(s)
	if p == PriorityNone {
		return PriorityNone, fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// MarshalJSON writes the enum name, or null for PriorityNone
func (p Priority) MarshalJSON() ([]byte, error) {
	if p == PriorityNone {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either representation the server sends
func (p *Priority) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = NormalizePriority(v)
	return nil
}
