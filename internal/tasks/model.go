package tasks

import (
	"strings"
	"time"
)

type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter selects which tasks a view displays.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the variants in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter maps a user-supplied name to a Filter; anything unknown is FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Label is the human title used by filter tabs.
func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// Apply returns the tasks matching f, preserving order. The input is not modified.
func (f Filter) Apply(list []Task) []Task {
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Summarize counts over the unfiltered list.
func Summarize(list []Task) Summary {
	s := Summary{Total: len(list)}
	for _, t := range list {
		if t.Completed {
			s.Completed++
		}
	}
	return s
}
