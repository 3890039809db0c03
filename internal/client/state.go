package client

import (
	"fmt"
	"strings"
	"time"
)

// ErrorDisplay is how long a transient error stays on screen.
const ErrorDisplay = 5 * time.Second

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, active or completed)", s)
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	for i, x := range Filters {
		if x == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Apply returns the matching todos in their original relative order.
func (f Filter) Apply(todos []Todo) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		switch f {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

type Item int

const (
	ItemAbsent Item = iota
	ItemActive
	ItemCompleted
)

func (i Item) String() string {
	switch i {
	case ItemActive:
		return "active"
	case ItemCompleted:
		return "completed"
	}
	return "absent"
}

// ItemState classifies a todo as last seen by the client.
func ItemState(t Todo, present bool) Item {
	switch {
	case !present:
		return ItemAbsent
	case t.Completed:
		return ItemCompleted
	}
	return ItemActive
}

// State is everything the view renders. Only the update loop touches it.
type State struct {
	todos   []Todo
	filter  Filter
	loading bool
	seq     uint64

	errMsg   string
	errUntil time.Time
	errID    uint64
}

func NewState(f Filter) *State {
	return &State{todos: []Todo{}, filter: f}
}

func (s *State) Filter() Filter { return s.filter }
func (s *State) SetFilter(f Filter) { s.filter = f }
func (s *State) Loading() bool { return s.loading }
func (s *State) Todos() []Todo { return s.todos }
func (s *State) Visible() []Todo { return s.filter.Apply(s.todos) }
func (s *State) ErrorMessage() string { return s.errMsg }

// BeginLoad issues a new request id; only the newest id may apply its result.
func (s *State) BeginLoad() uint64 {
	s.seq++
	s.loading = true
	return s.seq
}

// ApplyList replaces the fetched list. Responses to superseded loads are dropped.
func (s *State) ApplyList(id uint64, todos []Todo) bool {
	if id != s.seq {
		return false
	}
	if todos == nil {
		todos = []Todo{}
	}
	s.todos = todos
	s.loading = false
	return true
}

// FailLoad keeps the previous list and shows err. It returns the error id,
// or 0 when the load had already been superseded.
func (s *State) FailLoad(id uint64, err error, now time.Time) uint64 {
	if id != s.seq {
		return 0
	}
	s.loading = false
	return s.ShowError("Failed to load todos: "+Message(err), now)
}

// ShowError replaces any visible error and returns its id.
func (s *State) ShowError(msg string, now time.Time) uint64 {
	s.errID++
	s.errMsg = msg
	s.errUntil = now.Add(ErrorDisplay)
	return s.errID
}

// ExpireError hides the error with the given id unless a newer one replaced it.
func (s *State) ExpireError(id uint64) {
	if id != s.errID {
		return
	}
	s.errMsg = ""
	s.errUntil = time.Time{}
}

func (s *State) ErrorVisible(now time.Time) bool {
	return s.errMsg != "" && now.Before(s.errUntil)
}
