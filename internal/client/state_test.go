package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTodos() []Todo {
	return []Todo{
		{ID: "1", Title: "a", Completed: false},
		{ID: "2", Title: "b", Completed: true},
		{ID: "3", Title: "c", Completed: false},
		{ID: "4", Title: "d", Completed: true},
	}
}

func ids(todos []Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	todos := sampleTodos()

	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(FilterAll.Apply(todos)))
	assert.Equal(t, []string{"1", "3"}, ids(FilterActive.Apply(todos)))
	assert.Equal(t, []string{"2", "4"}, ids(FilterCompleted.Apply(todos)))
	assert.Empty(t, FilterCompleted.Apply(nil))
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{
		"all": FilterAll, "Active": FilterActive, " completed ": FilterCompleted, "": FilterAll,
	} {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFilter("done")
	assert.Error(t, err)
}

func TestFilter_Next(t *testing.T) {
	assert.Equal(t, FilterActive, FilterAll.Next())
	assert.Equal(t, FilterCompleted, FilterActive.Next())
	assert.Equal(t, FilterAll, FilterCompleted.Next())
}

func TestItemState(t *testing.T) {
	assert.Equal(t, ItemActive, ItemState(Todo{}, true))
	assert.Equal(t, ItemCompleted, ItemState(Todo{Completed: true}, true))
	assert.Equal(t, ItemAbsent, ItemState(Todo{Completed: true}, false))
}

func TestState_StaleResponseDropped(t *testing.T) {
	s := NewState(FilterAll)

	first := s.BeginLoad()
	second := s.BeginLoad()
	assert.True(t, s.Loading())

	assert.True(t, s.ApplyList(second, sampleTodos()[:1]))
	assert.False(t, s.ApplyList(first, sampleTodos()), "older response must not overwrite newer")
	assert.Equal(t, []string{"1"}, ids(s.Todos()))
	assert.False(t, s.Loading())
}

func TestState_FailLoadKeepsList(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewState(FilterAll)
	require.True(t, s.ApplyList(s.BeginLoad(), sampleTodos()))

	id := s.FailLoad(s.BeginLoad(), &TransportError{Op: "list todos", Err: errors.New("refused")}, now)
	assert.NotZero(t, id)
	assert.Len(t, s.Todos(), 4)
	assert.False(t, s.Loading())
	assert.True(t, s.ErrorVisible(now))
	assert.Contains(t, s.ErrorMessage(), "Failed to load todos")

	stale := s.BeginLoad() - 1
	assert.Zero(t, s.FailLoad(stale, errors.New("x"), now))
}

func TestState_ErrorExpiry(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewState(FilterAll)

	first := s.ShowError("Title is required", now)
	assert.True(t, s.ErrorVisible(now.Add(4*time.Second)))
	assert.False(t, s.ErrorVisible(now.Add(ErrorDisplay)))

	second := s.ShowError("Failed to add todo", now.Add(3*time.Second))
	s.ExpireError(first)
	assert.Equal(t, "Failed to add todo", s.ErrorMessage(), "expiring a replaced error is a no-op")
	assert.True(t, s.ErrorVisible(now.Add(4*time.Second)))

	s.ExpireError(second)
	assert.False(t, s.ErrorVisible(now.Add(4*time.Second)))
	assert.Empty(t, s.ErrorMessage())
}

func TestState_VisibleFollowsFilter(t *testing.T) {
	s := NewState(FilterAll)
	require.True(t, s.ApplyList(s.BeginLoad(), sampleTodos()))

	s.SetFilter(FilterCompleted)
	assert.Equal(t, []string{"2", "4"}, ids(s.Visible()))
	assert.Len(t, s.Todos(), 4)
}
