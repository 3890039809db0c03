package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"todolist/internal/client"
	"todolist/internal/prefs"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	todos   []client.Todo
	lists   int
	creates []client.NewTodo
	updates map[string]client.Changes
	deletes []string
	failOn  string
}

func (f *fakeBackend) List(context.Context) ([]client.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]client.Todo(nil), f.todos...), nil
}

func (f *fakeBackend) Create(_ context.Context, in client.NewTodo) (client.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "create" {
		return client.Todo{}, &client.TransportError{Op: "create todo", Err: errors.New("refused")}
	}
	f.creates = append(f.creates, in)
	return client.Todo{ID: "new", Title: in.Title}, nil
}

func (f *fakeBackend) Update(_ context.Context, id string, ch client.Changes) (client.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string]client.Changes{}
	}
	f.updates[id] = ch
	return client.Todo{ID: id}, nil
}

func (f *fakeBackend) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

var fixedNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	pm := prefs.NewManager(filepath.Join(t.TempDir(), "settings.yaml"))
	m := New(backend, client.NewState(client.FilterAll), pm, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = func() time.Time { return fixedNow }
	m.tick = func(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }

	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keys(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, ks ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range ks {
		var next tea.Model
		next, cmd = m.Update(keys(k))
		m = next.(Model)
	}
	return m, cmd
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestModel_InitLoadsList(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{{ID: "1", Title: "Buy milk"}}}
	m := newTestModel(t, backend)

	assert.Equal(t, 1, backend.lists)
	assert.Len(t, m.state.Todos(), 1)
	assert.False(t, m.state.Loading())
	assert.Contains(t, m.View(), "Buy milk")
}

func TestModel_EmptyTitleSendsNoRequest(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)

	m, _ = press(m, "a")
	require.Equal(t, modeAdd, m.mode)
	m = typeText(m, "   ")
	m, cmd := press(m, "enter")

	assert.Nil(t, cmd)
	assert.Empty(t, backend.creates)
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Title is required", m.state.ErrorMessage())
	assert.True(t, m.state.ErrorVisible(fixedNow))
}

func TestModel_AddThenReload(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend)

	m, _ = press(m, "a")
	m = typeText(m, "Buy milk")
	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, modeList, m.mode)

	msg := cmd()
	require.IsType(t, mutationDoneMsg{}, msg)
	require.Len(t, backend.creates, 1)
	assert.Equal(t, "Buy milk", backend.creates[0].Title)

	next, reload := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, reload)
	require.IsType(t, listLoadedMsg{}, reload())
	assert.Equal(t, 2, backend.lists)
	assert.Empty(t, m.form[fieldTitle].Value(), "form is cleared once the todo exists")
}

func TestModel_CreateFailureShowsError(t *testing.T) {
	backend := &fakeBackend{failOn: "create"}
	m := newTestModel(t, backend)

	m, _ = press(m, "a")
	m = typeText(m, "x")
	m, cmd := press(m, "enter")
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, "Failed to add todo: cannot reach server", m.state.ErrorMessage())
	assert.Equal(t, 1, backend.lists, "failed mutation must not reload")
}

func TestModel_CreateFailureKeepsTypedValues(t *testing.T) {
	backend := &fakeBackend{failOn: "create"}
	m := newTestModel(t, backend)

	m, _ = press(m, "a")
	m = typeText(m, "Buy milk")
	m, _ = press(m, "tab")
	m = typeText(m, "two litres")
	m, cmd := press(m, "enter")
	require.Equal(t, modeList, m.mode)
	assert.Equal(t, "Buy milk", m.form[fieldTitle].Value(), "values survive while the request is in flight")

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, fieldTitle, m.focus)
	assert.Equal(t, "Buy milk", m.form[fieldTitle].Value())
	assert.Equal(t, "two litres", m.form[fieldDescription].Value())

	// Retry once the server is back.
	backend.mu.Lock()
	backend.failOn = ""
	backend.mu.Unlock()
	m, cmd = press(m, "enter")
	next, _ = m.Update(cmd())
	m = next.(Model)
	require.Len(t, backend.creates, 1)
	assert.Equal(t, "two litres", backend.creates[0].Description)
	assert.Empty(t, m.form[fieldTitle].Value())
}

func TestModel_CtrlCQuitsFromForms(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{{ID: "1", Title: "Report"}}}
	ctrlC := tea.KeyMsg{Type: tea.KeyCtrlC}

	for _, open := range []string{"a", "e", "s", "d"} {
		m := newTestModel(t, backend)
		m, _ = press(m, open)
		require.NotEqual(t, modeList, m.mode, open)

		next, cmd := m.Update(ctrlC)
		require.NotNil(t, cmd, open)
		assert.Equal(t, tea.QuitMsg{}, cmd(), open)
		assert.Empty(t, next.(Model).form[fieldTitle].Value(), "ctrl+c is not typed into the form")
	}
	assert.Empty(t, backend.creates)
	assert.Empty(t, backend.updates)
	assert.Empty(t, backend.deletes)
}

func TestModel_EditCancelSendsNothing(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{{ID: "1", Title: "Report"}}}
	m := newTestModel(t, backend)

	m, _ = press(m, "e")
	require.Equal(t, modeEdit, m.mode)
	m, cmd := press(m, "esc")
	assert.Nil(t, cmd)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, backend.updates)

	// Clearing the title aborts too.
	m, _ = press(m, "e")
	m.edit.SetValue("  ")
	m, cmd = press(m, "enter")
	assert.Nil(t, cmd)
	assert.Empty(t, backend.updates)
}

func TestModel_EditSendsTitle(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{{ID: "1", Title: "Report"}}}
	m := newTestModel(t, backend)

	m, _ = press(m, "e")
	m.edit.SetValue("Report v2")
	_, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	cmd()

	require.Contains(t, backend.updates, "1")
	require.NotNil(t, backend.updates["1"].Title)
	assert.Equal(t, "Report v2", *backend.updates["1"].Title)
	assert.Nil(t, backend.updates["1"].Completed)
}

func TestModel_ToggleCompletion(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{{ID: "1", Title: "a", Completed: true}}}
	m := newTestModel(t, backend)

	_, cmd := press(m, " ")
	require.NotNil(t, cmd)
	cmd()
	require.NotNil(t, backend.updates["1"].Completed)
	assert.False(t, *backend.updates["1"].Completed)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{{ID: "1", Title: "a"}}}
	m := newTestModel(t, backend)

	m, _ = press(m, "d")
	require.Equal(t, modeConfirmDelete, m.mode)
	m, cmd := press(m, "n")
	assert.Nil(t, cmd)
	assert.Empty(t, backend.deletes)

	_, cmd = press(m, "d", "y")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"1"}, backend.deletes)
}

func TestModel_FilterChangeReloads(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{
		{ID: "1", Title: "a"},
		{ID: "2", Title: "b", Completed: true},
	}}
	m := newTestModel(t, backend)

	m, cmd := press(m, "3")
	require.NotNil(t, cmd)
	assert.Equal(t, client.FilterCompleted, m.state.Filter())

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, 2, backend.lists)
	require.Len(t, m.state.Visible(), 1)
	assert.Equal(t, "2", m.state.Visible()[0].ID)
}

func TestModel_StaleLoadIgnored(t *testing.T) {
	backend := &fakeBackend{todos: []client.Todo{{ID: "1", Title: "a"}}}
	m := newTestModel(t, backend)

	slow := m.reload()
	fast := m.reload()
	next, _ := m.Update(fast())
	m = next.(Model)

	backend.mu.Lock()
	backend.todos = nil
	backend.mu.Unlock()
	next, _ = m.Update(slow())
	m = next.(Model)

	assert.Len(t, m.state.Todos(), 1)
}

func TestModel_ErrorExpires(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = press(m, "a", "enter")
	require.Equal(t, "Title is required", m.state.ErrorMessage())

	next, _ := m.Update(errorExpiredMsg{id: 1})
	m = next.(Model)
	assert.Empty(t, m.state.ErrorMessage())
}

func TestModel_ThemeTogglePersists(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	require.Equal(t, prefs.ThemeDark, m.settings.Theme)

	m, cmd := press(m, "t")
	assert.Equal(t, prefs.ThemeLight, m.settings.Theme)
	require.NotNil(t, cmd)
	assert.Equal(t, prefsSavedMsg{}, cmd())

	assert.Equal(t, prefs.ThemeLight, prefs.NewManager(m.prefs.Path()).Get().Theme)
}

func TestModel_SettingsSaveColor(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = press(m, "s")
	require.Equal(t, modeSettings, m.mode)
	assert.Equal(t, prefs.ThemeDark, m.prefsForm[settingTheme].Value())
	assert.Equal(t, "#4CAF50", m.prefsForm[settingColor].Value())
	assert.Equal(t, "16", m.prefsForm[settingSize].Value())
	assert.Contains(t, m.View(), "Settings")

	m, _ = press(m, "tab")
	require.Equal(t, settingColor, m.prefsFocus)
	m.prefsForm[settingColor].SetValue("#2196F3")
	m.prefsForm[settingSize].SetValue("18")
	m, cmd := press(m, "enter")

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "#2196F3", m.settings.Color)
	assert.Equal(t, 18, m.settings.Size)
	require.NotNil(t, cmd)
	assert.Equal(t, prefsSavedMsg{}, cmd())

	saved := prefs.NewManager(m.prefs.Path()).Get()
	assert.Equal(t, "#2196F3", saved.Color)
	assert.Equal(t, 18, saved.Size)
	assert.Equal(t, prefs.ThemeDark, saved.Theme)
}

func TestModel_SettingsRejectInvalid(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = press(m, "s")
	m.prefsForm[settingSize].SetValue("xx")
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, modeSettings, m.mode)
	assert.Equal(t, "Invalid settings: size must be a number", m.state.ErrorMessage())

	m.prefsForm[settingSize].SetValue("16")
	m.prefsForm[settingColor].SetValue("green")
	m, cmd = press(m, "enter")
	assert.Nil(t, cmd)
	assert.Contains(t, m.state.ErrorMessage(), "color")
	assert.Equal(t, "#4CAF50", m.settings.Color)

	_, err := os.Stat(m.prefs.Path())
	assert.True(t, os.IsNotExist(err), "nothing is saved")
}

func TestModel_SettingsEscKeepsCurrent(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = press(m, "s")
	m.prefsForm[settingTheme].SetValue(prefs.ThemeLight)
	m, cmd := press(m, "esc")

	assert.Nil(t, cmd)
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, prefs.ThemeDark, m.settings.Theme)
}
