package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"todolist/internal/client"
	"todolist/internal/prefs"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Backend is the part of the API client the view drives.
type Backend interface {
	List(ctx context.Context) ([]client.Todo, error)
	Create(ctx context.Context, in client.NewTodo) (client.Todo, error)
	Update(ctx context.Context, id string, ch client.Changes) (client.Todo, error)
	Delete(ctx context.Context, id string) error
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
	modeSettings
)

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldDue
	fieldCount
)

const (
	settingTheme = iota
	settingColor
	settingFont
	settingSize
	settingCount
)

type (
	listLoadedMsg struct {
		seq   uint64
		todos []client.Todo
		err   error
	}
	mutationDoneMsg struct {
		op  string // add, update, edit, delete
		err error
	}
	errorExpiredMsg struct{ id uint64 }
	prefsSavedMsg   struct{ err error }
)

type Model struct {
	api    Backend
	state  *client.State
	prefs  *prefs.Manager
	log    *slog.Logger
	now    func() time.Time
	tick   func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
	styles styles

	settings prefs.Settings
	mode     mode
	cursor   int
	width    int

	form   []textinput.Model
	focus  int
	edit   textinput.Model
	target *client.Todo
	status string

	prefsForm  []textinput.Model
	prefsFocus int
}

func New(api Backend, state *client.State, pm *prefs.Manager, log *slog.Logger) Model {
	form := make([]textinput.Model, fieldCount)
	for i, p := range []string{"Title (required)", "Description", "Priority: low, medium or high", "Due date: YYYY-MM-DD"} {
		ti := textinput.New()
		ti.Placeholder = p
		ti.CharLimit = 256
		ti.Width = 50
		form[i] = ti
	}
	form[fieldPriority].CharLimit = 6
	form[fieldDue].CharLimit = 10

	edit := textinput.New()
	edit.Placeholder = "New title"
	edit.CharLimit = 256
	edit.Width = 50

	prefsForm := make([]textinput.Model, settingCount)
	for i, p := range []string{"dark or light", "#4CAF50", "Poppins", "16"} {
		ti := textinput.New()
		ti.Placeholder = p
		ti.CharLimit = 32
		ti.Width = 30
		prefsForm[i] = ti
	}
	prefsForm[settingSize].CharLimit = 2

	settings := pm.Get()
	return Model{
		api:      api,
		state:    state,
		prefs:    pm,
		log:      log,
		now:      time.Now,
		tick:     tea.Tick,
		styles:   newStyles(settings),
		settings: settings,
		mode:     modeList,
		form:     form,
		edit:     edit,

		prefsForm: prefsForm,
		status:   "Press 'a' to add, space to toggle, 'e' to edit, 'd' to delete.",
	}
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, api Backend, state *client.State, pm *prefs.Manager, log *slog.Logger) error {
	program := tea.NewProgram(New(api, state, pm, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.reload()
}

// reload starts a full list fetch; only the newest fetch may apply.
func (m Model) reload() tea.Cmd {
	seq := m.state.BeginLoad()
	api := m.api
	return func() tea.Msg {
		todos, err := api.List(context.Background())
		return listLoadedMsg{seq: seq, todos: todos, err: err}
	}
}

func (m Model) mutate(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{op: op, err: fn(context.Background())}
	}
}

// showError displays msg and schedules its removal.
func (m Model) showError(msg string) tea.Cmd {
	id := m.state.ShowError(msg, m.now())
	return m.tick(client.ErrorDisplay, func(time.Time) tea.Msg {
		return errorExpiredMsg{id: id}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg)
		case modeEdit:
			return m.updateEditMode(msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		case modeSettings:
			return m.updateSettingsMode(msg)
		}
		return m.updateListMode(msg.String())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		for i := range m.form {
			m.form[i].Width = max(msg.Width-20, 20)
		}
		m.edit.Width = max(msg.Width-20, 20)
		for i := range m.prefsForm {
			m.prefsForm[i].Width = max(msg.Width-30, 20)
		}
		return m, nil

	case listLoadedMsg:
		if msg.err != nil {
			if id := m.state.FailLoad(msg.seq, msg.err, m.now()); id != 0 {
				m.log.Warn("list todos failed", "error", msg.err)
				return m, m.tick(client.ErrorDisplay, func(time.Time) tea.Msg { return errorExpiredMsg{id: id} })
			}
			return m, nil
		}
		if m.state.ApplyList(msg.seq, msg.todos) {
			m.cursor = clampCursor(m.cursor, len(m.state.Visible()))
		}
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.log.Warn("todo mutation failed", "op", msg.op, "error", msg.err)
			cmds := []tea.Cmd{m.showError(fmt.Sprintf("Failed to %s todo: %s", msg.op, client.Message(msg.err)))}
			// The form still holds what was typed; give it back.
			if msg.op == "add" && m.mode == modeList {
				m.mode = modeAdd
				m.focus = fieldTitle
				m.status = "Add: tab to move between fields, enter to save, esc to cancel"
				cmds = append(cmds, m.focusField())
			}
			return m, tea.Batch(cmds...)
		}
		if msg.op == "add" && m.mode != modeAdd {
			m.clearForm()
		}
		return m, m.reload()

	case errorExpiredMsg:
		m.state.ExpireError(msg.id)
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.log.Warn("save settings failed", "error", msg.err)
			return m, m.showError("Failed to save settings: " + msg.err.Error())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	visible := m.state.Visible()
	switch key {
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.cursor = clampCursor(m.cursor+1, len(visible))
	case "k", "up":
		m.cursor = clampCursor(m.cursor-1, len(visible))
	case "r":
		return m, m.reload()
	case "f", "tab":
		return m.setFilter(m.state.Filter().Next())
	case "1":
		return m.setFilter(client.FilterAll)
	case "2":
		return m.setFilter(client.FilterActive)
	case "3":
		return m.setFilter(client.FilterCompleted)
	case "a":
		m.mode = modeAdd
		m.focus = fieldTitle
		m.status = "Add: tab to move between fields, enter to save, esc to cancel"
		return m, m.focusField()
	case " ", "x":
		if len(visible) == 0 {
			return m, nil
		}
		t := visible[m.cursor]
		done := !t.Completed
		m.status = ""
		api := m.api
		return m, m.mutate("update", func(ctx context.Context) error {
			_, err := api.Update(ctx, t.ID, client.Changes{Completed: &done})
			return err
		})
	case "e":
		if len(visible) == 0 {
			return m, nil
		}
		t := visible[m.cursor]
		m.target = &t
		m.mode = modeEdit
		m.edit.SetValue(t.Title)
		m.edit.CursorEnd()
		m.status = "Edit title: enter to save, esc to cancel"
		return m, m.edit.Focus()
	case "d":
		if len(visible) == 0 {
			return m, nil
		}
		t := visible[m.cursor]
		m.target = &t
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete %q? y/n", t.Title)
	case "t":
		m.settings = m.settings.ToggleTheme()
		m.styles = newStyles(m.settings)
		return m, m.savePrefs()
	case "s":
		m.mode = modeSettings
		m.prefsFocus = settingTheme
		m.prefsForm[settingTheme].SetValue(m.settings.Theme)
		m.prefsForm[settingColor].SetValue(m.settings.Color)
		m.prefsForm[settingFont].SetValue(m.settings.Font)
		m.prefsForm[settingSize].SetValue(strconv.Itoa(m.settings.Size))
		for i := range m.prefsForm {
			m.prefsForm[i].CursorEnd()
		}
		m.status = "Settings: tab to move between fields, enter to save, esc to cancel"
		return m, m.focusSetting()
	}
	return m, nil
}

func (m Model) savePrefs() tea.Cmd {
	settings, pm := m.settings, m.prefs
	return func() tea.Msg { return prefsSavedMsg{err: pm.Save(settings)} }
}

// setFilter switches the filter and refetches, as every filter change reloads.
func (m Model) setFilter(f client.Filter) (tea.Model, tea.Cmd) {
	m.state.SetFilter(f)
	m.cursor = 0
	return m, m.reload()
}

func (m *Model) focusField() tea.Cmd {
	for i := range m.form {
		m.form[i].Blur()
	}
	return m.form[m.focus].Focus()
}

func (m *Model) focusSetting() tea.Cmd {
	for i := range m.prefsForm {
		m.prefsForm[i].Blur()
	}
	return m.prefsForm[m.prefsFocus].Focus()
}

func (m *Model) clearForm() {
	for i := range m.form {
		m.form[i].SetValue("")
		m.form[i].Blur()
	}
	m.focus = fieldTitle
}

// resetForm clears the add form and returns to the list.
func (m Model) resetForm() Model {
	m.clearForm()
	m.mode = modeList
	return m
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.resetForm()
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		m.focus = (m.focus + 1) % fieldCount
		return m, m.focusField()
	case "shift+tab", "up":
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		return m, m.focusField()
	case "enter":
		in := client.NewTodo{
			Title:       strings.TrimSpace(m.form[fieldTitle].Value()),
			Description: strings.TrimSpace(m.form[fieldDescription].Value()),
			Priority:    strings.ToLower(strings.TrimSpace(m.form[fieldPriority].Value())),
			DueDate:     strings.TrimSpace(m.form[fieldDue].Value()),
		}
		if in.Title == "" {
			return m, m.showError("Title is required")
		}
		// Values stay until the create succeeds.
		for i := range m.form {
			m.form[i].Blur()
		}
		m.mode = modeList
		m.status = "Adding " + in.Title
		api := m.api
		return m, m.mutate("add", func(ctx context.Context) error {
			_, err := api.Create(ctx, in)
			return err
		})
	}
	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeEdit("Edit cancelled"), nil
	case "enter":
		title := strings.TrimSpace(m.edit.Value())
		if title == "" || m.target == nil {
			return m.closeEdit("Edit cancelled"), nil
		}
		id := m.target.ID
		m = m.closeEdit("")
		api := m.api
		return m, m.mutate("edit", func(ctx context.Context) error {
			_, err := api.Update(ctx, id, client.Changes{Title: &title})
			return err
		})
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	return m, cmd
}

func (m Model) closeEdit(status string) Model {
	m.edit.SetValue("")
	m.edit.Blur()
	m.target = nil
	m.mode = modeList
	m.status = status
	return m
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.target = nil
		m.mode = modeList
		m.status = "Delete cancelled"
		return m, nil
	case "y", "Y":
		if m.target == nil {
			m.mode = modeList
			return m, nil
		}
		id := m.target.ID
		m.target = nil
		m.mode = modeList
		m.status = ""
		api := m.api
		return m, m.mutate("delete", func(ctx context.Context) error {
			return api.Delete(ctx, id)
		})
	}
	return m, nil
}

func (m Model) closeSettings(status string) Model {
	for i := range m.prefsForm {
		m.prefsForm[i].Blur()
	}
	m.mode = modeList
	m.status = status
	return m
}

func (m Model) updateSettingsMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeSettings("Settings unchanged"), nil
	case "tab", "down":
		m.prefsFocus = (m.prefsFocus + 1) % settingCount
		return m, m.focusSetting()
	case "shift+tab", "up":
		m.prefsFocus = (m.prefsFocus + settingCount - 1) % settingCount
		return m, m.focusSetting()
	case "enter":
		next := prefs.Settings{
			Theme: strings.ToLower(strings.TrimSpace(m.prefsForm[settingTheme].Value())),
			Color: strings.TrimSpace(m.prefsForm[settingColor].Value()),
			Font:  strings.TrimSpace(m.prefsForm[settingFont].Value()),
		}
		size, err := strconv.Atoi(strings.TrimSpace(m.prefsForm[settingSize].Value()))
		if err != nil {
			return m, m.showError("Invalid settings: size must be a number")
		}
		next.Size = size
		if err := next.Validate(); err != nil {
			return m, m.showError("Invalid settings: " + err.Error())
		}
		m.settings = next
		m.styles = newStyles(next)
		m = m.closeSettings("Settings saved")
		return m, m.savePrefs()
	}
	var cmd tea.Cmd
	m.prefsForm[m.prefsFocus], cmd = m.prefsForm[m.prefsFocus].Update(msg)
	return m, cmd
}

func clampCursor(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
