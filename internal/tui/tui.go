// Package tui is the interactive todo list. It only reads from and
// dispatches into the store; it holds no durable state of its own.
package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/ui"
)

// Backend is what the list needs from the application.
type Backend interface {
	Todos() []model.Todo
	Subscribe(fn store.Subscriber) func()
	Create(description string, priority model.Priority) (model.Todo, error)
	Update(id, description string, priority model.Priority) (model.Todo, bool, error)
	EditTodo(t model.Todo) bool
	DeleteTodo(id string) bool
}

// listItem adapts a Todo to bubbles/list.Item.
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Description }
func (i listItem) Description() string { return i.todo.Priority.Label() }
func (i listItem) FilterValue() string { return i.todo.Description }

type mode int

const (
	browsing mode = iota
	adding
	editing
)

// todosChangedMsg carries the store snapshot after a transition.
type todosChangedMsg []model.Todo

type Model struct {
	backend Backend
	list    list.Model
	ti      textinput.Model

	mode     mode
	editID   string
	priority model.Priority // priority of the todo being added or edited
	formErr  string

	changes chan []model.Todo
	width   int
	height  int
}

// Custom delegate to control how items render (single line).
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Selected.Render("> ")
	}
	fmt.Fprintln(w, prefix+ui.Badge(it.todo.Priority)+" "+ui.Truncate(it.todo.Description, 80))
}

var (
	addBind      = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind     = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	priorityBind = key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority"))
	deleteBind   = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
)

// New builds the list model and subscribes it to the store. Call Close
// when the program has finished.
func New(b Backend) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.Current().Title
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, priorityBind, deleteBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, priorityBind, deleteBind} }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{
		backend: b,
		list:    l,
		ti:      ti,
		changes: make(chan []model.Todo, 1),
		width:   80,
		height:  24,
	}
	m.setTodos(b.Todos())
	return m
}

// Subscribe wires store notifications into the model's change channel and
// returns the unsubscribe function.
func (m Model) Subscribe() func() {
	ch := m.changes
	return m.backend.Subscribe(func(_ store.Mutation, todos []model.Todo) {
		// Keep only the newest snapshot.
		select {
		case <-ch:
		default:
		}
		ch <- todos
	})
}

func (m Model) waitForChange() tea.Msg {
	todos, ok := <-m.changes
	if !ok {
		return nil
	}
	return todosChangedMsg(todos)
}

// Run starts the program and blocks until the user quits.
func Run(b Backend, opts ...tea.ProgramOption) error {
	m := New(b)
	unsubscribe := m.Subscribe()
	defer func() {
		unsubscribe()
		close(m.changes)
	}()

	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

func (m *Model) setTodos(todos []model.Todo) {
	items := make([]list.Item, 0, len(todos))
	counts := map[model.Priority]int{}
	for _, t := range todos {
		items = append(items, listItem{todo: t})
		counts[t.Priority]++
	}
	m.list.SetItems(items)

	t := ui.Current()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d  %s %d",
		"Todos",
		t.High.Render("High"), counts[model.PriorityHigh],
		t.Middle.Render("Middle"), counts[model.PriorityMiddle],
		t.Low.Render("Low"), counts[model.PriorityLow],
		t.Accent.Render("Total"), len(todos),
	)
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

// Update and View implement Bubble Tea's Model.
func (m Model) Init() tea.Cmd { return m.waitForChange }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case todosChangedMsg:
		m.setTodos(msg)
		return m, m.waitForChange
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	}

	if m.mode != browsing {
		return m.updateForm(msg)
	}

	km, isKey := msg.(tea.KeyMsg)
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch km.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "a":
		m.mode = adding
		m.priority = model.PriorityLow
		m.formErr = ""
		m.ti.SetValue("")
		m.ti.Placeholder = "New todo description..."
		return m, m.ti.Focus()
	case "e":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = editing
		m.editID = t.ID
		m.priority = t.Priority
		m.formErr = ""
		m.ti.SetValue(t.Description)
		m.ti.CursorEnd()
		m.ti.Placeholder = "Edit description..."
		return m, m.ti.Focus()
	case "p":
		if t, ok := m.selected(); ok {
			t.Priority = t.Priority.Next()
			m.backend.EditTodo(t)
		}
		return m, nil
	case "d":
		if t, ok := m.selected(); ok {
			m.backend.DeleteTodo(t.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			var err error
			if m.mode == adding {
				_, err = m.backend.Create(m.ti.Value(), m.priority)
			} else {
				var found bool
				_, found, err = m.backend.Update(m.editID, m.ti.Value(), m.priority)
				if err == nil && !found {
					err = errors.New("todo no longer exists")
				}
			}
			if err != nil {
				m.formErr = formMessage(err)
				return m, nil
			}
			m.closeForm()
			return m, nil
		case "tab":
			m.priority = m.priority.Next()
			return m, nil
		case "esc":
			m.closeForm()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) closeForm() {
	m.mode = browsing
	m.editID = ""
	m.formErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func formMessage(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return strings.ToUpper(ve.Field[:1]) + ve.Field[1:] + ": " + ve.Message()
	}
	return err.Error()
}

func (m Model) View() string {
	listHeight := m.height - 4
	if m.mode != browsing {
		listHeight = m.height - 7
	}
	m.list.SetSize(m.width-4, max(listHeight, 3))

	content := m.list.View()
	if m.mode != browsing {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Add todo"
		if m.mode == editing {
			title = "Edit todo"
		}
		title += "  " + ui.Badge(m.priority) + ui.Current().Muted.Render("  tab: priority  enter: save  esc: cancel")
		if m.formErr != "" {
			title += "\n" + ui.Current().Error.Render(m.formErr)
		}
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	return panelString(content)
}

func panelString(inner string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	return border.Render(inner)
}
