// Package tui is the terminal front end. It renders the same list view as the
// web page and redraws whenever the store reports a change.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/s1natex/minitodo/internal/tasks"
)

type focus int

const (
	focusList focus = iota
	focusInput
)

// storeChangedMsg is delivered after every store mutation made by this
// model; it clamps the cursor to the new list and triggers a redraw.
type storeChangedMsg struct{}

type Model struct {
	ctx   context.Context
	store *tasks.Store

	form   tasks.Form
	input  textinput.Model
	filter tasks.Filter
	cursor int
	focus  focus
	status string

	keys keyMap
	help help.Model
	now  func() time.Time
	loc  *time.Location
}

func New(ctx context.Context, store *tasks.Store) Model {
	ti := textinput.New()
	ti.Placeholder = "Add a new task..."
	ti.Prompt = "+ "
	ti.Width = 40

	return Model{
		ctx:    ctx,
		store:  store,
		input:  ti,
		filter: tasks.FilterAll,
		focus:  focusList,
		keys:   defaultKeyMap(),
		help:   help.New(),
		now:    time.Now,
		loc:    time.Local,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case storeChangedMsg:
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.form.Draft = m.input.Value()
		_, ok, err := m.form.Submit(m.ctx, m.store)
		m.input.SetValue(m.form.Draft)
		m.setStatus(err)
		if ok {
			// keep the new row in view
			m.cursor = len(m.store.Visible(m.filter)) - 1
			m.clampCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.SwitchTab):
		m.focus = focusList
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.store.Visible(m.filter)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add), key.Matches(msg, m.keys.SwitchTab):
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(visible) {
			_, _, err := m.store.Toggle(m.ctx, visible[m.cursor].ID)
			m.setStatus(err)
		}

	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(visible) {
			_, err := m.store.Delete(m.ctx, visible[m.cursor].ID)
			m.setStatus(err)
		}

	case key.Matches(msg, m.keys.All):
		m.setFilter(tasks.FilterAll)
	case key.Matches(msg, m.keys.Active):
		m.setFilter(tasks.FilterActive)
	case key.Matches(msg, m.keys.Completed):
		m.setFilter(tasks.FilterCompleted)
	case key.Matches(msg, m.keys.NextView):
		m.setFilter(shiftFilter(m.filter, 1))
	case key.Matches(msg, m.keys.PrevView):
		m.setFilter(shiftFilter(m.filter, -1))
	}

	m.clampCursor()
	return m, nil
}

func (m *Model) setFilter(f tasks.Filter) {
	if m.filter != f {
		m.filter = f
		m.cursor = 0
	}
}

func (m *Model) setStatus(err error) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) clampCursor() {
	n := len(m.store.Visible(m.filter))
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func shiftFilter(f tasks.Filter, delta int) tasks.Filter {
	n := len(tasks.Filters)
	for i, v := range tasks.Filters {
		if v == f {
			return tasks.Filters[((i+delta)%n+n)%n]
		}
	}
	return tasks.FilterAll
}

func (m Model) View() string {
	page := tasks.BuildPage(m.store.Tasks(), m.filter, m.input.Value(), m.now(), m.loc)

	var b strings.Builder
	b.WriteString(titleStyle.Render(page.Title))
	b.WriteString("  ")
	b.WriteString(captionStyle.Render(page.Caption))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	tabs := make([]string, 0, len(page.Tabs))
	for _, tab := range page.Tabs {
		if tab.Active {
			tabs = append(tabs, activeTabStyle.Render(tab.Label))
		} else {
			tabs = append(tabs, tabStyle.Render(tab.Label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	if page.Empty {
		b.WriteString(placeholderStyle.Render(page.EmptyText))
		b.WriteString("\n")
	}
	for i, row := range page.Rows {
		b.WriteString(m.renderRow(i, row))
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render(fmt.Sprintf("%s · %s", page.TotalLabel, page.CompletedLabel)))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	bindings := m.keys.listHelp()
	if m.focus == focusInput {
		bindings = m.keys.inputHelp()
	}
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

func (m Model) renderRow(i int, row tasks.Row) string {
	cursor := "  "
	if m.focus == focusList && i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	check := "○"
	text := row.Text
	if row.Completed {
		check = checkStyle.Render("✔")
		text = doneTextStyle.Render(text)
	}
	return fmt.Sprintf("%s%s %s  %s", cursor, check, text, metaStyle.Render(row.CreatedAt))
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, store *tasks.Store, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, store), opts...)

	// Send blocks until the event loop reads the message, and the loop itself
	// triggers store changes, so deliver from a separate goroutine.
	unsubscribe := store.Subscribe(func() {
		go p.Send(storeChangedMsg{})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}
