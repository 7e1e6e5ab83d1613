// Package ui is the interactive Bubble Tea browser over one list
// engine. It renders whatever the engine's View says and sends every
// user intent back as an engine call; no list state lives here.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/avencourt/listflow/internal/engine"
	"github.com/avencourt/listflow/internal/revalidate"
	"github.com/avencourt/listflow/pkg/api"
)

// stateMsg is sent whenever the engine broadcasts a change.
type stateMsg struct{}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Browse opens the interactive table for one filter set and blocks
// until the user quits.
func Browse(ctx context.Context, ctrl *engine.Controller, fs api.FilterSet) error {
	m := newModel(ctx, ctrl)
	p := tea.NewProgram(m, tea.WithAltScreen())
	ctrl.Subscribe(func() { p.Send(stateMsg{}) })
	ctrl.Use(ctx, fs)
	_, err := p.Run()
	ctrl.Flush()
	return err
}

type model struct {
	ctx   context.Context
	ctrl  *engine.Controller
	table table.Model
	query textinput.Model

	filtering bool
	shown     []api.Item // rows currently backing the table
}

func newModel(ctx context.Context, ctrl *engine.Controller) *model {
	cols := []table.Column{
		{Title: "★", Width: 2},
		{Title: "Title", Width: 42},
		{Title: "Category", Width: 16},
		{Title: "Price", Width: 10},
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(18),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	q := textinput.New()
	q.Placeholder = "type to refine"
	q.CharLimit = 64

	return &model{ctx: ctx, ctrl: ctrl, table: t, query: q}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.reload()
		return m, nil

	case tea.WindowSizeMsg:
		h := msg.Height - 6
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "enter", "esc":
				if msg.String() == "esc" {
					m.query.SetValue("")
				}
				m.filtering = false
				m.query.Blur()
				m.reload()
				return m, nil
			}
			var cmd tea.Cmd
			m.query, cmd = m.query.Update(msg)
			m.reload()
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.filtering = true
			m.query.Focus()
			return m, textinput.Blink
		case "r":
			m.ctrl.Refresh(m.ctx)
			return m, nil
		case "m":
			m.ctrl.LoadMore(m.ctx)
			return m, nil
		case "f":
			if it, ok := m.selected(); ok {
				m.ctrl.Toggle(m.ctx, it.ID)
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				m.ctrl.Delete(m.ctx, it.ID)
			}
			return m, nil
		case "J":
			m.move(+1)
			return m, nil
		case "K":
			m.move(-1)
			return m, nil
		case "esc":
			m.ctrl.ClearNotice()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) selected() (api.Item, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return api.Item{}, false
	}
	return m.shown[i], true
}

// move drags the selected row one step. Dragging lands the row before
// its new neighbor, so down means "before the item after next".
func (m *model) move(delta int) {
	if m.query.Value() != "" {
		return // reordering a refined subset would scramble the list
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return
	}
	switch delta {
	case -1:
		if i == 0 {
			return
		}
		m.ctrl.Reorder(m.ctx, m.shown[i].ID, m.shown[i-1].ID)
		m.table.SetCursor(i - 1)
	case +1:
		if i >= len(m.shown)-1 {
			return
		}
		if i+2 < len(m.shown) {
			m.ctrl.Reorder(m.ctx, m.shown[i].ID, m.shown[i+2].ID)
		} else {
			// No row after the target; reorder by dragging the last row
			// up instead.
			m.ctrl.Reorder(m.ctx, m.shown[i+1].ID, m.shown[i].ID)
		}
		m.table.SetCursor(i + 1)
	}
}

// reload rebuilds the table rows from the engine view, applying the
// local fuzzy refinement when a query is active.
func (m *model) reload() {
	v := m.ctrl.View()
	items := v.Items
	if q := m.query.Value(); q != "" {
		matches := fuzzy.FindFrom(q, titleSource(items))
		refined := make([]api.Item, 0, len(matches))
		for _, match := range matches {
			refined = append(refined, items[match.Index])
		}
		items = refined
	}
	m.shown = items

	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		star := ""
		if it.Featured {
			star = "★"
		}
		rows = append(rows, table.Row{
			star,
			truncate(it.Title, 42),
			truncate(it.Category, 16),
			formatPrice(it.Price),
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *model) View() string {
	v := m.ctrl.View()

	header := statusStyle.Render(statusLine(v))
	if v.Notice != "" {
		header = noticeStyle.Render(v.Notice)
	}

	body := m.table.View()
	footer := helpStyle.Render("↑/↓ move • J/K drag • f feature • d delete • m more • r refresh • / refine • q quit")
	if m.filtering || m.query.Value() != "" {
		footer = "/" + m.query.View()
	}
	return header + "\n" + body + "\n" + footer + "\n"
}

func statusLine(v engine.View) string {
	shown := len(v.Items)
	line := fmt.Sprintf("%d/%d shown", shown, v.Total)
	if v.HasMore {
		line += " • more pages"
	}
	switch {
	case v.LoadingMore:
		line += " • loading…"
	case v.Status == revalidate.StatusLoading:
		line = "loading…"
	case v.Status == revalidate.StatusWarmup, v.Status == revalidate.StatusRefreshing:
		line += " • refreshing"
	}
	return line
}

type titleSource []api.Item

func (s titleSource) String(i int) string { return s[i].Title }
func (s titleSource) Len() int            { return len(s) }

func formatPrice(cents int64) string {
	if cents == 0 {
		return ""
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
