// Package tui renders the card grid in a terminal. The grid is hosted by a
// scroll.Controller whose visibility observer is a visibility.Viewport fed
// with the terminal's scroll position and the cards' row bounds.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Sternrassler/pokegrid/pkg/aggregate"
	"github.com/Sternrassler/pokegrid/pkg/scroll"
	"github.com/Sternrassler/pokegrid/pkg/visibility"
)

// Layout constants for the grid
const (
	Columns = 2

	// CardHeight is border (2) plus name and image lines.
	CardHeight = 4

	// FooterLines is the status line under the grid.
	FooterLines = 1

	// GridClass is handed to the controller as its root class.
	GridClass = "grid-cols-2"
)

var titleCaser = cases.Title(language.Und)

// Options configures the grid.
type Options struct {
	Fetch       scroll.FetchFunc[aggregate.Card]
	InitialPage int
	Visibility  visibility.Config
}

// Model is the bubbletea model of the card grid.
type Model struct {
	ctx      context.Context
	ctrl     *scroll.Controller[aggregate.Card, string]
	viewport *visibility.Viewport
	updates  chan struct{}
	keys     KeyMap

	width  int
	height int
	offset int
	cards  int
}

// New creates the grid model. The first page is requested by Init.
func New(ctx context.Context, opts Options) Model {
	updates := make(chan struct{}, 1)
	vp := visibility.NewViewport(0, 0)

	ctrl := scroll.New(scroll.Config[aggregate.Card, string]{
		Fetch:       opts.Fetch,
		Render:      RenderCard,
		InitialPage: opts.InitialPage,
		Visibility:  opts.Visibility,
		Observer:    vp.Factory(),
		Class:       GridClass,
		OnUpdate: func() {
			select {
			case updates <- struct{}{}:
			default:
			}
		},
	})

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		viewport: vp,
		updates:  updates,
		keys:     DefaultKeyMap(),
	}
}

// RenderCard renders a card's content: the capitalised name over the image
// location.
func RenderCard(c aggregate.Card) string {
	img := c.ImageURL
	if img == "" {
		img = "(no image)"
	}
	return titleCaser.String(c.Name) + "\n" + img
}

// Init starts the controller.
func (m Model) Init() tea.Cmd {
	m.ctrl.Start(m.ctx)
	return waitForUpdate(m.updates)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Resize(0, m.bodyHeight())
		m.layout()
		m.scrollTo(m.offset)
		return m, nil

	case ItemsChangedMsg:
		m.layout()
		return m, waitForUpdate(m.updates)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.scrollTo(m.offset - 1)
	case key.Matches(msg, m.keys.Down):
		m.scrollTo(m.offset + 1)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollTo(m.offset - m.bodyHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.scrollTo(m.offset + m.bodyHeight())
	case key.Matches(msg, m.keys.Home):
		m.scrollTo(0)
	case key.Matches(msg, m.keys.End):
		m.scrollTo(m.maxOffset())
	}
	return m, nil
}

// layout registers card bounds with the viewport and attaches the tracker
// to the last card.
func (m *Model) layout() {
	v := m.ctrl.View()
	m.cards = len(v.Items)
	for _, w := range v.Items {
		m.viewport.SetBounds(w.Key, m.cardRect(w.Key))
	}
	if n := len(v.Items); n > 0 {
		last := v.Items[n-1]
		last.Ref(last.Key)
	}
}

func (m *Model) scrollTo(offset int) {
	m.offset = max(0, min(offset, m.maxOffset()))
	m.viewport.ScrollTo(m.offset)
}

func (m Model) cardRect(i int) visibility.Rect {
	w := m.columnWidth()
	return visibility.Rect{
		Top:    (i / Columns) * CardHeight,
		Left:   (i % Columns) * w,
		Width:  w,
		Height: CardHeight,
	}
}

func (m Model) columnWidth() int {
	return m.width / Columns
}

func (m Model) bodyHeight() int {
	return max(0, m.height-FooterLines)
}

func (m Model) contentHeight() int {
	rows := (m.cards + Columns - 1) / Columns
	return rows * CardHeight
}

func (m Model) maxOffset() int {
	return max(0, m.contentHeight()-m.bodyHeight())
}

// Cursor returns the controller's page cursor.
func (m Model) Cursor() int {
	return m.ctrl.Cursor()
}

// Close stops the controller.
func (m Model) Close() {
	m.ctrl.Close()
}

// View renders the visible slice of the grid plus the footer.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	body := m.renderGrid()
	lines := strings.Split(body, "\n")
	if body == "" {
		lines = nil
	}
	end := min(len(lines), m.offset+m.bodyHeight())
	start := min(m.offset, end)
	visible := lines[start:end]
	for len(visible) < m.bodyHeight() {
		visible = append(visible, "")
	}

	return strings.Join(visible, "\n") + "\n" + m.renderFooter()
}

func (m Model) renderGrid() string {
	v := m.ctrl.View()
	if len(v.Items) == 0 {
		return ""
	}

	colWidth := m.columnWidth()
	inner := max(1, colWidth-4)
	style := CardStyle.Width(max(1, colWidth-2))

	var rows []string
	for i := 0; i < len(v.Items); i += Columns {
		var cells []string
		for j := i; j < i+Columns && j < len(v.Items); j++ {
			name, img, _ := strings.Cut(v.Items[j].Content, "\n")
			cells = append(cells, style.Render(
				NameStyle.Render(truncate(name, inner))+"\n"+
					URLStyle.Render(truncate(img, inner)),
			))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderFooter() string {
	status := StatusStyle.Render(fmt.Sprintf("page %d · %d cards", m.ctrl.Cursor(), m.cards))

	var help []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return status + "  " + HelpStyle.Render(strings.Join(help, " • "))
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
