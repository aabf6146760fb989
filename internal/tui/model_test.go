package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pokegrid/pkg/aggregate"
	"github.com/Sternrassler/pokegrid/pkg/visibility"
)

type pages struct {
	mu    sync.Mutex
	calls []int
	size  int
}

func (p *pages) fetch(_ context.Context, page int) ([]aggregate.Card, error) {
	p.mu.Lock()
	p.calls = append(p.calls, page)
	p.mu.Unlock()

	out := make([]aggregate.Card, p.size)
	for i := range out {
		n := (page-1)*p.size + i + 1
		out[i] = aggregate.Card{Name: fmt.Sprintf("mon-%d", n), ImageURL: fmt.Sprintf("https://img/%d.png", n)}
	}
	return out, nil
}

func (p *pages) requested() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.calls...)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// started returns a model with its first page loaded and sized to w x h.
func started(t *testing.T, p *pages, w, h int) Model {
	t.Helper()
	return startedWith(t, p, w, h, visibility.Config{UnobserveWhenVisible: true})
}

func startedWith(t *testing.T, p *pages, w, h int, vis visibility.Config) Model {
	t.Helper()
	m := New(context.Background(), Options{
		Fetch:      p.fetch,
		Visibility: vis,
	})
	t.Cleanup(m.Close)

	m.Init()
	m.ctrl.Wait()

	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func TestRenderCard(t *testing.T) {
	assert.Equal(t, "Bulbasaur\nu1", RenderCard(aggregate.Card{Name: "bulbasaur", ImageURL: "u1"}))
	assert.Equal(t, "Missingno\n(no image)", RenderCard(aggregate.Card{Name: "missingno"}))
}

func TestModel_InitialLayout(t *testing.T) {
	p := &pages{size: 10}
	m := started(t, p, 80, 10)

	assert.Equal(t, []int{1}, p.requested())
	assert.Equal(t, 10, m.cards)
	assert.Equal(t, 20, m.contentHeight())
	assert.Equal(t, 11, m.maxOffset())
	assert.Equal(t, visibility.Rect{Top: 16, Left: 40, Width: 40, Height: 4}, m.cardRect(9))

	out := m.View()
	assert.Contains(t, out, "Mon-1")
	assert.Contains(t, out, "Mon-2")
	assert.NotContains(t, out, "Mon-10", "last row is below the fold")
	assert.Contains(t, out, "page 1 · 10 cards")
	assert.Len(t, strings.Split(out, "\n"), 10)
}

func TestModel_ScrollToEndLoadsNextPage(t *testing.T) {
	p := &pages{size: 10}
	m := started(t, p, 80, 10)

	next, _ := m.Update(keyMsg("j"))
	m = next.(Model)
	assert.Equal(t, 1, m.offset)
	assert.Equal(t, 1, m.Cursor())

	next, _ = m.Update(keyMsg("G"))
	m = next.(Model)
	m.ctrl.Wait()

	assert.Equal(t, 11, m.offset)
	assert.Equal(t, 2, m.Cursor())
	assert.Equal(t, []int{1, 2}, p.requested())

	next, _ = m.Update(ItemsChangedMsg{})
	m = next.(Model)
	assert.Equal(t, 20, m.cards)
	assert.Contains(t, m.View(), "Mon-10")

	// New last card is far below; staying put does not load more.
	next, _ = m.Update(keyMsg("k"))
	m = next.(Model)
	m.ctrl.Wait()
	assert.Equal(t, 2, m.Cursor())
}

func TestModel_DefaultMarginLoadsRightColumn(t *testing.T) {
	p := &pages{size: 20}
	m := startedWith(t, p, 120, 24, visibility.DefaultConfig())
	m.ctrl.Wait()

	// Last card (row 9, right column) sits inside the 40 row margin.
	assert.Equal(t, visibility.Rect{Top: 36, Left: 60, Width: 60, Height: 4}, m.cardRect(19))
	assert.Equal(t, 2, m.Cursor())
	assert.Equal(t, []int{1, 2}, p.requested())

	next, _ := m.Update(ItemsChangedMsg{})
	m = next.(Model)
	m.ctrl.Wait()
	assert.Equal(t, 40, m.cards)
	assert.Equal(t, 2, m.Cursor(), "new last card is beyond the margin")

	next, _ = m.Update(keyMsg("G"))
	m = next.(Model)
	m.ctrl.Wait()
	assert.Equal(t, 57, m.offset)
	assert.Equal(t, 3, m.Cursor())
	assert.Equal(t, []int{1, 2, 3}, p.requested())
}

func TestModel_ScrollClamps(t *testing.T) {
	p := &pages{size: 4}
	m := started(t, p, 80, 20)

	// Content (8 rows) fits the body; nothing to scroll.
	next, _ := m.Update(keyMsg("G"))
	m = next.(Model)
	assert.Zero(t, m.offset)

	next, _ = m.Update(keyMsg("k"))
	m = next.(Model)
	assert.Zero(t, m.offset)
}

func TestModel_ShortListRevealsImmediately(t *testing.T) {
	p := &pages{size: 2}
	m := started(t, p, 80, 20)
	m.ctrl.Wait()

	assert.Equal(t, 2, m.Cursor(), "last card is visible as soon as it is laid out")
}

func TestModel_Quit(t *testing.T) {
	p := &pages{size: 2}
	m := New(context.Background(), Options{Fetch: p.fetch})

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ViewBeforeSize(t *testing.T) {
	m := New(context.Background(), Options{Fetch: (&pages{}).fetch})
	defer m.Close()
	assert.Equal(t, "Loading...", m.View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "a", truncate("abc", 1))
}
