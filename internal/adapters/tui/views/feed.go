package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"notedeck/internal/adapters/tui/styles"
	"notedeck/internal/feed"
	"notedeck/internal/ports"
)

// FeedKeyMap defines key bindings for the card feed.
type FeedKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Open     key.Binding
	Obsidian key.Binding
	Copy     key.Binding
}

var FeedKeys = FeedKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "right"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("ctrl+d", "page down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("ctrl+u", "page up"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open in editor"),
	),
	Obsidian: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in Obsidian"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
}

// Messages emitted by the feed for the app to route.

// FeedScrolledMsg signals that the viewport scrolled or the selection moved.
type FeedScrolledMsg struct{}

// OpenEditorMsg asks the app to open a note in the terminal editor.
type OpenEditorMsg struct{ Path string }

// OpenObsidianMsg asks the app to open a note in Obsidian.
type OpenObsidianMsg struct{ Path string }

// CopyPathMsg asks the app to copy a note path to the clipboard.
type CopyPathMsg struct{ Path string }

// renderCacheSize bounds the rendered-card cache; entries also expire so a
// long session does not pin stale renders.
const (
	renderCacheSize = 1024
	renderCacheTTL  = 10 * time.Minute
)

type itemAnchor struct {
	path string
	top  int
}

// FeedModel renders the card grid. It implements ports.FeedRenderer and
// ports.Viewport: the engine mutates it through those interfaces and it
// answers the engine's measurements, so all layout knowledge stays here.
type FeedModel struct {
	cardWidth  int
	cardHeight int
	gutter     int

	width  int
	height int

	groups    []ports.CardGroup
	flat      []ports.Card
	lines     []string
	itemTops  map[string]int
	anchors   []itemAnchor
	scrollTop int
	selected  int
	indicator bool

	renders *expirable.LRU[string, string]
}

var (
	_ ports.FeedRenderer = (*FeedModel)(nil)
	_ ports.Viewport     = (*FeedModel)(nil)
)

// NewFeedModel creates an empty feed with the given card geometry.
func NewFeedModel(cardWidth, cardHeight, gutter int) *FeedModel {
	return &FeedModel{
		cardWidth:  cardWidth,
		cardHeight: cardHeight,
		gutter:     gutter,
		itemTops:   make(map[string]int),
		indicator:  true,
		renders:    expirable.NewLRU[string, string](renderCacheSize, nil, renderCacheTTL),
	}
}

// Init implements tea.Model.
func (m *FeedModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the feed's content area and reflows the grid.
func (m *FeedModel) SetSize(width, height int) {
	if width == m.width && height == m.height {
		return
	}
	m.width = width
	m.height = height
	m.layout()
}

// Update handles feed key events.
func (m *FeedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, FeedKeys.Down):
		return m, m.moveSelection(m.columns())
	case key.Matches(keyMsg, FeedKeys.Up):
		return m, m.moveSelection(-m.columns())
	case key.Matches(keyMsg, FeedKeys.Right):
		return m, m.moveSelection(1)
	case key.Matches(keyMsg, FeedKeys.Left):
		return m, m.moveSelection(-1)
	case key.Matches(keyMsg, FeedKeys.PageDown):
		return m, m.moveSelection(m.columns() * m.rowsPerPage())
	case key.Matches(keyMsg, FeedKeys.PageUp):
		return m, m.moveSelection(-m.columns() * m.rowsPerPage())
	case key.Matches(keyMsg, FeedKeys.Top):
		return m, m.moveSelectionTo(0)
	case key.Matches(keyMsg, FeedKeys.Bottom):
		return m, m.moveSelectionTo(len(m.flat) - 1)
	case key.Matches(keyMsg, FeedKeys.Open):
		if path, ok := m.SelectedPath(); ok {
			return m, func() tea.Msg { return OpenEditorMsg{Path: path} }
		}
	case key.Matches(keyMsg, FeedKeys.Obsidian):
		if path, ok := m.SelectedPath(); ok {
			return m, func() tea.Msg { return OpenObsidianMsg{Path: path} }
		}
	case key.Matches(keyMsg, FeedKeys.Copy):
		if path, ok := m.SelectedPath(); ok {
			return m, func() tea.Msg { return CopyPathMsg{Path: path} }
		}
	}
	return m, nil
}

// SelectedPath returns the path of the selected card.
func (m *FeedModel) SelectedPath() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.flat) {
		return "", false
	}
	return m.flat[m.selected].Item.Path, true
}

func (m *FeedModel) moveSelection(delta int) tea.Cmd {
	return m.moveSelectionTo(m.selected + delta)
}

func (m *FeedModel) moveSelectionTo(pos int) tea.Cmd {
	if len(m.flat) == 0 {
		return nil
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(m.flat) {
		pos = len(m.flat) - 1
	}
	if pos == m.selected {
		return nil
	}
	m.selected = pos
	m.layout()
	m.ensureSelectedVisible()
	return func() tea.Msg { return FeedScrolledMsg{} }
}

func (m *FeedModel) ensureSelectedVisible() {
	path, ok := m.SelectedPath()
	if !ok {
		return
	}
	top, ok := m.itemTops[path]
	if !ok {
		return
	}
	if top < m.scrollTop {
		m.scrollTop = top
	} else if bottom := top + m.cardHeight; bottom > m.scrollTop+m.height {
		m.scrollTop = bottom - m.height
	}
	m.clampScroll()
}

func (m *FeedModel) rowsPerPage() int {
	rows := m.height / m.cardHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *FeedModel) columns() int {
	return feed.Columns(m.width, m.cardWidth, m.gutter)
}

// --- ports.FeedRenderer ---

// Rebuild discards the current feed and recreates it from groups.
func (m *FeedModel) Rebuild(groups []ports.CardGroup) {
	m.groups = append(m.groups[:0], groups...)
	m.selected = 0
	m.scrollTop = 0
	m.layout()
}

// StartGroup opens a new trailing group container.
func (m *FeedModel) StartGroup(group ports.CardGroup) {
	m.groups = append(m.groups, group)
	m.layout()
}

// AppendToGroup appends cards to the trailing group container.
func (m *FeedModel) AppendToGroup(key string, cards []ports.Card) {
	if len(m.groups) == 0 {
		panic("feed: append with no groups")
	}
	last := &m.groups[len(m.groups)-1]
	if last.Key != key {
		panic(fmt.Sprintf("feed: append to %q but trailing group is %q", key, last.Key))
	}
	last.Cards = append(last.Cards, cards...)
	m.layout()
}

// CardCount reports how many cards are materialized.
func (m *FeedModel) CardCount() int {
	return len(m.flat)
}

// HasContent reports whether the feed holds rendered cards.
func (m *FeedModel) HasContent() bool {
	return len(m.flat) > 0
}

// SetScrollIndicator shows or hides the scroll position indicator.
func (m *FeedModel) SetScrollIndicator(visible bool) {
	m.indicator = visible
}

// IndicatorVisible reports whether the scroll indicator should be drawn.
func (m *FeedModel) IndicatorVisible() bool {
	return m.indicator
}

// --- ports.Viewport ---

// Size returns the content width and client height in terminal cells.
func (m *FeedModel) Size() (int, int) {
	return m.width, m.height
}

// ScrollTop returns the current scroll offset in lines.
func (m *FeedModel) ScrollTop() int {
	return m.scrollTop
}

// MaxScroll returns the largest valid scroll offset.
func (m *FeedModel) MaxScroll() int {
	max := len(m.lines) - m.height
	if max < 0 {
		return 0
	}
	return max
}

// SetScrollTop scrolls the feed, clamped to the valid range.
func (m *FeedModel) SetScrollTop(top int) {
	m.scrollTop = top
	m.clampScroll()
}

// ItemTop returns the content line the item's card starts on.
func (m *FeedModel) ItemTop(path string) (int, bool) {
	top, ok := m.itemTops[path]
	return top, ok
}

// AnchorItem returns the topmost visible item and the offset back to the
// current scroll position.
func (m *FeedModel) AnchorItem() (string, int, bool) {
	for _, a := range m.anchors {
		if a.top+m.cardHeight > m.scrollTop {
			return a.path, m.scrollTop - a.top, true
		}
	}
	return "", 0, false
}

func (m *FeedModel) clampScroll() {
	if m.scrollTop > m.MaxScroll() {
		m.scrollTop = m.MaxScroll()
	}
	if m.scrollTop < 0 {
		m.scrollTop = 0
	}
}

// ScrollPercent returns the scroll position as 0-100.
func (m *FeedModel) ScrollPercent() int {
	max := m.MaxScroll()
	if max == 0 {
		return 100
	}
	return m.scrollTop * 100 / max
}

// --- layout ---

// layout renders all groups into content lines and records item offsets.
// Card blocks come from the render cache, so a full reflow is cheap.
func (m *FeedModel) layout() {
	m.lines = m.lines[:0]
	m.flat = m.flat[:0]
	m.anchors = m.anchors[:0]
	for k := range m.itemTops {
		delete(m.itemTops, k)
	}

	cols := m.columns()
	spacer := strings.Repeat(" ", m.gutter)
	flatIndex := 0

	for _, g := range m.groups {
		if g.Label != "" {
			m.lines = append(m.lines, styles.GroupHeader.Render(g.Label), "")
		}

		for i := 0; i < len(g.Cards); i += cols {
			end := i + cols
			if end > len(g.Cards) {
				end = len(g.Cards)
			}

			top := len(m.lines)
			blocks := make([]string, 0, 2*(end-i))
			for _, card := range g.Cards[i:end] {
				m.itemTops[card.Item.Path] = top
				m.anchors = append(m.anchors, itemAnchor{path: card.Item.Path, top: top})
				if len(blocks) > 0 && m.gutter > 0 {
					blocks = append(blocks, spacer)
				}
				blocks = append(blocks, m.renderCard(card, flatIndex == m.selected))
				m.flat = append(m.flat, card)
				flatIndex++
			}

			row := lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
			m.lines = append(m.lines, strings.Split(row, "\n")...)
		}

		m.lines = append(m.lines, "")
	}

	m.clampScroll()
	if m.selected >= len(m.flat) {
		m.selected = len(m.flat) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *FeedModel) renderCard(card ports.Card, selected bool) string {
	key := fmt.Sprintf("%s|%d|%d|%t", card.Item.Path, card.Item.ModTime.Unix(), m.cardWidth, selected)
	if block, ok := m.renders.Get(key); ok {
		return block
	}

	innerWidth := m.cardWidth - 4 // borders and padding
	if innerWidth < 1 {
		innerWidth = 1
	}

	var b strings.Builder
	b.WriteString(styles.CardTitle.Render(truncateLine(card.Item.Name, innerWidth)))
	if card.HasImage {
		b.WriteString("\n")
		b.WriteString(styles.CardImageMark.Render(truncateLine("▦ "+firstImage(card), innerWidth)))
	}
	if card.Text != "" {
		b.WriteString("\n")
		b.WriteString(styles.CardPreview.Render(card.Text))
	}

	style := styles.Card
	if selected {
		style = styles.CardSelected
	}
	block := style.
		Width(m.cardWidth - 2).
		Height(m.cardHeight - 2).
		MaxHeight(m.cardHeight).
		Render(b.String())

	m.renders.Add(key, block)
	return block
}

func firstImage(card ports.Card) string {
	if len(card.Images) == 0 {
		return "image"
	}
	return card.Images[0]
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// View renders the visible window of the feed.
func (m *FeedModel) View() string {
	if len(m.lines) == 0 {
		return styles.MutedText.Render("No notes in this deck.")
	}

	end := m.scrollTop + m.height
	if end > len(m.lines) {
		end = len(m.lines)
	}
	start := m.scrollTop
	if start > end {
		start = end
	}

	window := make([]string, end-start)
	copy(window, m.lines[start:end])
	for len(window) < m.height {
		window = append(window, "")
	}
	return strings.Join(window, "\n")
}
