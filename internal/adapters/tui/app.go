package tui

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"notedeck/internal/adapters/editor"
	"notedeck/internal/adapters/obsidian"
	"notedeck/internal/adapters/tui/styles"
	"notedeck/internal/adapters/tui/views"
	"notedeck/internal/config"
	"notedeck/internal/domain"
	"notedeck/internal/feed"
	"notedeck/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewHelp
)

// chrome is the rows taken by the deck tabs and the status bar.
const chrome = 2

// Gap between a group header and its first card row, in lines.
const layoutGap = 2

const cardGutter = 1

// App is the main TUI application model. Each configured deck gets its own
// feed model and coordinator; the cache and scroll store are shared across
// decks for the session.
type App struct {
	cfg       *config.Config
	engine    ports.QueryEngine
	index     ports.PreviewIndex
	store     *feed.ScrollStore
	log       zerolog.Logger
	editor    *editor.Opener
	obsidian  *obsidian.Opener
	vaultPath string

	decks  []config.Deck
	active int
	feeds  map[string]*views.FeedModel
	coords map[string]*feed.Coordinator

	state ViewState
	help  *views.HelpModel
	spin  spinner.Model

	width      int
	height     int
	message    string
	messageErr bool
}

// Options wires the app's collaborators.
type Options struct {
	Config    *config.Config
	Engine    ports.QueryEngine
	Provider  ports.ContentProvider
	Index     ports.PreviewIndex // may be nil when the index failed to open
	Scheduler *Scheduler
	Logger    zerolog.Logger
	VaultPath string
}

// NewApp creates the TUI application.
func NewApp(opts Options) *App {
	a := &App{
		cfg:       opts.Config,
		engine:    opts.Engine,
		index:     opts.Index,
		store:     feed.NewScrollStore(),
		log:       opts.Logger,
		editor:    editor.NewOpener(),
		obsidian:  obsidian.NewOpener(opts.VaultPath),
		vaultPath: opts.VaultPath,
		decks:     opts.Config.Decks,
		feeds:     make(map[string]*views.FeedModel),
		coords:    make(map[string]*feed.Coordinator),
		help:      views.NewHelpModel(),
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	cache := feed.NewContentCache()
	settings := feed.Settings{
		Content:           opts.Config.Feed.ContentSettings(),
		CardWidth:         opts.Config.Feed.CardWidth,
		CardHeight:        opts.Config.Feed.CardHeight,
		Gutter:            cardGutter,
		RowsPerBatch:      opts.Config.Feed.RowsPerBatch,
		MaxBatch:          opts.Config.Feed.MaxBatch,
		TriggerMultiplier: opts.Config.Feed.TriggerMultiplier,
		ScrollCooldown:    opts.Config.Feed.ScrollCooldown,
		LayoutGap:         layoutGap,
	}

	for _, deck := range a.decks {
		fm := views.NewFeedModel(settings.CardWidth, settings.CardHeight, settings.Gutter)
		a.feeds[deck.Name] = fm
		a.coords[deck.Name] = feed.NewCoordinator(feed.Options{
			DeckID:         deck.Name,
			Settings:       settings,
			ShuffleEnabled: deck.Shuffle,
			Renderer:       fm,
			Viewport:       fm,
			Scheduler:      opts.Scheduler,
			Provider:       opts.Provider,
			Cache:          cache,
			Store:          a.store,
			Logger:         opts.Logger,
		})
	}
	return a
}

// --- messages ---

type deckLoadedMsg struct {
	deck     string
	snapshot domain.Snapshot
	err      error
}

type indexSyncedMsg struct {
	stats ports.IndexStats
	err   error
}

type editorFinishedMsg struct{ err error }

type statusMsg struct {
	text  string
	isErr bool
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spin.Tick, a.loadDeck(a.currentDeck())}
	if a.index != nil {
		cmds = append(cmds, a.syncIndex())
	}
	return tea.Batch(cmds...)
}

func (a *App) currentDeck() config.Deck {
	return a.decks[a.active]
}

func (a *App) currentFeed() *views.FeedModel {
	return a.feeds[a.currentDeck().Name]
}

func (a *App) currentCoord() *feed.Coordinator {
	return a.coords[a.currentDeck().Name]
}

func (a *App) loadDeck(deck config.Deck) tea.Cmd {
	return func() tea.Msg {
		snapshot, err := a.engine.Query(deck.Port())
		return deckLoadedMsg{deck: deck.Name, snapshot: snapshot, err: err}
	}
}

func (a *App) syncIndex() tea.Cmd {
	return func() tea.Msg {
		stats, err := a.index.Sync()
		return indexSyncedMsg{stats: stats, err: err}
	}
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		for _, fm := range a.feeds {
			fm.SetSize(msg.Width-2, msg.Height-chrome)
		}
		a.help.SetSize(msg.Width, msg.Height)
		for _, c := range a.coords {
			c.OnResize()
		}
		return a, nil

	case engineFnMsg:
		msg.fn()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case deckLoadedMsg:
		if msg.err != nil {
			a.log.Error().Str("deck", msg.deck).Err(msg.err).Msg("deck query failed")
			a.setMessage(msg.err.Error(), true)
			return a, nil
		}
		coord := a.coords[msg.deck]
		if coord == nil {
			return a, nil
		}
		if deck, ok := a.deckByName(msg.deck); ok && deck.Shuffle {
			coord.SetShuffleOrder(shuffledPaths(msg.snapshot))
		}
		coord.OnDataUpdated(msg.snapshot)
		return a, nil

	case indexSyncedMsg:
		if msg.err != nil {
			a.log.Warn().Err(msg.err).Msg("index sync failed")
			return a, nil
		}
		a.log.Info().
			Int("scanned", msg.stats.FilesScanned).
			Int("updated", msg.stats.Updated).
			Int("removed", msg.stats.Removed).
			Msg("index synced")
		return a, nil

	case views.FeedScrolledMsg:
		a.currentCoord().OnScroll()
		return a, nil

	case views.OpenEditorMsg:
		return a, a.openEditor(a.absPath(msg.Path))

	case views.OpenObsidianMsg:
		path := a.absPath(msg.Path)
		return a, func() tea.Msg {
			if err := a.obsidian.OpenFile(path); err != nil {
				return statusMsg{text: err.Error(), isErr: true}
			}
			return statusMsg{text: "opened in Obsidian"}
		}

	case views.CopyPathMsg:
		path := a.absPath(msg.Path)
		return a, func() tea.Msg {
			if err := clipboard.WriteAll(path); err != nil {
				return statusMsg{text: err.Error(), isErr: true}
			}
			return statusMsg{text: "path copied"}
		}

	case views.SwitchToFeedMsg:
		a.state = ViewFeed
		return a, nil

	case statusMsg:
		a.setMessage(msg.text, msg.isErr)
		return a, nil

	case editorFinishedMsg:
		if msg.err != nil {
			a.setMessage(msg.err.Error(), true)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.state == ViewHelp {
			_, cmd := a.help.Update(msg)
			return a, cmd
		}
		return a.handleFeedKey(msg)
	}

	return a, nil
}

func (a *App) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "?":
		a.state = ViewHelp
		return a, nil
	case "tab":
		return a, a.switchDeck((a.active + 1) % len(a.decks))
	case "shift+tab":
		return a, a.switchDeck((a.active + len(a.decks) - 1) % len(a.decks))
	case "r":
		a.setMessage("", false)
		return a, a.loadDeck(a.currentDeck())
	case "s":
		deck := &a.decks[a.active]
		deck.Shuffle = !deck.Shuffle
		a.currentCoord().SetShuffleEnabled(deck.Shuffle)
		if deck.Shuffle {
			a.setMessage("shuffle on", false)
		} else {
			a.setMessage("shuffle off", false)
		}
		return a, a.loadDeck(*deck)
	}

	if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(a.decks) {
		return a, a.switchDeck(n - 1)
	}

	_, cmd := a.currentFeed().Update(msg)
	return a, cmd
}

// switchDeck moves to another deck. Writes to the scroll store are
// suppressed for the grace window so the outgoing deck's anchor survives
// transient scroll resets; the incoming deck restores its position when it
// still has content, and reloads otherwise.
func (a *App) switchDeck(idx int) tea.Cmd {
	if idx == a.active || idx < 0 || idx >= len(a.decks) {
		return nil
	}

	a.store.SuppressWrites(a.cfg.Feed.SwitchGrace)
	a.currentCoord().OnUnload()
	a.active = idx
	a.setMessage("", false)

	if a.currentCoord().Restore() {
		return nil
	}
	return a.loadDeck(a.currentDeck())
}

func (a *App) deckByName(name string) (config.Deck, bool) {
	for _, d := range a.decks {
		if d.Name == name {
			return d, true
		}
	}
	return config.Deck{}, false
}

func (a *App) absPath(rel string) string {
	return filepath.Join(a.vaultPath, filepath.FromSlash(rel))
}

func (a *App) setMessage(text string, isErr bool) {
	a.message = text
	a.messageErr = isErr
}

func (a *App) openEditor(path string) tea.Cmd {
	cmd, err := a.editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func shuffledPaths(snapshot domain.Snapshot) []string {
	var paths []string
	for _, g := range snapshot.Groups {
		for _, item := range g.Items {
			paths = append(paths, item.Path)
		}
	}
	rand.Shuffle(len(paths), func(i, j int) {
		paths[i], paths[j] = paths[j], paths[i]
	})
	return paths
}

// View renders the current view
func (a *App) View() string {
	if a.state == ViewHelp {
		return a.help.View()
	}

	var b strings.Builder
	b.WriteString(a.renderTabs())
	b.WriteString("\n")
	b.WriteString(styles.App.Render(a.currentFeed().View()))
	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	return b.String()
}

func (a *App) renderTabs() string {
	var tabs []string
	for i, d := range a.decks {
		label := fmt.Sprintf("%d %s", i+1, d.Name)
		if i == a.active {
			tabs = append(tabs, styles.DeckActive.Render(label))
		} else {
			tabs = append(tabs, styles.DeckInactive.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (a *App) renderStatus() string {
	coord := a.currentCoord()
	fm := a.currentFeed()

	var parts []string
	parts = append(parts, fmt.Sprintf("%d cards", fm.CardCount()))
	if coord.Loading() {
		parts = append(parts, a.spin.View()+"loading")
	}
	if fm.IndicatorVisible() && fm.MaxScroll() > 0 {
		parts = append(parts, styles.ScrollIndicator.Render(fmt.Sprintf("%d%%", fm.ScrollPercent())))
	}
	if a.message != "" {
		if a.messageErr {
			parts = append(parts, styles.ErrorMsg.Render(a.message))
		} else {
			parts = append(parts, styles.Success.Render(a.message))
		}
	}
	return styles.StatusBar.Width(a.width).Render(strings.Join(parts, "  "))
}
