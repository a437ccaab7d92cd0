// Package feed implements the incremental card-feed engine: cancellation-safe
// content loading, rebuild-vs-append render coordination, infinite-scroll
// cursor advances, and scroll-position restoration. It renders through the
// ports.FeedRenderer boundary and measures through ports.Viewport, so it has
// no terminal dependency of its own.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

// Phase is the coordinator's render state. Transitions follow
// Idle → CapturingSnapshot → LoadingContent → Committing → Idle, with
// Restoring taken instead of the normal path on view re-entry with a saved
// anchor and existing content.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCapturingSnapshot
	PhaseLoadingContent
	PhaseCommitting
	PhaseRestoring
)

// Settings holds the engine knobs resolved from configuration.
type Settings struct {
	Content           ports.ContentSettings
	CardWidth         int
	CardHeight        int
	Gutter            int
	RowsPerBatch      int
	MaxBatch          int
	TriggerMultiplier float64
	ScrollCooldown    time.Duration
	LayoutGap         int
}

// Options wires a coordinator's collaborators. Cache and Store are shared
// across decks for the application session; everything else is per deck.
type Options struct {
	DeckID         string
	Settings       Settings
	ShuffleEnabled bool
	ShuffleOrder   []string

	Renderer  ports.FeedRenderer
	Viewport  ports.Viewport
	Scheduler ports.Scheduler
	Provider  ports.ContentProvider
	Cache     *ContentCache
	Store     *ScrollStore
	Logger    zerolog.Logger
}

// Coordinator owns the render version counter and decides full rebuild vs.
// incremental append. It is the only component that mutates the feed; the
// trigger merely requests cursor advances. An async load may commit only if
// the version it captured still equals the live version and its context was
// not cancelled; anything else ends silently with no feed mutation.
type Coordinator struct {
	mu sync.Mutex

	renderer ports.FeedRenderer
	viewport ports.Viewport
	sched    ports.Scheduler
	loader   *Loader
	cache    *ContentCache
	store    *ScrollStore
	trigger  *Trigger
	log      zerolog.Logger

	deckID         string
	settings       Settings
	shuffleEnabled bool
	shuffleOrder   []string

	phase   Phase
	version uint64
	ctx     context.Context
	cancel  context.CancelFunc
	groups  []domain.Group
	total   int
	cursor  int
	columns int
}

// NewCoordinator creates an idle coordinator for one deck.
func NewCoordinator(opts Options) *Coordinator {
	return &Coordinator{
		renderer:       opts.Renderer,
		viewport:       opts.Viewport,
		sched:          opts.Scheduler,
		loader:         NewLoader(opts.Provider, opts.Logger),
		cache:          opts.Cache,
		store:          opts.Store,
		trigger:        NewTrigger(opts.Settings.ScrollCooldown, opts.Settings.TriggerMultiplier),
		log:            opts.Logger,
		deckID:         opts.DeckID,
		settings:       opts.Settings,
		shuffleEnabled: opts.ShuffleEnabled,
		shuffleOrder:   opts.ShuffleOrder,
		columns:        minColumns,
	}
}

// SetShuffleOrder replaces the shuffle permutation applied on the next data
// update. Order entries are item paths; items not listed keep their deck
// order after the permuted ones.
func (c *Coordinator) SetShuffleOrder(order []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffleOrder = order
}

// SetShuffleEnabled toggles shuffling for subsequent data updates. Disabling
// also drops the stored permutation.
func (c *Coordinator) SetShuffleEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffleEnabled = enabled
	if !enabled {
		c.shuffleOrder = nil
	}
}

// OnDataUpdated starts a full render cycle for a fresh snapshot. It may
// interrupt a cycle already in flight: the old version's loads are cancelled
// through their context and their completion becomes a no-op.
func (c *Coordinator) OnDataUpdated(snapshot domain.Snapshot) {
	c.mu.Lock()

	c.version++
	version := c.version
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.ctx, c.cancel = ctx, cancel

	c.phase = PhaseCapturingSnapshot
	c.trigger.Detach()

	c.groups = domain.ProcessGroups(snapshot.Groups, c.shuffleEnabled, c.shuffleOrder)
	c.total = snapshot.TotalItems()

	width, height := c.viewport.Size()
	c.columns = Columns(width, c.settings.CardWidth, c.settings.Gutter)
	cursor := initialCursor(c.columns, height, c.settings.CardHeight, c.settings.RowsPerBatch, c.settings.MaxBatch)
	if cursor > c.total {
		cursor = c.total
	}
	c.cursor = cursor

	slice := domain.TakeVisible(c.groups, cursor)
	items := flattenItems(slice)

	c.phase = PhaseLoadingContent
	settings := c.settings.Content
	c.mu.Unlock()

	go func() {
		c.loader.LoadContent(ctx, items, settings, c.cache)
		c.sched.Dispatch(func() {
			c.commitRebuild(version, ctx, slice)
		})
	}()
}

func (c *Coordinator) commitRebuild(version uint64, ctx context.Context, slice []domain.Group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staleLocked(version, ctx) {
		return
	}

	c.phase = PhaseCommitting
	c.renderer.Rebuild(c.buildGroupsLocked(slice))
	c.phase = PhaseIdle
	c.trigger.Arm()
}

// OnScroll handles one scroll event on the feed's scroll container: it
// captures the scroll anchor and, near the bottom, advances the display
// cursor and starts an incremental-append cycle. Events inside the throttle
// cooldown are dropped entirely.
func (c *Coordinator) OnScroll() {
	c.mu.Lock()

	if !c.trigger.Allow() {
		c.mu.Unlock()
		return
	}

	width, height := c.viewport.Size()
	if path, offset, ok := c.viewport.AnchorItem(); ok {
		c.store.Save(c.deckID, Anchor{
			ItemPath:       path,
			Offset:         offset,
			ViewportWidth:  width,
			ViewportHeight: height,
		})
	}

	distance := c.viewport.MaxScroll() - c.viewport.ScrollTop()
	hasMore := c.cursor < c.total
	if !c.trigger.ShouldAdvance(distance, height, hasMore) {
		c.mu.Unlock()
		return
	}

	oldCursor := c.cursor
	newCursor := clamp(oldCursor+advanceStep(c.columns, c.settings.RowsPerBatch, c.settings.MaxBatch), 0, c.total)

	prevSlice := domain.TakeVisible(c.groups, oldCursor)
	nextSlice := domain.TakeVisible(c.groups, newCursor)
	newItems := flattenItems(nextSlice)[oldCursor:]

	c.phase = PhaseLoadingContent
	version, ctx := c.version, c.ctx
	settings := c.settings.Content
	c.mu.Unlock()

	go func() {
		c.loader.LoadContent(ctx, newItems, settings, c.cache)
		c.sched.Dispatch(func() {
			c.commitAppend(version, ctx, prevSlice, nextSlice, newCursor)
		})
	}()
}

func (c *Coordinator) commitAppend(version uint64, ctx context.Context, prevSlice, nextSlice []domain.Group, newCursor int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staleLocked(version, ctx) {
		return
	}

	c.phase = PhaseCommitting

	startAt := len(prevSlice)
	if startAt > 0 {
		last := prevSlice[startAt-1]
		next := nextSlice[startAt-1]
		// The new slice continues the trailing group: append into its
		// existing container instead of opening a duplicate.
		if next.Key == last.Key && len(next.Items) > len(last.Items) {
			c.renderer.AppendToGroup(last.Key, c.buildCardsLocked(next.Items[len(last.Items):]))
		}
	}
	for gi := startAt; gi < len(nextSlice); gi++ {
		c.renderer.StartGroup(c.buildGroupLocked(nextSlice[gi]))
	}

	c.cursor = newCursor
	c.phase = PhaseIdle
	c.trigger.Arm()
}

// Restore takes the restoration path on view re-entry: when a saved anchor
// exists and the feed still holds rendered content, the rebuild is skipped
// and the viewport is scrolled back to the anchor. Returns false when the
// caller should run a normal data-update cycle instead.
func (c *Coordinator) Restore() bool {
	c.mu.Lock()

	anchor, ok := c.store.Load(c.deckID)
	if !ok || !c.renderer.HasContent() {
		c.mu.Unlock()
		return false
	}

	c.phase = PhaseRestoring
	c.trigger.Detach()
	c.renderer.SetScrollIndicator(false)
	version := c.version

	width, height := c.viewport.Size()
	if width == anchor.ViewportWidth && height == anchor.ViewportHeight {
		if top, found := c.viewport.ItemTop(anchor.ItemPath); found {
			c.viewport.SetScrollTop(clamp(top+anchor.Offset, 0, c.viewport.MaxScroll()))
		}
		c.finishRestoreLocked()
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	// Dimensions changed: the grid reflows, so wait two frame boundaries
	// for layout to settle before measuring the anchor again.
	c.sched.Frame(func() {
		c.sched.Frame(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.version != version || c.phase != PhaseRestoring {
				return
			}
			if top, found := c.viewport.ItemTop(anchor.ItemPath); found {
				c.viewport.SetScrollTop(clamp(top-c.settings.LayoutGap, 0, c.viewport.MaxScroll()))
			}
			c.finishRestoreLocked()
		})
	})
	return true
}

func (c *Coordinator) finishRestoreLocked() {
	c.renderer.SetScrollIndicator(true)
	c.phase = PhaseIdle
	c.trigger.Arm()
}

// OnResize recomputes column geometry only; content is untouched.
func (c *Coordinator) OnResize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	width, _ := c.viewport.Size()
	c.columns = Columns(width, c.settings.CardWidth, c.settings.Gutter)
}

// OnUnload cancels in-flight loads and detaches the trigger. The scroll
// store is deliberately left intact so re-entry can restore.
func (c *Coordinator) OnUnload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.trigger.Detach()
	c.phase = PhaseIdle
}

// CloseDeck removes the deck's saved anchor. Only for permanent closes.
func (c *Coordinator) CloseDeck() {
	c.store.Delete(c.deckID)
}

func (c *Coordinator) staleLocked(version uint64, ctx context.Context) bool {
	if version != c.version || ctx.Err() != nil {
		c.log.Debug().
			Uint64("version", version).
			Uint64("live", c.version).
			Msg("stale render cycle dropped")
		return true
	}
	return false
}

func (c *Coordinator) buildGroupsLocked(slice []domain.Group) []ports.CardGroup {
	out := make([]ports.CardGroup, len(slice))
	for i, g := range slice {
		out[i] = c.buildGroupLocked(g)
	}
	return out
}

func (c *Coordinator) buildGroupLocked(g domain.Group) ports.CardGroup {
	return ports.CardGroup{Key: g.Key, Label: g.Label, Cards: c.buildCardsLocked(g.Items)}
}

func (c *Coordinator) buildCardsLocked(items []domain.Item) []ports.Card {
	cards := make([]ports.Card, len(items))
	for i, item := range items {
		text, _ := c.cache.Text(item.Path)
		refs, _ := c.cache.Images(item.Path)
		cards[i] = ports.Card{
			Item:     item,
			Text:     text,
			Images:   refs,
			HasImage: c.cache.HasImage(item.Path),
		}
	}
	return cards
}

func flattenItems(groups []domain.Group) []domain.Item {
	n := 0
	for _, g := range groups {
		n += len(g.Items)
	}
	out := make([]domain.Item, 0, n)
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

// Cursor returns the committed display cursor.
func (c *Coordinator) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// CurrentPhase returns the coordinator's render state.
func (c *Coordinator) CurrentPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// GridColumns returns the current column count.
func (c *Coordinator) GridColumns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.columns
}

// Loading reports whether a content phase is in flight, for spinner display.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseLoadingContent || c.phase == PhaseCapturingSnapshot
}

// DeckID returns the deck this coordinator renders.
func (c *Coordinator) DeckID() string {
	return c.deckID
}
