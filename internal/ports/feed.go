package ports

import "notedeck/internal/domain"

// Card couples an item with its resolved content, ready to render.
type Card struct {
	Item     domain.Item
	Text     string
	Images   []string
	HasImage bool
}

// CardGroup is one group container worth of cards.
type CardGroup struct {
	Key   string
	Label string
	Cards []Card
}

// FeedRenderer turns card slices into the visible feed. It is the external
// rendering boundary: the engine decides what to draw and when, the renderer
// decides how. Renderer errors are programming errors and panic rather than
// return.
type FeedRenderer interface {
	// Rebuild discards the current feed and recreates it from groups.
	Rebuild(groups []CardGroup)

	// StartGroup opens a new trailing group container and fills it.
	StartGroup(group CardGroup)

	// AppendToGroup appends cards to the existing trailing group container.
	// The key must match the trailing group.
	AppendToGroup(key string, cards []Card)

	// CardCount reports how many cards are currently materialized.
	CardCount() int

	// HasContent reports whether the feed currently holds rendered cards.
	HasContent() bool

	// SetScrollIndicator shows or hides the scroll indicator. Restoration
	// hides it to avoid a visible jump.
	SetScrollIndicator(visible bool)
}

// Viewport measures the feed's scroll container. Offsets are in terminal
// rows. Core logic depends only on this interface so it runs against a fake
// measurer in tests.
type Viewport interface {
	// Size returns the content width and client height. Either may be zero
	// before the first real measurement.
	Size() (width, height int)

	ScrollTop() int
	MaxScroll() int
	SetScrollTop(top int)

	// ItemTop returns the current top offset of the item's card in content
	// coordinates.
	ItemTop(path string) (top int, ok bool)

	// AnchorItem returns the topmost, then leftmost, item intersecting the
	// viewport and the offset such that ItemTop(path)+offset is the current
	// scroll top.
	AnchorItem() (path string, offset int, ok bool)
}

// Scheduler serializes engine callbacks onto the render loop. Dispatch runs
// fn on the loop as soon as possible. Frame runs fn after the next layout
// pass; nesting two Frame calls lets layout settle before measuring.
type Scheduler interface {
	Dispatch(fn func())
	Frame(fn func())
}
