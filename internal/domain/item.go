package domain

import "time"

// Item is one vault file shown as a card. The Path is vault-relative and is
// the item's stable identity. Items are immutable for the lifetime of the
// Snapshot that produced them.
type Item struct {
	Path    string
	Name    string
	Folder  string
	Tags    []string
	ModTime time.Time
	Size    int64
}

// Group is an ordered run of items sharing a group key. Key is empty for an
// ungrouped feed.
type Group struct {
	Key   string
	Label string
	Items []Item
}

// Snapshot is one immutable result of a deck query. The feed never mutates a
// snapshot; re-querying produces a new one.
type Snapshot struct {
	Deck   string
	Groups []Group
}

// TotalItems returns the number of items across all groups.
func (s Snapshot) TotalItems() int {
	total := 0
	for _, g := range s.Groups {
		total += len(g.Items)
	}
	return total
}

// ItemAt returns the item at the given feed position, walking groups in
// order. ok is false when pos is out of range.
func (s Snapshot) ItemAt(pos int) (Item, bool) {
	for _, g := range s.Groups {
		if pos < len(g.Items) {
			return g.Items[pos], true
		}
		pos -= len(g.Items)
	}
	return Item{}, false
}

// SortField selects what a deck sorts its items by.
type SortField string

const (
	SortByName    SortField = "name"
	SortByModTime SortField = "mtime"
)

// SortSpec is the active sort specification for a deck.
type SortSpec struct {
	Field      SortField
	Descending bool
}

// GroupBy selects how a deck groups its items.
type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupByFolder GroupBy = "folder"
	GroupByTag    GroupBy = "tag"
)
