package ports

import "notedeck/internal/domain"

// Deck is a named view of the vault: which files it shows, how they are
// sorted and grouped, and whether items are shuffled within their groups.
type Deck struct {
	Name    string
	Filter  string // vault-relative folder prefix; empty means whole vault
	Sort    domain.SortSpec
	GroupBy domain.GroupBy
	Shuffle bool
}

// QueryEngine produces ordered, pre-grouped item snapshots for a deck.
type QueryEngine interface {
	// Query walks the vault and returns an immutable snapshot for the deck.
	Query(deck Deck) (domain.Snapshot, error)
}
