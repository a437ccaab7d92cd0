package ports

import (
	"context"

	"notedeck/internal/domain"
)

// ContentSettings controls which per-item lookups the content providers run
// and which frontmatter properties they consult first.
type ContentSettings struct {
	TextPreview     bool
	ImagePreview    bool
	PreviewProperty string // frontmatter property tried before the document body
	ImageProperty   string // frontmatter property tried before embedded media
	PreviewLength   int    // max preview runes; 0 means provider default
}

// ContentProvider resolves per-item auxiliary content. Implementations must
// honor ctx cancellation and may be called concurrently.
type ContentProvider interface {
	// TextPreview resolves a short text preview for the item, falling back
	// from the declared frontmatter property to the document body.
	TextPreview(ctx context.Context, item domain.Item, settings ContentSettings) (string, error)

	// ImageRefs resolves image references for the item, falling back from
	// the declared frontmatter property to embedded media links.
	ImageRefs(ctx context.Context, item domain.Item, settings ContentSettings) ([]string, error)
}

// PreviewIndex provides cached access to per-file preview data. Lookups miss
// (ok=false) rather than fail when the index has no fresh entry.
type PreviewIndex interface {
	Open(vaultPath string) error
	Close() error

	// Sync refreshes entries whose mtime changed and prunes deleted files.
	Sync() (IndexStats, error)

	// Lookup returns the indexed entry for a vault-relative path when its
	// recorded mtime matches the given one.
	Lookup(path string, mtime int64) (IndexEntry, bool, error)

	// Store records an entry for a path.
	Store(entry IndexEntry) error
}

// IndexEntry is one file's cached preview data.
type IndexEntry struct {
	Path     string
	Mtime    int64
	Title    string
	Preview  string
	Images   []string
	HasImage bool
}

// IndexStats reports the result of a sync pass.
type IndexStats struct {
	FilesScanned int
	Updated      int
	Removed      int
}
