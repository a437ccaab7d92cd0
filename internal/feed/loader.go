package feed

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

const defaultLoadConcurrency = 8

// Loader resolves missing cache entries for a batch of items. Fetches run
// concurrently with no completion-order guarantee; each item is fetched at
// most once per snapshot (the cache dedupes); a failure on one item is
// logged and recorded as an empty entry without blocking siblings.
type Loader struct {
	provider ports.ContentProvider
	limit    int
	log      zerolog.Logger
}

// NewLoader creates a loader over the given content provider.
func NewLoader(provider ports.ContentProvider, log zerolog.Logger) *Loader {
	return &Loader{provider: provider, limit: defaultLoadConcurrency, log: log}
}

// LoadContent fetches text previews and image references for every item in
// items that has no cache entry yet, writing results into cache. It returns
// when all fetches finish or ctx is cancelled. It never touches the feed.
func (l *Loader) LoadContent(ctx context.Context, items []domain.Item, settings ports.ContentSettings, cache *ContentCache) {
	if !settings.TextPreview && !settings.ImagePreview {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(l.limit)

	for _, item := range items {
		if cache.Contains(item.Path) {
			continue
		}
		g.Go(func() error {
			l.loadOne(ctx, item, settings, cache)
			return nil
		})
	}
	g.Wait()
}

func (l *Loader) loadOne(ctx context.Context, item domain.Item, settings ports.ContentSettings, cache *ContentCache) {
	if ctx.Err() != nil {
		return
	}

	if settings.TextPreview {
		text, err := l.provider.TextPreview(ctx, item, settings)
		if err != nil {
			l.log.Warn().Str("path", item.Path).Err(err).Msg("text preview failed")
			text = ""
		}
		cache.SetText(item.Path, text)
	}

	if settings.ImagePreview && ctx.Err() == nil {
		refs, err := l.provider.ImageRefs(ctx, item, settings)
		if err != nil {
			l.log.Warn().Str("path", item.Path).Err(err).Msg("image lookup failed")
			refs = nil
		}
		cache.SetImages(item.Path, refs)
	}

	// A cancelled fetch must stay retriable for the next cycle.
	if ctx.Err() == nil {
		cache.MarkResolved(item.Path)
	}
}
