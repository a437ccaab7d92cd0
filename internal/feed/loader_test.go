package feed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

func loaderItems(paths ...string) []domain.Item {
	items := make([]domain.Item, len(paths))
	for i, p := range paths {
		items[i] = domain.Item{Path: p, Name: p}
	}
	return items
}

func allPreviews() ports.ContentSettings {
	return ports.ContentSettings{TextPreview: true, ImagePreview: true}
}

func TestLoaderPopulatesCache(t *testing.T) {
	cache := NewContentCache()
	l := NewLoader(newFakeProvider(), zerolog.Nop())

	l.LoadContent(context.Background(), loaderItems("a.md", "b.md"), allPreviews(), cache)

	for _, path := range []string{"a.md", "b.md"} {
		if !cache.Contains(path) {
			t.Errorf("%s not resolved", path)
		}
		if text, _ := cache.Text(path); text != "preview of "+path {
			t.Errorf("%s: unexpected preview %q", path, text)
		}
	}
}

func TestLoaderSkipsCachedItems(t *testing.T) {
	cache := NewContentCache()
	cache.SetText("a.md", "stale but kept")
	cache.MarkResolved("a.md")

	provider := newFakeProvider()
	l := NewLoader(provider, zerolog.Nop())
	l.LoadContent(context.Background(), loaderItems("a.md", "b.md"), allPreviews(), cache)

	if len(provider.calls) != 1 || provider.calls[0] != "b.md" {
		t.Errorf("expected a single fetch for b.md, got %v", provider.calls)
	}
	if text, _ := cache.Text("a.md"); text != "stale but kept" {
		t.Errorf("cached entry was refetched: %q", text)
	}
}

func TestLoaderFailureLeavesEmptyEntry(t *testing.T) {
	cache := NewContentCache()
	provider := newFakeProvider()
	provider.failPath("bad.md")

	l := NewLoader(provider, zerolog.Nop())
	l.LoadContent(context.Background(), loaderItems("bad.md", "good.md"), allPreviews(), cache)

	if !cache.Contains("bad.md") {
		t.Fatal("failed item must be marked resolved")
	}
	if text, _ := cache.Text("bad.md"); text != "" {
		t.Errorf("failed item has non-empty preview: %q", text)
	}
	if cache.HasImage("bad.md") {
		t.Error("failed item reports an image")
	}
	if text, _ := cache.Text("good.md"); text != "preview of good.md" {
		t.Errorf("sibling fetch disturbed: %q", text)
	}
}

func TestLoaderCancelledFetchStaysRetriable(t *testing.T) {
	cache := NewContentCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(newFakeProvider(), zerolog.Nop())
	l.LoadContent(ctx, loaderItems("a.md"), allPreviews(), cache)

	if cache.Contains("a.md") {
		t.Fatal("cancelled fetch must not resolve the entry")
	}

	// The next cycle retries the same item.
	l.LoadContent(context.Background(), loaderItems("a.md"), allPreviews(), cache)
	if !cache.Contains("a.md") {
		t.Error("retry after cancellation did not resolve")
	}
}

func TestLoaderDisabledPreviews(t *testing.T) {
	cache := NewContentCache()
	provider := newFakeProvider()
	l := NewLoader(provider, zerolog.Nop())

	l.LoadContent(context.Background(), loaderItems("a.md"), ports.ContentSettings{}, cache)

	if len(provider.calls) != 0 {
		t.Errorf("provider called with previews disabled: %v", provider.calls)
	}
	if cache.Len() != 0 {
		t.Errorf("cache populated with previews disabled: %d", cache.Len())
	}
}
