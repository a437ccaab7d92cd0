package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

// memIndex is an in-memory ports.PreviewIndex for provider tests.
type memIndex struct {
	entries map[string]ports.IndexEntry
	lookups int
	stores  int
}

func newMemIndex() *memIndex {
	return &memIndex{entries: make(map[string]ports.IndexEntry)}
}

func (m *memIndex) Open(string) error { return nil }
func (m *memIndex) Close() error      { return nil }
func (m *memIndex) Sync() (ports.IndexStats, error) {
	return ports.IndexStats{}, nil
}

func (m *memIndex) Lookup(path string, mtime int64) (ports.IndexEntry, bool, error) {
	m.lookups++
	entry, ok := m.entries[path]
	if !ok || entry.Mtime != mtime {
		return ports.IndexEntry{}, false, nil
	}
	return entry, true, nil
}

func (m *memIndex) Store(entry ports.IndexEntry) error {
	m.stores++
	m.entries[entry.Path] = entry
	return nil
}

func testItem(t *testing.T, vault, rel, content string) domain.Item {
	t.Helper()
	path := filepath.Join(vault, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return domain.Item{Path: rel, Name: rel, ModTime: info.ModTime()}
}

func testSettings() ports.ContentSettings {
	return ports.ContentSettings{
		TextPreview:     true,
		ImagePreview:    true,
		PreviewProperty: "description",
		ImageProperty:   "image",
		PreviewLength:   100,
	}
}

func TestTextPreviewFallbackOrder(t *testing.T) {
	vault := t.TempDir()
	p := NewProvider(vault, nil)
	ctx := context.Background()

	t.Run("frontmatter property wins", func(t *testing.T) {
		item := testItem(t, vault, "a.md", "---\ndescription: From property\n---\nFrom body.\n")
		got, err := p.TextPreview(ctx, item, testSettings())
		if err != nil {
			t.Fatal(err)
		}
		if got != "From property" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("body fallback", func(t *testing.T) {
		item := testItem(t, vault, "b.md", "---\ntitle: x\n---\n# Heading\n\nFrom body.\n")
		got, err := p.TextPreview(ctx, item, testSettings())
		if err != nil {
			t.Fatal(err)
		}
		if got != "From body." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("preview length applies", func(t *testing.T) {
		item := testItem(t, vault, "c.md", "one two three four five six seven\n")
		settings := testSettings()
		settings.PreviewLength = 7
		got, err := p.TextPreview(ctx, item, settings)
		if err != nil {
			t.Fatal(err)
		}
		if got != "one two…" {
			t.Errorf("got %q", got)
		}
	})
}

func TestImageRefsFallbackOrder(t *testing.T) {
	vault := t.TempDir()
	p := NewProvider(vault, nil)
	ctx := context.Background()

	item := testItem(t, vault, "a.md", "---\nimage: cover.png\n---\nBody ![[embed.png]].\n")
	got, err := p.ImageRefs(ctx, item, testSettings())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "cover.png" || got[1] != "embed.png" {
		t.Errorf("got %v", got)
	}

	plain := testItem(t, vault, "b.md", "No images.\n")
	refs, err := p.ImageRefs(ctx, plain, testSettings())
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Errorf("got %v", refs)
	}
}

func TestProviderUsesIndex(t *testing.T) {
	vault := t.TempDir()
	idx := newMemIndex()
	p := NewProvider(vault, idx)
	ctx := context.Background()

	item := testItem(t, vault, "a.md", "---\ndescription: Parsed once\n---\nBody.\n")

	t.Run("miss parses and writes back", func(t *testing.T) {
		got, err := p.TextPreview(ctx, item, testSettings())
		if err != nil {
			t.Fatal(err)
		}
		if got != "Parsed once" {
			t.Errorf("got %q", got)
		}
		if idx.stores != 1 {
			t.Errorf("stores = %d", idx.stores)
		}
	})

	t.Run("fresh entry served from index", func(t *testing.T) {
		if err := os.Remove(filepath.Join(vault, "a.md")); err != nil {
			t.Fatal(err)
		}
		// The note is gone; only the index can answer now.
		got, err := p.TextPreview(ctx, item, testSettings())
		if err != nil {
			t.Fatal(err)
		}
		if got != "Parsed once" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("stale entry falls through to a read error", func(t *testing.T) {
		stale := item
		stale.ModTime = item.ModTime.Add(time.Second)
		if _, err := p.TextPreview(ctx, stale, testSettings()); err == nil {
			t.Error("expected an error for a stale entry with no file")
		}
	})
}

func TestProviderHonorsCancellation(t *testing.T) {
	vault := t.TempDir()
	p := NewProvider(vault, nil)
	item := testItem(t, vault, "a.md", "Body.\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.TextPreview(ctx, item, testSettings()); err == nil {
		t.Error("expected context error")
	}
	if _, err := p.ImageRefs(ctx, item, testSettings()); err == nil {
		t.Error("expected context error")
	}
}

func TestMissingNote(t *testing.T) {
	p := NewProvider(t.TempDir(), nil)
	item := domain.Item{Path: "gone.md", ModTime: time.Now()}

	if _, err := p.TextPreview(context.Background(), item, testSettings()); err == nil {
		t.Error("expected an error for a missing note")
	}
}
