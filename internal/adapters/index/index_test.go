package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"notedeck/internal/ports"
)

func openTestIndex(t *testing.T, vaultPath string) *Index {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	idx := NewIndex("description", "image")
	if err := idx.Open(vaultPath); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func writeNote(t *testing.T, vault, rel, content string) string {
	t.Helper()
	path := filepath.Join(vault, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestStoreAndLookup(t *testing.T) {
	idx := openTestIndex(t, t.TempDir())

	entry := ports.IndexEntry{
		Path:     "inbox/note.md",
		Mtime:    1700000000,
		Title:    "Note",
		Preview:  "A preview.",
		Images:   []string{"a.png", "b.png"},
		HasImage: true,
	}
	if err := idx.Store(entry); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, ok, err := idx.Lookup("inbox/note.md", 1700000000)
	if err != nil || !ok {
		t.Fatalf("Lookup = %v, %v", ok, err)
	}
	if got.Title != "Note" || got.Preview != "A preview." {
		t.Errorf("entry = %+v", got)
	}
	if len(got.Images) != 2 || got.Images[0] != "a.png" {
		t.Errorf("images = %v", got.Images)
	}
	if !got.HasImage {
		t.Error("HasImage lost")
	}

	t.Run("stale mtime misses", func(t *testing.T) {
		if _, ok, err := idx.Lookup("inbox/note.md", 1700000001); err != nil || ok {
			t.Errorf("stale lookup = %v, %v", ok, err)
		}
	})

	t.Run("unknown path misses", func(t *testing.T) {
		if _, ok, err := idx.Lookup("missing.md", 1700000000); err != nil || ok {
			t.Errorf("unknown lookup = %v, %v", ok, err)
		}
	})
}

func TestSync(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "inbox/a.md", "---\ntitle: Alpha\n---\nAlpha body.\n")
	writeNote(t, vault, "b.md", "Beta body with ![[pic.png]] embedded.\n")
	writeNote(t, vault, "c.md", "---\ndescription: Property preview\n---\nBody ignored.\n")
	writeNote(t, vault, "skip.txt", "not markdown")

	idx := openTestIndex(t, vault)

	stats, err := idx.Sync()
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if stats.FilesScanned != 3 || stats.Updated != 3 {
		t.Fatalf("stats = %+v", stats)
	}

	info, err := os.Stat(filepath.Join(vault, "inbox", "a.md"))
	if err != nil {
		t.Fatal(err)
	}
	entry, ok, err := idx.Lookup("inbox/a.md", info.ModTime().Unix())
	if err != nil || !ok {
		t.Fatalf("Lookup after sync = %v, %v", ok, err)
	}
	if entry.Title != "Alpha" || entry.Preview != "Alpha body." {
		t.Errorf("entry = %+v", entry)
	}

	binfo, _ := os.Stat(filepath.Join(vault, "b.md"))
	bentry, ok, _ := idx.Lookup("b.md", binfo.ModTime().Unix())
	if !ok || !bentry.HasImage || len(bentry.Images) != 1 || bentry.Images[0] != "pic.png" {
		t.Errorf("image extraction: %+v (ok=%v)", bentry, ok)
	}

	cinfo, _ := os.Stat(filepath.Join(vault, "c.md"))
	centry, ok, _ := idx.Lookup("c.md", cinfo.ModTime().Unix())
	if !ok || centry.Preview != "Property preview" {
		t.Errorf("property preview: %+v (ok=%v)", centry, ok)
	}

	t.Run("unchanged files are skipped", func(t *testing.T) {
		stats, err := idx.Sync()
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if stats.Updated != 0 {
			t.Errorf("re-sync updated %d unchanged files", stats.Updated)
		}
	})

	t.Run("modified file is refreshed", func(t *testing.T) {
		path := writeNote(t, vault, "inbox/a.md", "---\ntitle: Alpha Two\n---\nNew body.\n")
		future := time.Now().Add(2 * time.Second)
		if err := os.Chtimes(path, future, future); err != nil {
			t.Fatal(err)
		}

		stats, err := idx.Sync()
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if stats.Updated != 1 {
			t.Errorf("stats = %+v", stats)
		}

		entry, ok, _ := idx.Lookup("inbox/a.md", future.Unix())
		if !ok || entry.Title != "Alpha Two" {
			t.Errorf("refreshed entry = %+v (ok=%v)", entry, ok)
		}
	})

	t.Run("deleted file is pruned", func(t *testing.T) {
		if err := os.Remove(filepath.Join(vault, "b.md")); err != nil {
			t.Fatal(err)
		}

		stats, err := idx.Sync()
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if stats.Removed != 1 {
			t.Errorf("stats = %+v", stats)
		}
		if _, ok, _ := idx.Lookup("b.md", binfo.ModTime().Unix()); ok {
			t.Error("pruned entry still served")
		}
	})
}

func TestOpenRebuildsOnVaultChange(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	vaultA := t.TempDir()
	idx := NewIndex("description", "image")
	if err := idx.Open(vaultA); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := idx.Store(ports.IndexEntry{Path: "x.md", Mtime: 1}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	idx.Close()

	// Same vault reopens with entries intact; the DB file is keyed by the
	// vault path, so another vault starts empty.
	reopened := NewIndex("description", "image")
	if err := reopened.Open(vaultA); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if _, ok, _ := reopened.Lookup("x.md", 1); !ok {
		t.Error("entry lost across reopen")
	}

	other := NewIndex("description", "image")
	if err := other.Open(t.TempDir()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer other.Close()
	if _, ok, _ := other.Lookup("x.md", 1); ok {
		t.Error("entry leaked across vaults")
	}
}
