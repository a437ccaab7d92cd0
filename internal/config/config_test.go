package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"notedeck/internal/domain"
)

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Feed.MaxBatch != 50 {
			t.Errorf("expected default max batch 50, got %d", cfg.Feed.MaxBatch)
		}
		if len(cfg.Decks) != 1 || cfg.Decks[0].Name != "all" {
			t.Errorf("expected default deck, got %v", cfg.Decks)
		}
	})

	t.Run("reads decks and feed settings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := `
vault: /tmp/vault
feed:
  rows_per_batch: 4
  scroll_cooldown: 250ms
decks:
  - name: work
    filter: projects
    sort: name
    group: tag
    shuffle: true
`
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Vault != "/tmp/vault" {
			t.Errorf("expected vault /tmp/vault, got %s", cfg.Vault)
		}
		if cfg.Feed.RowsPerBatch != 4 {
			t.Errorf("expected rows_per_batch 4, got %d", cfg.Feed.RowsPerBatch)
		}
		if cfg.Feed.ScrollCooldown != 250*time.Millisecond {
			t.Errorf("expected 250ms cooldown, got %v", cfg.Feed.ScrollCooldown)
		}
		if len(cfg.Decks) != 1 || !cfg.Decks[0].Shuffle {
			t.Errorf("expected one shuffled deck, got %v", cfg.Decks)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("vaultt: oops\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected error for unknown field")
		}
	})

	t.Run("env var overrides vault", func(t *testing.T) {
		t.Setenv("NOTEDECK_VAULT", "/env/vault")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Vault != "/env/vault" {
			t.Errorf("expected env override, got %s", cfg.Vault)
		}
	})
}

func TestDeckPort(t *testing.T) {
	d := Deck{Name: "recent", Sort: "mtime", Order: "desc", Group: "folder"}
	p := d.Port()
	if p.Sort.Field != domain.SortByModTime || !p.Sort.Descending {
		t.Errorf("unexpected sort spec: %+v", p.Sort)
	}
	if p.GroupBy != domain.GroupByFolder {
		t.Errorf("expected folder grouping, got %s", p.GroupBy)
	}
}
