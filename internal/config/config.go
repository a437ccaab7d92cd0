// Package config handles the YAML configuration file with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

// Config holds all notedeck configuration.
type Config struct {
	Vault string `yaml:"vault"`
	Log   string `yaml:"log"`
	Feed  Feed   `yaml:"feed"`
	Decks []Deck `yaml:"decks"`
}

// Feed holds the card-feed engine settings.
type Feed struct {
	TextPreview       bool          `yaml:"text_preview"`
	ImagePreview      bool          `yaml:"image_preview"`
	PreviewProperty   string        `yaml:"preview_property"`
	ImageProperty     string        `yaml:"image_property"`
	PreviewLength     int           `yaml:"preview_length"`
	CardWidth         int           `yaml:"card_width"`
	CardHeight        int           `yaml:"card_height"`
	RowsPerBatch      int           `yaml:"rows_per_batch"`
	MaxBatch          int           `yaml:"max_batch"`
	TriggerMultiplier float64       `yaml:"trigger_multiplier"`
	ScrollCooldown    time.Duration `yaml:"scroll_cooldown"`
	SwitchGrace       time.Duration `yaml:"switch_grace"`
}

// Deck is one named vault view in the config file.
type Deck struct {
	Name    string `yaml:"name"`
	Filter  string `yaml:"filter"`
	Sort    string `yaml:"sort"`  // "name" | "mtime"
	Order   string `yaml:"order"` // "asc" | "desc"
	Group   string `yaml:"group"` // "none" | "folder" | "tag"
	Shuffle bool   `yaml:"shuffle"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Vault: "~/Documents/notes",
		Feed: Feed{
			TextPreview:       true,
			ImagePreview:      true,
			PreviewProperty:   "description",
			ImageProperty:     "image",
			PreviewLength:     280,
			CardWidth:         32,
			CardHeight:        8,
			RowsPerBatch:      10,
			MaxBatch:          50,
			TriggerMultiplier: 2.0,
			ScrollCooldown:    100 * time.Millisecond,
			SwitchGrace:       400 * time.Millisecond,
		},
		Decks: []Deck{
			{Name: "all", Sort: "mtime", Order: "desc", Group: "folder"},
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "notedeck.yaml"
	}
	return filepath.Join(home, ".config", "notedeck", "config.yaml")
}

// Load reads the YAML config file at path. A missing file returns defaults
// without error; invalid YAML or unknown fields return an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if env := os.Getenv("NOTEDECK_VAULT"); env != "" {
		cfg.Vault = env
	}
	if env := os.Getenv("NOTEDECK_LOG"); env != "" {
		cfg.Log = env
	}
}

// VaultPath returns the configured vault path with ~ expanded.
func (c *Config) VaultPath() string {
	return ExpandHome(c.Vault)
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// ContentSettings converts the feed section into provider settings.
func (f Feed) ContentSettings() ports.ContentSettings {
	return ports.ContentSettings{
		TextPreview:     f.TextPreview,
		ImagePreview:    f.ImagePreview,
		PreviewProperty: f.PreviewProperty,
		ImageProperty:   f.ImageProperty,
		PreviewLength:   f.PreviewLength,
	}
}

// Port converts a config deck into the query-engine deck type.
func (d Deck) Port() ports.Deck {
	sort := domain.SortSpec{Field: domain.SortByName}
	if d.Sort == "mtime" {
		sort.Field = domain.SortByModTime
	}
	if d.Order == "desc" {
		sort.Descending = true
	}

	group := domain.GroupNone
	switch d.Group {
	case "folder":
		group = domain.GroupByFolder
	case "tag":
		group = domain.GroupByTag
	}

	return ports.Deck{
		Name:    d.Name,
		Filter:  d.Filter,
		Sort:    sort,
		GroupBy: group,
		Shuffle: d.Shuffle,
	}
}
