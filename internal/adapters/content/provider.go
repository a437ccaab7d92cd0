// Package content resolves per-card content for the feed. Lookups go
// through the preview index when it holds a fresh entry and fall back to
// parsing the note directly, writing the result back into the index.
package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"notedeck/internal/adapters/index"
	"notedeck/internal/domain"
	"notedeck/internal/markdown"
	"notedeck/internal/ports"
)

// Provider implements ports.ContentProvider over the vault filesystem and a
// preview index.
type Provider struct {
	vaultPath string
	index     ports.PreviewIndex
}

var _ ports.ContentProvider = (*Provider)(nil)

// NewProvider creates a provider for the vault. idx may be nil, in which
// case every lookup parses the note directly.
func NewProvider(vaultPath string, idx ports.PreviewIndex) *Provider {
	if strings.HasPrefix(vaultPath, "~") {
		home, _ := os.UserHomeDir()
		vaultPath = filepath.Join(home, vaultPath[1:])
	}
	return &Provider{vaultPath: vaultPath, index: idx}
}

// TextPreview resolves the item's preview text.
func (p *Provider) TextPreview(ctx context.Context, item domain.Item, settings ports.ContentSettings) (string, error) {
	entry, err := p.entry(ctx, item, settings)
	if err != nil {
		return "", err
	}
	return markdown.Truncate(entry.Preview, settings.PreviewLength), nil
}

// ImageRefs resolves the item's image references.
func (p *Provider) ImageRefs(ctx context.Context, item domain.Item, settings ports.ContentSettings) ([]string, error) {
	entry, err := p.entry(ctx, item, settings)
	if err != nil {
		return nil, err
	}
	return entry.Images, nil
}

func (p *Provider) entry(ctx context.Context, item domain.Item, settings ports.ContentSettings) (ports.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return ports.IndexEntry{}, err
	}

	mtime := item.ModTime.Unix()
	if p.index != nil {
		if entry, ok, err := p.index.Lookup(item.Path, mtime); err == nil && ok {
			return entry, nil
		}
	}

	fullPath := filepath.Join(p.vaultPath, filepath.FromSlash(item.Path))
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return ports.IndexEntry{}, fmt.Errorf("failed to read note: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return ports.IndexEntry{}, err
	}

	entry := index.Extract(content, item.Path, mtime, settings.PreviewProperty, settings.ImageProperty)
	if p.index != nil {
		// Best effort write-back; a failed store only costs a re-parse.
		p.index.Store(entry)
	}
	return entry, nil
}
