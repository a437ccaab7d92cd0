// Package vault implements the deck query engine over a plain directory of
// markdown notes.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"notedeck/internal/domain"
	"notedeck/internal/markdown"
	"notedeck/internal/ports"
)

// Repository implements ports.QueryEngine over the filesystem.
type Repository struct {
	vaultPath string
}

var _ ports.QueryEngine = (*Repository)(nil)

// NewRepository creates a query engine rooted at vaultPath.
func NewRepository(vaultPath string) *Repository {
	// Expand ~ to home directory
	if strings.HasPrefix(vaultPath, "~") {
		home, _ := os.UserHomeDir()
		vaultPath = filepath.Join(home, vaultPath[1:])
	}
	return &Repository{vaultPath: vaultPath}
}

// VaultPath returns the expanded vault root.
func (r *Repository) VaultPath() string {
	return r.vaultPath
}

// Query walks the vault, applies the deck's filter and sort, and returns a
// grouped snapshot. Tags are read from frontmatter only when the deck
// actually groups by tag, so the common case touches no file contents.
func (r *Repository) Query(deck ports.Deck) (domain.Snapshot, error) {
	items, err := r.collect(deck)
	if err != nil {
		return domain.Snapshot{}, err
	}

	sortItems(items, deck.Sort)

	return domain.Snapshot{
		Deck:   deck.Name,
		Groups: groupItems(items, deck.GroupBy),
	}, nil
}

func (r *Repository) collect(deck ports.Deck) ([]domain.Item, error) {
	prefix := normalizeFilter(deck.Filter)
	needTags := deck.GroupBy == domain.GroupByTag

	var items []domain.Item
	err := filepath.WalkDir(r.vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != r.vaultPath {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		relPath, err := filepath.Rel(r.vaultPath, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if prefix != "" && relPath != prefix && !strings.HasPrefix(relPath, prefix+"/") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		item := domain.Item{
			Path:    relPath,
			Name:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Folder:  folderOf(relPath),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
		if needTags {
			item.Tags = readTags(path)
		}

		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault: %w", err)
	}

	return items, nil
}

func readTags(path string) []string {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return markdown.Parse(content).Tags()
}

// normalizeFilter cleans a vault-relative folder prefix.
func normalizeFilter(filter string) string {
	filter = strings.Trim(filepath.ToSlash(filter), "/")
	if filter == "." {
		return ""
	}
	return filter
}

func folderOf(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return ""
	}
	return dir
}

func sortItems(items []domain.Item, spec domain.SortSpec) {
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch spec.Field {
		case domain.SortByModTime:
			if !items[i].ModTime.Equal(items[j].ModTime) {
				less = items[i].ModTime.Before(items[j].ModTime)
				break
			}
			less = items[i].Path < items[j].Path
		default:
			less = strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
			if strings.EqualFold(items[i].Name, items[j].Name) {
				less = items[i].Path < items[j].Path
			}
		}
		if spec.Descending {
			return !less
		}
		return less
	})
}

// groupItems partitions sorted items into groups, preserving the sort order
// inside each group. Group order follows first appearance. An ungrouped deck
// yields a single anonymous group.
func groupItems(items []domain.Item, by domain.GroupBy) []domain.Group {
	if by == domain.GroupNone {
		if len(items) == 0 {
			return nil
		}
		return []domain.Group{{Items: items}}
	}

	index := make(map[string]int)
	var groups []domain.Group

	add := func(key, label string, item domain.Item) {
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, domain.Group{Key: key, Label: label})
		}
		groups[gi].Items = append(groups[gi].Items, item)
	}

	for _, item := range items {
		switch by {
		case domain.GroupByFolder:
			label := item.Folder
			if label == "" {
				label = "/"
			}
			add(item.Folder, label, item)
		case domain.GroupByTag:
			if len(item.Tags) == 0 {
				add("", "untagged", item)
				continue
			}
			// A multi-tagged note appears once, under its first tag.
			add(item.Tags[0], "#"+item.Tags[0], item)
		}
	}

	return groups
}
