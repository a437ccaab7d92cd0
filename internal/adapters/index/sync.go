package index

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"notedeck/internal/markdown"
	"notedeck/internal/ports"
)

// syncPreviewLength caps indexed previews. Providers truncate further to the
// configured length, so the index stores a generous cut.
const syncPreviewLength = 512

// Sync walks the vault and refreshes entries whose mtime changed, pruning
// entries for files that no longer exist. Unreadable files are skipped.
func (idx *Index) Sync() (ports.IndexStats, error) {
	stats := ports.IndexStats{}

	known := make(map[string]int64)
	rows, err := idx.db.Query(`SELECT path, mtime FROM files`)
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			rows.Close()
			return stats, err
		}
		known[path] = mtime
	}
	rows.Close()

	seen := make(map[string]bool)

	err = filepath.WalkDir(idx.vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != idx.vaultPath {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		relPath, err := filepath.Rel(idx.vaultPath, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		seen[relPath] = true
		stats.FilesScanned++

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime().Unix()

		if prev, ok := known[relPath]; ok && prev == mtime {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		entry := Extract(content, relPath, mtime, idx.previewProperty, idx.imageProperty)
		if err := idx.Store(entry); err != nil {
			return nil
		}
		stats.Updated++
		return nil
	})
	if err != nil {
		return stats, err
	}

	for path := range known {
		if !seen[path] {
			if _, err := idx.db.Exec(`DELETE FROM files WHERE path = ?`, path); err == nil {
				stats.Removed++
			}
		}
	}

	return stats, nil
}

// Extract parses one note into its indexed preview data. The preview falls
// back from the named frontmatter property to the first body paragraph; the
// image list puts the named property's target before embedded media.
func Extract(content []byte, relPath string, mtime int64, previewProperty, imageProperty string) ports.IndexEntry {
	doc := markdown.Parse(content)

	title := doc.StringProperty("title")
	if title == "" {
		base := filepath.Base(relPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	preview := doc.StringProperty(previewProperty)
	if preview == "" {
		preview = markdown.Preview(doc.Body, syncPreviewLength)
	} else {
		preview = markdown.Truncate(preview, syncPreviewLength)
	}

	images := markdown.ImageRefs(doc.Body)
	if img := doc.StringProperty(imageProperty); img != "" {
		images = append([]string{img}, images...)
	}

	return ports.IndexEntry{
		Path:     relPath,
		Mtime:    mtime,
		Title:    title,
		Preview:  preview,
		Images:   images,
		HasImage: len(images) > 0,
	}
}
