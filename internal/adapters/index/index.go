// Package index implements the preview index on SQLite. It caches per-file
// card content keyed by path and mtime so feed loads rarely touch note
// bodies.
package index

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"notedeck/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Index implements ports.PreviewIndex using SQLite.
type Index struct {
	db        *sql.DB
	vaultPath string
	dbPath    string

	previewProperty string
	imageProperty   string
}

var _ ports.PreviewIndex = (*Index)(nil)

// NewIndex creates a closed index; call Open before use. The property names
// select which frontmatter properties extraction prefers over the body.
func NewIndex(previewProperty, imageProperty string) *Index {
	return &Index{previewProperty: previewProperty, imageProperty: imageProperty}
}

// Open initializes the index database for the given vault path.
func (idx *Index) Open(vaultPath string) error {
	// Expand ~ in path
	if len(vaultPath) > 0 && vaultPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		vaultPath = filepath.Join(home, vaultPath[1:])
	}

	idx.vaultPath = vaultPath
	idx.dbPath = databasePath(vaultPath)

	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", idx.dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	// Performance pragmas + schema in single batch (reduces round-trips)
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -64000;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			mtime INTEGER NOT NULL,
			title TEXT,
			preview TEXT,
			images TEXT,
			has_image INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if idx.needsFullRebuild() {
		if _, err := db.Exec(`DELETE FROM files`); err != nil {
			db.Close()
			return fmt.Errorf("failed to reset index: %w", err)
		}
	}

	if err := idx.updateMeta(); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// Lookup returns the entry for a path when its recorded mtime matches.
func (idx *Index) Lookup(path string, mtime int64) (ports.IndexEntry, bool, error) {
	var entry ports.IndexEntry
	var images sql.NullString
	var hasImage int

	err := idx.db.QueryRow(`
		SELECT path, mtime, title, preview, images, has_image
		FROM files WHERE path = ?
	`, path).Scan(&entry.Path, &entry.Mtime, &entry.Title, &entry.Preview, &images, &hasImage)

	if err == sql.ErrNoRows {
		return ports.IndexEntry{}, false, nil
	}
	if err != nil {
		return ports.IndexEntry{}, false, err
	}
	if entry.Mtime != mtime {
		return ports.IndexEntry{}, false, nil
	}

	entry.Images = splitImages(images.String)
	entry.HasImage = hasImage != 0
	return entry, true, nil
}

// Store records an entry for a path, replacing any previous one.
func (idx *Index) Store(entry ports.IndexEntry) error {
	_, err := idx.db.Exec(`
		INSERT OR REPLACE INTO files (path, mtime, title, preview, images, has_image)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Path, entry.Mtime, entry.Title, entry.Preview,
		joinImages(entry.Images), boolInt(entry.HasImage))
	return err
}

func (idx *Index) needsFullRebuild() bool {
	var version, vaultHash string

	idx.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	idx.db.QueryRow(`SELECT value FROM meta WHERE key = 'vault_path_hash'`).Scan(&vaultHash)

	return version != schemaVersion || vaultHash != hashVaultPath(idx.vaultPath)
}

func (idx *Index) updateMeta() error {
	if _, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)
	`, schemaVersion); err != nil {
		return err
	}
	_, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('vault_path_hash', ?)
	`, hashVaultPath(idx.vaultPath))
	return err
}

// databasePath returns the path for the SQLite database.
func databasePath(vaultPath string) string {
	// XDG data directory
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}

	// Hash vault path for unique DB name
	return filepath.Join(dataHome, "notedeck", hashVaultPath(vaultPath)+".db")
}

// hashVaultPath returns a short hash of the vault path.
func hashVaultPath(vaultPath string) string {
	h := sha256.Sum256([]byte(vaultPath))
	return hex.EncodeToString(h[:8])
}

func joinImages(images []string) string {
	return strings.Join(images, "\n")
}

func splitImages(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
