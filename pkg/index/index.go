// Package index maintains a tag -> test-file index in SQLite so tag-based
// runs do not reparse the whole test tree. The index carries a hash of the
// file set it was built from; a stale hash triggers a transparent rebuild.
package index

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/flintmc/flint/pkg/loader"
	"github.com/flintmc/flint/pkg/spec"
)

// Config locates the test tree and the index database.
type Config struct {
	// TestRoot is the directory scanned for test specs. Default "./test".
	TestRoot string
	// Path is the SQLite database file. Default ".cache/index.db".
	Path string
	// DefaultTag is assigned to specs that declare no tags. Default "default".
	DefaultTag string
}

func (c Config) withDefaults() Config {
	if c.TestRoot == "" {
		c.TestRoot = "./test"
	}
	if c.Path == "" {
		c.Path = filepath.Join(".cache", "index.db")
	}
	if c.DefaultTag == "" {
		c.DefaultTag = "default"
	}
	return c
}

// Index is an open tag index.
type Index struct {
	db  *sql.DB
	cfg Config
}

// Open opens (creating if needed) the index database.
func Open(cfg Config) (*Index, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db, cfg: cfg}, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func initPragmas(db *sql.DB) error {
	// WAL keeps rebuilds cheap; the index is a pure cache, so NORMAL
	// durability is plenty.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tags (
	tag  TEXT NOT NULL,
	path TEXT NOT NULL,
	PRIMARY KEY (tag, path)
);
CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// treeHash fingerprints the test file contents under the test root. Any
// added, removed, renamed, or edited file changes the hash.
func (ix *Index) treeHash() (string, error) {
	files, err := loader.CollectTestFiles(ix.cfg.TestRoot, true)
	if err != nil {
		return "", err
	}
	sort.Strings(files)

	h := sha256.New()
	for _, path := range files {
		fmt.Fprintf(h, "%s\n", path)
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
		f.Close()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (ix *Index) storedHash() (string, error) {
	var hash string
	err := ix.db.QueryRow(`SELECT value FROM meta WHERE key = 'tree_hash'`).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read tree hash: %w", err)
	}
	return hash, nil
}

// Ensure rebuilds the index if the test tree changed since the last build.
func (ix *Index) Ensure() error {
	current, err := ix.treeHash()
	if err != nil {
		return err
	}
	stored, err := ix.storedHash()
	if err != nil {
		return err
	}
	if current == stored {
		return nil
	}
	return ix.rebuild(current)
}

// Rebuild unconditionally re-indexes the test tree.
func (ix *Index) Rebuild() error {
	current, err := ix.treeHash()
	if err != nil {
		return err
	}
	return ix.rebuild(current)
}

func (ix *Index) rebuild(hash string) error {
	files, err := loader.CollectTestFiles(ix.cfg.TestRoot, true)
	if err != nil {
		return err
	}

	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tags`); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}

	insert, err := tx.Prepare(`INSERT OR IGNORE INTO tags (tag, path) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for _, path := range files {
		ts, err := spec.LoadFile(path)
		if err != nil {
			// Unparseable files stay out of the index; run/validate
			// report them with full detail.
			continue
		}
		tags := ts.Tags
		if len(tags) == 0 {
			tags = []string{ix.cfg.DefaultTag}
		}
		for _, tag := range tags {
			if _, err := insert.Exec(tag, path); err != nil {
				return fmt.Errorf("index %s under %q: %w", path, tag, err)
			}
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('tree_hash', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, hash); err != nil {
		return fmt.Errorf("store tree hash: %w", err)
	}
	return tx.Commit()
}

// Lookup returns the test files carrying any of the given tags, sorted and
// deduplicated. Unknown tags contribute nothing. The index is refreshed
// first if stale.
func (ix *Index) Lookup(tags []string) ([]string, error) {
	if err := ix.Ensure(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	for _, tag := range tags {
		rows, err := ix.db.Query(`SELECT path FROM tags WHERE tag = ?`, tag)
		if err != nil {
			return nil, fmt.Errorf("lookup tag %q: %w", tag, err)
		}
		for rows.Next() {
			var path string
			if err := rows.Scan(&path); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan tag %q: %w", tag, err)
			}
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate tag %q: %w", tag, err)
		}
		rows.Close()
	}
	sort.Strings(paths)
	return paths, nil
}

// Tags returns every tag present in the index, sorted.
func (ix *Index) Tags() ([]string, error) {
	if err := ix.Ensure(); err != nil {
		return nil, err
	}
	rows, err := ix.db.Query(`SELECT DISTINCT tag FROM tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
