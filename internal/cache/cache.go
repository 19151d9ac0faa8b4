// Package cache tracks exported pages and assets between runs so an
// export can skip work that is already up to date.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Cache struct {
	db *sql.DB
}

// Page records one exported document.
type Page struct {
	Path        string // vault path
	Fingerprint string
	Output      string // site-relative output path
}

// Asset records one copied media file, keyed by its basename.
type Asset struct {
	Name        string
	Fingerprint string
}

func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Init creates the schema. A version mismatch discards all cached state,
// which forces the next export to rebuild everything.
func (c *Cache) Init(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}
	version, err := c.currentVersion(ctx)
	if err != nil {
		return err
	}
	if version != schemaVersion {
		if err := c.reset(ctx); err != nil {
			return err
		}
		return c.setVersion(ctx, schemaVersion)
	}
	return nil
}

func (c *Cache) currentVersion(ctx context.Context) (int, error) {
	var v int
	err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (c *Cache) setVersion(ctx context.Context, v int) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

func (c *Cache) reset(ctx context.Context) error {
	for _, stmt := range []string{
		"DELETE FROM pages",
		"DELETE FROM assets",
		"DELETE FROM meta",
	} {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) Page(ctx context.Context, path string) (Page, bool, error) {
	p := Page{Path: path}
	err := c.db.QueryRowContext(ctx,
		"SELECT fingerprint, output FROM pages WHERE path=?", path,
	).Scan(&p.Fingerprint, &p.Output)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, err
	}
	return p, true, nil
}

func (c *Cache) PutPage(ctx context.Context, p Page) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pages(path, fingerprint, output, exported_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint=excluded.fingerprint,
			output=excluded.output,
			exported_at=excluded.exported_at
	`, p.Path, p.Fingerprint, p.Output, time.Now().Unix())
	return err
}

func (c *Cache) Pages(ctx context.Context) ([]Page, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT path, fingerprint, output FROM pages ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.Path, &p.Fingerprint, &p.Output); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (c *Cache) DeletePage(ctx context.Context, path string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM pages WHERE path=?", path)
	return err
}

func (c *Cache) Asset(ctx context.Context, name string) (string, bool, error) {
	var fp string
	err := c.db.QueryRowContext(ctx, "SELECT fingerprint FROM assets WHERE name=?", name).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return fp, true, nil
}

func (c *Cache) PutAsset(ctx context.Context, name, fingerprint string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO assets(name, fingerprint, exported_at)
		VALUES(?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			fingerprint=excluded.fingerprint,
			exported_at=excluded.exported_at
	`, name, fingerprint, time.Now().Unix())
	return err
}

func (c *Cache) Assets(ctx context.Context) ([]Asset, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT name, fingerprint FROM assets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.Name, &a.Fingerprint); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (c *Cache) DeleteAsset(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM assets WHERE name=?", name)
	return err
}

// Meta returns a bookkeeping value, empty when the key was never set.
func (c *Cache) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := c.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key=?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (c *Cache) SetMeta(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO meta(key, value)
		VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}
