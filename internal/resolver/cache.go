package resolver

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const cacheSchemaSQL = `
CREATE TABLE IF NOT EXISTS assets (
	path     TEXT PRIMARY KEY,
	size     INTEGER NOT NULL,
	mtime_ns INTEGER NOT NULL,
	type_id  INTEGER NOT NULL,
	uid      TEXT NOT NULL
);
`

// cache wraps the SQLite resolution cache.
type cache struct {
	conn *sql.DB
}

type cacheEntry struct {
	typeID uint32
	id     uuid.UUID
}

// openCache opens (or creates) the cache database and applies the schema.
func openCache(dsn string) (*cache, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("resolver: open cache: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolver: ping cache: %w", err)
	}
	if _, err := conn.Exec(cacheSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolver: apply cache schema: %w", err)
	}
	return &cache{conn: conn}, nil
}

func (c *cache) close() error {
	return c.conn.Close()
}

// get returns the cached identity for path when the stored size and
// mtime fingerprint still matches the file on disk.
func (c *cache) get(path string, size, mtimeNS int64) (cacheEntry, bool) {
	var (
		storedSize  int64
		storedMtime int64
		typeID      uint32
		uid         string
	)
	err := c.conn.QueryRow(
		`SELECT size, mtime_ns, type_id, uid FROM assets WHERE path = ?`, path,
	).Scan(&storedSize, &storedMtime, &typeID, &uid)
	if err != nil {
		return cacheEntry{}, false
	}
	if storedSize != size || storedMtime != mtimeNS {
		return cacheEntry{}, false
	}
	id, err := uuid.Parse(uid)
	if err != nil || id == uuid.Nil {
		return cacheEntry{}, false
	}
	return cacheEntry{typeID: typeID, id: id}, true
}

func (c *cache) put(path string, size, mtimeNS int64, typeID uint32, id uuid.UUID) error {
	_, err := c.conn.Exec(`
		INSERT INTO assets (path, size, mtime_ns, type_id, uid)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size     = excluded.size,
			mtime_ns = excluded.mtime_ns,
			type_id  = excluded.type_id,
			uid      = excluded.uid
	`, path, size, mtimeNS, typeID, id.String())
	if err != nil {
		return fmt.Errorf("resolver: upsert cache entry: %w", err)
	}
	return nil
}

func (c *cache) delete(path string) {
	_, _ = c.conn.Exec(`DELETE FROM assets WHERE path = ?`, path)
}
