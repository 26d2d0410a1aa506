package database

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the durable metadata store: the single source of truth for all
// metadata the UI and playback layers read, plus the side tables holding
// user interactions and persisted queue state.
type DB struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string

	watchMu  sync.Mutex
	watchers map[string][]*rowWatcher
}

// Open opens or creates the SQLite database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and set pragmas for performance
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{
		db:       conn,
		path:     path,
		watchers: make(map[string][]*rowWatcher),
	}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary database tables
func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS unified_media (
			id TEXT PRIMARY KEY,
			media_type INTEGER NOT NULL,
			title TEXT NOT NULL,
			artist_name TEXT,
			channel_id TEXT,
			org TEXT,
			art_url TEXT,
			uploader_avatar_url TEXT,
			duration INTEGER NOT NULL DEFAULT 0,
			parent_video_id TEXT,
			start_seconds INTEGER,
			end_seconds INTEGER,
			song_count INTEGER NOT NULL DEFAULT 0,
			description TEXT,
			status TEXT,
			available_at DATETIME,
			published_at DATETIME,
			last_updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_media_parent ON unified_media(parent_video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_media_channel ON unified_media(channel_id)`,

		`CREATE TABLE IF NOT EXISTS media_interactions (
			media_id TEXT PRIMARY KEY,
			liked INTEGER NOT NULL DEFAULT 0,
			download_status INTEGER NOT NULL DEFAULT 0,
			local_path TEXT,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (media_id) REFERENCES unified_media(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS queue_items (
			queue_id TEXT NOT NULL,
			slot TEXT NOT NULL,
			queue_index INTEGER NOT NULL,
			media_id TEXT NOT NULL,
			PRIMARY KEY (queue_id, slot, queue_index),
			FOREIGN KEY (media_id) REFERENCES unified_media(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_media ON queue_items(media_id)`,

		`CREATE TABLE IF NOT EXISTS playback_head (
			queue_id TEXT PRIMARY KEY,
			current_index INTEGER NOT NULL,
			position_ms INTEGER NOT NULL DEFAULT 0,
			current_media_id TEXT,
			shuffle_on INTEGER NOT NULL DEFAULT 0,
			repeat_mode INTEGER NOT NULL DEFAULT 0,
			saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Close closes the database
func (db *DB) Close() error {
	db.closeAllWatchers()
	return db.db.Close()
}

// ClearAll wipes every table. Used by the cache-clear command.
func (db *DB) ClearAll() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"playback_head", "queue_items", "media_interactions", "unified_media"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	db.notifyAllCleared()

	return nil
}
