package database

import (
	"database/sql"
	"fmt"
	"time"

	"songbird/internal/structures"
)

const (
	slotActive = "active"
	slotBackup = "backup"
)

// ReplaceQueue atomically replaces the persisted queue snapshot: head row,
// active order and backup order are cleared and rewritten in one transaction,
// so a concurrent reader never observes a torn mix of old and new state.
// Queue items reference unified_media rows by id; rows missing from the store
// are inserted minimally (INSERT OR IGNORE) so richer existing rows survive.
func (db *DB) ReplaceQueue(data structures.PersistedPlaybackData) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ensureStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO unified_media
		(id, media_type, title, artist_name, art_url, duration, song_count,
		 parent_video_id, start_seconds, end_seconds, last_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer ensureStmt.Close()

	now := time.Now()
	for _, item := range data.Items {
		if err := ensureQueueRow(ensureStmt, item, now); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("DELETE FROM queue_items WHERE queue_id = ?", data.QueueID); err != nil {
		return fmt.Errorf("failed to clear queue items: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM playback_head WHERE queue_id = ?", data.QueueID); err != nil {
		return fmt.Errorf("failed to clear playback head: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO playback_head
		(queue_id, current_index, position_ms, current_media_id, shuffle_on, repeat_mode, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, data.QueueID, data.CurrentIndex, data.PositionMs,
		nullString(data.CurrentMediaID), boolInt(data.ShuffleOn), int(data.Repeat), now)
	if err != nil {
		return fmt.Errorf("failed to insert playback head: %w", err)
	}

	itemStmt, err := tx.Prepare(`
		INSERT INTO queue_items (queue_id, slot, queue_index, media_id)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer itemStmt.Close()

	for i, item := range data.Items {
		if _, err := itemStmt.Exec(data.QueueID, slotActive, i, item.ID); err != nil {
			return fmt.Errorf("failed to insert queue item %s: %w", item.ID, err)
		}
	}

	for i, id := range data.BackupOrder {
		if _, err := itemStmt.Exec(data.QueueID, slotBackup, i, id); err != nil {
			return fmt.Errorf("failed to insert backup item %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func ensureQueueRow(stmt *sql.Stmt, item structures.PlaybackItem, now time.Time) error {
	parsed := structures.ParseMediaID(item.ID)

	var parent any
	var start, end any
	if item.Type == structures.MediaTypeSegment {
		parent = parsed.VideoID
		start = item.ClipStartSec
		end = item.ClipEndSec
	}

	_, err := stmt.Exec(
		item.ID, int(item.Type), item.Title, item.ArtistName, item.ArtURL,
		item.Duration, item.SongCount, parent, start, end, now,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure media row %s: %w", item.ID, err)
	}

	return nil
}

// LoadQueue rehydrates the persisted snapshot for a queue. The active order
// is joined against unified_media and media_interactions in a single query.
// Returns false when no head row exists (nothing was ever saved).
func (db *DB) LoadQueue(queueID string) (*structures.PersistedPlaybackData, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	data := structures.PersistedPlaybackData{QueueID: queueID}

	var currentMediaID sql.NullString
	var shuffle, repeat int

	err := db.db.QueryRow(`
		SELECT current_index, position_ms, current_media_id, shuffle_on, repeat_mode
		FROM playback_head WHERE queue_id = ?
	`, queueID).Scan(&data.CurrentIndex, &data.PositionMs, &currentMediaID, &shuffle, &repeat)
	if err != nil {
		return nil, false
	}

	data.CurrentMediaID = currentMediaID.String
	data.ShuffleOn = shuffle != 0
	data.Repeat = structures.RepeatMode(repeat)

	rows, err := db.db.Query(`
		SELECT m.id, m.media_type, m.title, m.artist_name, m.art_url, m.duration,
		       m.song_count, m.start_seconds, m.end_seconds,
		       COALESCE(i.download_status, 0), COALESCE(i.local_path, '')
		FROM queue_items q
		JOIN unified_media m ON m.id = q.media_id
		LEFT JOIN media_interactions i ON i.media_id = q.media_id
		WHERE q.queue_id = ? AND q.slot = ?
		ORDER BY q.queue_index ASC
	`, queueID, slotActive)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	for rows.Next() {
		var item structures.PlaybackItem
		var mediaType, status int
		var artist, art, localPath sql.NullString
		var start, end sql.NullInt64

		err := rows.Scan(&item.ID, &mediaType, &item.Title, &artist, &art,
			&item.Duration, &item.SongCount, &start, &end, &status, &localPath)
		if err != nil {
			continue
		}

		item.Type = structures.MediaType(mediaType)
		item.ArtistName = artist.String
		item.ArtURL = art.String
		item.ClipStartSec = int(start.Int64)
		item.ClipEndSec = int(end.Int64)

		// Completed downloads come back pre-resolved to the local file.
		if structures.DownloadStatus(status) == structures.Downloaded && localPath.String != "" {
			item.StreamURI = localPath.String
		}

		data.Items = append(data.Items, item)
	}

	backupRows, err := db.db.Query(`
		SELECT media_id FROM queue_items
		WHERE queue_id = ? AND slot = ?
		ORDER BY queue_index ASC
	`, queueID, slotBackup)
	if err != nil {
		return nil, false
	}
	defer backupRows.Close()

	for backupRows.Next() {
		var id string
		if err := backupRows.Scan(&id); err == nil {
			data.BackupOrder = append(data.BackupOrder, id)
		}
	}

	return &data, true
}

// ClearQueue deletes the persisted snapshot for a queue.
func (db *DB) ClearQueue(queueID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM queue_items WHERE queue_id = ?", queueID); err != nil {
		return fmt.Errorf("failed to clear queue items: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM playback_head WHERE queue_id = ?", queueID); err != nil {
		return fmt.Errorf("failed to clear playback head: %w", err)
	}

	return tx.Commit()
}
